package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/skillbharat-backend/internal/app"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "progressctl",
		Short:         "Operate on Skill Bharat course progress",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRecomputeCmd())
	root.AddCommand(newResyncCmd())
	root.AddCommand(newTokenCmd())
	return root
}

func withApp(fn func(ctx context.Context, a *app.App) error) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func printJSON(cmd *cobra.Command, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
	return err
}

func parseID(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid --%s %q", name, raw)
	}
	return id, nil
}

func newRecomputeCmd() *cobra.Command {
	var userRaw, courseRaw string
	cmd := &cobra.Command{
		Use:   "recompute",
		Short: "Recompute one user's course progress and print the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseID("user", userRaw)
			if err != nil {
				return err
			}
			courseID, err := parseID("course", courseRaw)
			if err != nil {
				return err
			}
			return withApp(func(ctx context.Context, a *app.App) error {
				res, err := a.Services.Courses.Recompute(ctx, userID, courseID)
				if err != nil {
					return err
				}
				return printJSON(cmd, res.Snapshot)
			})
		},
	}
	cmd.Flags().StringVar(&userRaw, "user", "", "user id")
	cmd.Flags().StringVar(&courseRaw, "course", "", "course id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("course")
	return cmd
}

func newResyncCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Run one pass over enrollments whose cached progress is stale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(func(ctx context.Context, a *app.App) error {
				rep, err := a.Services.Resync.RunOnce(ctx, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, rep)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "max enrollments to recompute")
	return cmd
}

func newTokenCmd() *cobra.Command {
	var userRaw string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			userID, err := parseID("user", userRaw)
			if err != nil {
				return err
			}
			return withApp(func(_ context.Context, a *app.App) error {
				if ttl <= 0 {
					ttl = a.Cfg.Auth.AccessTokenTTL
				}
				tok, err := a.Services.Auth.IssueToken(userID, ttl)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&userRaw, "user", "", "user id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
