package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/skillbharat-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		a.Log.Error("background start failed", "error", err)
		a.Close()
		os.Exit(1)
	}
	if err := a.Run(ctx); err != nil {
		a.Log.Error("server exited", "error", err)
		a.Close()
		os.Exit(1)
	}
	a.Log.Info("server stopped")
}
