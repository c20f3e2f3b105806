package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/platform/sendgrid"
	"github.com/yungbote/skillbharat-backend/internal/realtime"
)

// ProgressEvent is emitted after every recompute. Lesson is set when a lesson write caused it.
type ProgressEvent struct {
	UserID        uuid.UUID
	CourseID      uuid.UUID
	CourseTitle   string
	Lesson        *learning.LessonProgress
	Snapshot      learning.CourseProgressSnapshot
	JustCompleted bool
	At            time.Time
}

type ProgressNotifier interface {
	Notify(ctx context.Context, ev ProgressEvent) error
}

// =========================
// Fan-out
// =========================

type namedNotifier struct {
	name  string
	n     ProgressNotifier
	async bool
}

type FanoutNotifier struct {
	log   *logger.Logger
	sinks []namedNotifier
	// asyncTimeout bounds one background delivery; it is detached from the request context.
	asyncTimeout time.Duration
	inflight     sync.WaitGroup
}

// NewFanoutNotifier delivers to every sink in order. Sink failures are logged and counted,
// never returned, so a progress write is never failed by a side effect.
func NewFanoutNotifier(log *logger.Logger) *FanoutNotifier {
	if log == nil {
		log = logger.Nop()
	}
	return &FanoutNotifier{
		log:          log.With("service", "ProgressNotifier"),
		asyncTimeout: 30 * time.Second,
	}
}

// Add registers a sink delivered inline with the recompute.
func (f *FanoutNotifier) Add(name string, n ProgressNotifier) *FanoutNotifier {
	if n != nil {
		f.sinks = append(f.sinks, namedNotifier{name: name, n: n})
	}
	return f
}

// AddAsync registers a sink delivered on its own goroutine, for network side effects
// (email, webhooks) that must not hold up the caller.
func (f *FanoutNotifier) AddAsync(name string, n ProgressNotifier) *FanoutNotifier {
	if n != nil {
		f.sinks = append(f.sinks, namedNotifier{name: name, n: n, async: true})
	}
	return f
}

func (f *FanoutNotifier) Notify(ctx context.Context, ev ProgressEvent) error {
	if f == nil {
		return nil
	}
	for _, s := range f.sinks {
		if !s.async {
			f.deliver(ctx, s, ev)
			continue
		}
		f.inflight.Add(1)
		go func(s namedNotifier) {
			defer f.inflight.Done()
			actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.asyncTimeout)
			defer cancel()
			f.deliver(actx, s, ev)
		}(s)
	}
	return nil
}

// Wait blocks until background deliveries started so far have finished.
func (f *FanoutNotifier) Wait() {
	if f != nil {
		f.inflight.Wait()
	}
}

func (f *FanoutNotifier) deliver(ctx context.Context, s namedNotifier, ev ProgressEvent) {
	m := observability.Current()
	if err := s.n.Notify(ctx, ev); err != nil {
		m.IncNotification(s.name, "error")
		f.log.Warn("Progress notification failed",
			"sink", s.name,
			"user_id", ev.UserID,
			"course_id", ev.CourseID,
			"error", err,
		)
		return
	}
	m.IncNotification(s.name, "ok")
}

// =========================
// SSE
// =========================

type sseNotifier struct {
	emit SSEEmitter
}

func NewSSENotifier(emit SSEEmitter) ProgressNotifier {
	return &sseNotifier{emit: emit}
}

func (n *sseNotifier) Notify(ctx context.Context, ev ProgressEvent) error {
	if n == nil || n.emit == nil || ev.UserID == uuid.Nil {
		return nil
	}
	channel := realtime.UserChannel(ev.UserID)
	var errs []error
	if ev.Lesson != nil {
		errs = append(errs, n.emit.Emit(ctx, realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventLessonProgressUpdated,
			Data: map[string]any{
				"course_id": ev.CourseID,
				"lesson":    ev.Lesson,
			},
		}))
	}
	errs = append(errs, n.emit.Emit(ctx, realtime.SSEMessage{
		Channel: channel,
		Event:   realtime.SSEEventCourseProgressUpdated,
		Data: map[string]any{
			"course_id": ev.CourseID,
			"snapshot":  ev.Snapshot,
		},
	}))
	if ev.JustCompleted {
		errs = append(errs, n.emit.Emit(ctx, realtime.SSEMessage{
			Channel: channel,
			Event:   realtime.SSEEventCourseCompleted,
			Data: map[string]any{
				"course_id":    ev.CourseID,
				"course_title": ev.CourseTitle,
				"completed_at": ev.At,
			},
		}))
	}
	return errors.Join(errs...)
}

// =========================
// Email
// =========================

type emailNotifier struct {
	client sendgrid.Client
	users  UserReader
}

// NewCompletionEmailNotifier mails the learner once, on the completing recompute.
func NewCompletionEmailNotifier(client sendgrid.Client, users UserReader) ProgressNotifier {
	return &emailNotifier{client: client, users: users}
}

func (n *emailNotifier) Notify(ctx context.Context, ev ProgressEvent) error {
	if n == nil || n.client == nil || n.users == nil || !ev.JustCompleted {
		return nil
	}
	u, err := n.users.GetByID(dbctx.New(ctx), ev.UserID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if u == nil || strings.TrimSpace(u.Email) == "" {
		return nil
	}
	title := strings.TrimSpace(ev.CourseTitle)
	if title == "" {
		title = "your course"
	}
	_, err = n.client.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: u.Email, Name: u.FullName()}},
		Subject:    fmt.Sprintf("You completed %s", title),
		Text:       fmt.Sprintf("Congratulations %s! You completed %s. Your certificate is ready to download.", u.FullName(), title),
		Categories: []string{"course_completed"},
		CustomArgs: map[string]string{"course_id": ev.CourseID.String()},
	})
	return err
}

// =========================
// Webhook
// =========================

type WebhookConfig struct {
	URL        string
	Timeout    time.Duration
	MaxRetries int
}

type webhookNotifier struct {
	http *resty.Client
	url  string
}

type completionWebhookPayload struct {
	Event           string    `json:"event"`
	UserID          uuid.UUID `json:"user_id"`
	CourseID        uuid.UUID `json:"course_id"`
	CourseTitle     string    `json:"course_title,omitempty"`
	OverallProgress int       `json:"overall_progress"`
	CompletedAt     time.Time `json:"completed_at"`
}

// NewCompletionWebhookNotifier returns nil when no URL is configured.
func NewCompletionWebhookNotifier(cfg WebhookConfig) ProgressNotifier {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= 500)
		})
	return &webhookNotifier{http: client, url: url}
}

func (n *webhookNotifier) Notify(ctx context.Context, ev ProgressEvent) error {
	if n == nil || !ev.JustCompleted {
		return nil
	}
	resp, err := n.http.R().
		SetContext(ctx).
		SetBody(completionWebhookPayload{
			Event:           "course.completed",
			UserID:          ev.UserID,
			CourseID:        ev.CourseID,
			CourseTitle:     ev.CourseTitle,
			OverallProgress: ev.Snapshot.OverallProgress,
			CompletedAt:     ev.At,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("completion webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("completion webhook: http %d", resp.StatusCode())
	}
	return nil
}
