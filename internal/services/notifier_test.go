package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	"github.com/yungbote/skillbharat-backend/internal/platform/sendgrid"
	"github.com/yungbote/skillbharat-backend/internal/realtime"
)

type recordingEmitter struct {
	mu   sync.Mutex
	msgs []realtime.SSEMessage
}

func (r *recordingEmitter) Emit(_ context.Context, msg realtime.SSEMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

type fakeMailer struct {
	reqs []sendgrid.SendEmailRequest
	err  error
}

func (f *fakeMailer) Send(_ context.Context, req sendgrid.SendEmailRequest) (*sendgrid.SendEmailResult, error) {
	f.reqs = append(f.reqs, req)
	if f.err != nil {
		return nil, f.err
	}
	return &sendgrid.SendEmailResult{StatusCode: http.StatusAccepted}, nil
}

func TestSSENotifierEvents(t *testing.T) {
	em := &recordingEmitter{}
	n := NewSSENotifier(em)
	userID := uuid.New()

	err := n.Notify(context.Background(), ProgressEvent{
		UserID:        userID,
		CourseID:      uuid.New(),
		Lesson:        &learning.LessonProgress{Completed: true, ProgressPercentage: 100},
		Snapshot:      learning.CourseProgressSnapshot{OverallProgress: 100, IsCompleted: true},
		JustCompleted: true,
	})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	want := []realtime.SSEEvent{
		realtime.SSEEventLessonProgressUpdated,
		realtime.SSEEventCourseProgressUpdated,
		realtime.SSEEventCourseCompleted,
	}
	if len(em.msgs) != len(want) {
		t.Fatalf("messages: want=%d got=%d", len(want), len(em.msgs))
	}
	for i, ev := range want {
		if em.msgs[i].Event != ev || em.msgs[i].Channel != realtime.UserChannel(userID) {
			t.Fatalf("message %d: want=%s on %s got=%s on %s", i, ev, realtime.UserChannel(userID), em.msgs[i].Event, em.msgs[i].Channel)
		}
	}

	em.msgs = nil
	if err := n.Notify(context.Background(), ProgressEvent{UserID: userID, CourseID: uuid.New()}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(em.msgs) != 1 || em.msgs[0].Event != realtime.SSEEventCourseProgressUpdated {
		t.Fatalf("recompute-only event: got=%+v", em.msgs)
	}
}

func TestFanoutNotifierSwallowsSinkErrors(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("smtp down")}
	ok := &recordingNotifier{}
	f := NewFanoutNotifier(nil).Add("email", failing).Add("sse", ok).Add("webhook", NewCompletionWebhookNotifier(WebhookConfig{}))

	if err := f.Notify(context.Background(), ProgressEvent{UserID: uuid.New(), JustCompleted: true}); err != nil {
		t.Fatalf("Notify: want nil got=%v", err)
	}
	if len(failing.events) != 1 || len(ok.events) != 1 {
		t.Fatalf("deliveries: failing=%d ok=%d", len(failing.events), len(ok.events))
	}
	if len(f.sinks) != 2 {
		t.Fatalf("unconfigured webhook should not be added: sinks=%d", len(f.sinks))
	}
}

func TestCompletionEmailOnlyOnJustCompleted(t *testing.T) {
	s := newMemStore()
	u := s.addUser("Priya", "Sharma", "priya@example.com")
	mailer := &fakeMailer{}
	n := NewCompletionEmailNotifier(mailer, memUsers{s})

	if err := n.Notify(context.Background(), ProgressEvent{UserID: u.ID, CourseTitle: "Go"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mailer.reqs) != 0 {
		t.Fatalf("email sent without completion")
	}
	if err := n.Notify(context.Background(), ProgressEvent{UserID: u.ID, CourseID: uuid.New(), CourseTitle: "Go", JustCompleted: true}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(mailer.reqs) != 1 {
		t.Fatalf("emails: want=1 got=%d", len(mailer.reqs))
	}
	req := mailer.reqs[0]
	if req.To[0].Email != "priya@example.com" || req.To[0].Name != "Priya Sharma" || req.Subject != "You completed Go" {
		t.Fatalf("email request: got=%+v", req)
	}
}

func TestCompletionWebhookPostsPayload(t *testing.T) {
	payloads := make(chan completionWebhookPayload, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p completionWebhookPayload
		_ = json.NewDecoder(r.Body).Decode(&p)
		payloads <- p
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewCompletionWebhookNotifier(WebhookConfig{URL: srv.URL, Timeout: time.Second})
	ev := ProgressEvent{
		UserID:        uuid.New(),
		CourseID:      uuid.New(),
		CourseTitle:   "Go",
		Snapshot:      learning.CourseProgressSnapshot{OverallProgress: 100},
		JustCompleted: true,
		At:            time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}
	if err := n.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	got := <-payloads
	if got.Event != "course.completed" || got.CourseID != ev.CourseID || got.OverallProgress != 100 {
		t.Fatalf("payload: got=%+v", got)
	}

	ev.JustCompleted = false
	if err := n.Notify(context.Background(), ev); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(payloads) != 0 {
		t.Fatalf("webhook called without completion")
	}
}

func TestCompletionWebhookReportsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()
	n := NewCompletionWebhookNotifier(WebhookConfig{URL: srv.URL})
	if err := n.Notify(context.Background(), ProgressEvent{JustCompleted: true}); err == nil {
		t.Fatalf("want error for 400")
	}
}

func TestFanoutNotifierAsyncSinkRunsOffTheCallerPath(t *testing.T) {
	release := make(chan struct{})
	delivered := false
	var sinkCtxErr error
	slow := notifyFunc(func(ctx context.Context, _ ProgressEvent) error {
		<-release
		sinkCtxErr = ctx.Err()
		delivered = true
		return nil
	})
	inline := &recordingNotifier{}
	f := NewFanoutNotifier(nil).Add("sse", inline).AddAsync("webhook", slow)

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan struct{})
	go func() {
		_ = f.Notify(ctx, ProgressEvent{UserID: uuid.New(), JustCompleted: true})
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatalf("Notify blocked on a background sink")
	}
	if len(inline.events) != 1 {
		t.Fatalf("inline deliveries: want=1 got=%d", len(inline.events))
	}

	// The request finishing must not cancel the background delivery.
	cancel()
	close(release)
	f.Wait()
	if !delivered {
		t.Fatalf("background sink not delivered")
	}
	if sinkCtxErr != nil {
		t.Fatalf("background ctx: want=nil got=%v", sinkCtxErr)
	}
}
