package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	domainagg "github.com/yungbote/skillbharat-backend/internal/domain/aggregates"
	"github.com/yungbote/skillbharat-backend/internal/domain/learning"
	httpH "github.com/yungbote/skillbharat-backend/internal/http/handlers"
	httpMW "github.com/yungbote/skillbharat-backend/internal/http/middleware"
	"github.com/yungbote/skillbharat-backend/internal/platform/ctxutil"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

var testUser = uuid.MustParse("6f1f3c9e-8a53-4d8b-9d3e-0f6d7d0b8a11")

type stubAuth struct{}

func (stubAuth) UserFromToken(_ context.Context, tok string) (uuid.UUID, error) {
	if tok != "good" {
		return uuid.Nil, domainagg.ErrUnauthenticated
	}
	return testUser, nil
}

func (a stubAuth) SetContextFromToken(ctx context.Context, tok string) (context.Context, error) {
	id, err := a.UserFromToken(ctx, tok)
	if err != nil {
		return ctx, err
	}
	return ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: id}), nil
}

func (stubAuth) IssueToken(uuid.UUID, time.Duration) (string, error) { return "good", nil }

type stubTracker struct {
	lastUpdate learning.LessonProgressUpdate
	lastTime   int
	lastPct    int
	calls      []string
}

func (s *stubTracker) result(lessonID uuid.UUID) *services.LessonUpdateResult {
	return &services.LessonUpdateResult{
		Progress: &learning.LessonProgress{UserID: testUser, LessonID: lessonID, ProgressPercentage: 100, Completed: true},
		Course:   &services.RecomputeResult{Snapshot: learning.CourseProgressSnapshot{OverallProgress: 100, IsCompleted: true}, JustCompleted: true},
	}
}

func (s *stubTracker) GetLessonProgress(_ context.Context, userID, lessonID uuid.UUID) (*learning.LessonProgress, error) {
	s.calls = append(s.calls, "get")
	return nil, nil
}

func (s *stubTracker) UpdateProgress(_ context.Context, _ uuid.UUID, lessonID uuid.UUID, upd learning.LessonProgressUpdate) (*services.LessonUpdateResult, error) {
	s.calls = append(s.calls, "update")
	s.lastUpdate = upd
	return s.result(lessonID), nil
}

func (s *stubTracker) MarkAsCompleted(_ context.Context, _ uuid.UUID, lessonID uuid.UUID) (*services.LessonUpdateResult, error) {
	s.calls = append(s.calls, "complete")
	return s.result(lessonID), nil
}

func (s *stubTracker) UpdateTimeSpent(_ context.Context, _ uuid.UUID, lessonID uuid.UUID, minutes int) (*services.LessonUpdateResult, error) {
	s.calls = append(s.calls, "time")
	s.lastTime = minutes
	return s.result(lessonID), nil
}

func (s *stubTracker) UpdateProgressPercentage(_ context.Context, _ uuid.UUID, lessonID uuid.UUID, pct int) (*services.LessonUpdateResult, error) {
	s.calls = append(s.calls, "percentage")
	s.lastPct = pct
	return s.result(lessonID), nil
}

type stubCourses struct{}

func (stubCourses) GetCourseTree(_ context.Context, courseID uuid.UUID) (*learning.CourseTree, error) {
	return nil, domainagg.NewError(domainagg.CodeNotFound, "course_progress.get_tree", "course not found", nil)
}

func (stubCourses) Recompute(_ context.Context, _ uuid.UUID, courseID uuid.UUID) (*services.RecomputeResult, error) {
	return &services.RecomputeResult{Snapshot: learning.CourseProgressSnapshot{CourseID: courseID, TotalLessons: 5, CompletedLessons: 2, OverallProgress: 40}}, nil
}

func (s stubCourses) RecomputeAfterLesson(ctx context.Context, userID, courseID uuid.UUID, _ *learning.LessonProgress) (*services.RecomputeResult, error) {
	return s.Recompute(ctx, userID, courseID)
}

type stubCertificates struct{}

func (stubCertificates) Assemble(context.Context, uuid.UUID, uuid.UUID, string) (*services.CertificateData, error) {
	return nil, domainagg.NewError(domainagg.CodePreconditionFailed, "certificate.assemble", "course not completed", nil)
}

func newTestRouter(tr *stubTracker) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(RouterConfig{
		AuthMiddleware:     httpMW.NewAuthMiddleware(nil, stubAuth{}),
		ProgressHandler:    httpH.NewProgressHandler(tr, stubCourses{}),
		CourseHandler:      httpH.NewCourseHandler(stubCourses{}),
		CertificateHandler: httpH.NewCertificateHandler(stubCertificates{}),
		HealthHandler:      httpH.NewHealthHandler(nil),
	})
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer good")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthcheckIsPublic(t *testing.T) {
	r := newTestRouter(&stubTracker{})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: got=%d %s", rec.Code, rec.Body.String())
	}
}

func TestLessonRoutes(t *testing.T) {
	tr := &stubTracker{}
	r := newTestRouter(tr)
	lesson := uuid.New().String()

	rec := do(r, http.MethodPost, "/api/lessons/"+lesson+"/complete", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: want=200 got=%d %s", rec.Code, rec.Body.String())
	}
	var body services.LessonUpdateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Progress == nil || !body.Progress.Completed || body.Course == nil || !body.Course.JustCompleted {
		t.Fatalf("body: got=%s", rec.Body.String())
	}

	if rec := do(r, http.MethodPost, "/api/lessons/"+lesson+"/time", `{"minutes":7}`); rec.Code != http.StatusOK || tr.lastTime != 7 {
		t.Fatalf("time: got=%d minutes=%d", rec.Code, tr.lastTime)
	}
	if rec := do(r, http.MethodPut, "/api/lessons/"+lesson+"/percentage", `{"percentage":150}`); rec.Code != http.StatusOK || tr.lastPct != 150 {
		t.Fatalf("percentage: got=%d pct=%d", rec.Code, tr.lastPct)
	}
	if rec := do(r, http.MethodPatch, "/api/lessons/"+lesson+"/progress", `{"progress_percentage":30,"time_spent_minutes":4}`); rec.Code != http.StatusOK {
		t.Fatalf("patch: got=%d", rec.Code)
	}
	if tr.lastUpdate.ProgressPercentage == nil || *tr.lastUpdate.ProgressPercentage != 30 || tr.lastUpdate.Completed != nil {
		t.Fatalf("patch update: got=%+v", tr.lastUpdate)
	}
	if rec := do(r, http.MethodGet, "/api/lessons/"+lesson+"/progress", ""); rec.Code != http.StatusOK {
		t.Fatalf("get: got=%d", rec.Code)
	}
}

func TestLessonRouteValidation(t *testing.T) {
	tr := &stubTracker{}
	r := newTestRouter(tr)
	lesson := uuid.New().String()

	cases := []struct {
		method, path, body string
	}{
		{http.MethodPost, "/api/lessons/not-a-uuid/complete", ""},
		{http.MethodPost, "/api/lessons/" + lesson + "/time", `{"minutes":-1}`},
		{http.MethodPost, "/api/lessons/" + lesson + "/time", `{"minutes":721}`},
		{http.MethodPost, "/api/lessons/" + lesson + "/time", `{}`},
		{http.MethodPut, "/api/lessons/" + lesson + "/percentage", `{}`},
		{http.MethodPatch, "/api/lessons/" + lesson + "/progress", `{}`},
		{http.MethodPatch, "/api/lessons/" + lesson + "/progress", `not json`},
	}
	for _, tc := range cases {
		rec := do(r, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s %s %s: want=400 got=%d %s", tc.method, tc.path, tc.body, rec.Code, rec.Body.String())
		}
	}
	if len(tr.calls) != 0 {
		t.Fatalf("tracker called on invalid input: %v", tr.calls)
	}
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	r := newTestRouter(&stubTracker{})
	req := httptest.NewRequest(http.MethodPost, "/api/lessons/"+uuid.NewString()+"/complete", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("want=401 got=%d", rec.Code)
	}
}

func TestServiceErrorMapping(t *testing.T) {
	r := newTestRouter(&stubTracker{})
	course := uuid.NewString()

	if rec := do(r, http.MethodGet, "/api/courses/"+course+"/tree", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("tree: want=404 got=%d", rec.Code)
	}
	rec := do(r, http.MethodGet, "/api/courses/"+course+"/certificate", "")
	if rec.Code != http.StatusUnprocessableEntity || !strings.Contains(rec.Body.String(), "precondition_failed") {
		t.Fatalf("certificate: want=422 got=%d %s", rec.Code, rec.Body.String())
	}
	rec = do(r, http.MethodGet, "/api/courses/"+course+"/progress", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"overall_progress":40`) {
		t.Fatalf("progress: got=%d %s", rec.Code, rec.Body.String())
	}
}
