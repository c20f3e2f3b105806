package services

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type ResyncReport struct {
	Scanned    int           `json:"scanned"`
	Recomputed int           `json:"recomputed"`
	Completed  int           `json:"completed"`
	Failed     int           `json:"failed"`
	Duration   time.Duration `json:"duration"`
}

// ResyncService recomputes enrollments whose cached progress lags their lesson progress.
type ResyncService interface {
	RunOnce(ctx context.Context, limit int) (ResyncReport, error)
}

type resyncService struct {
	log         *logger.Logger
	stale       StaleEnrollmentLister
	courses     CourseProgressService
	concurrency int
}

func NewResyncService(log *logger.Logger, stale StaleEnrollmentLister, courses CourseProgressService, concurrency int) ResyncService {
	if log == nil {
		log = logger.Nop()
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &resyncService{
		log:         log.With("service", "ResyncService"),
		stale:       stale,
		courses:     courses,
		concurrency: concurrency,
	}
}

// RunOnce processes one batch. Individual recompute failures are counted, not returned.
func (s *resyncService) RunOnce(ctx context.Context, limit int) (ResyncReport, error) {
	start := time.Now()
	rows, err := s.stale.ListStale(dbctx.New(ctx), limit)
	if err != nil {
		observability.Current().ObserveResync("error", 0)
		return ResyncReport{}, err
	}
	rep := ResyncReport{Scanned: len(rows)}

	var recomputed, completed, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, row := range rows {
		if row == nil {
			continue
		}
		row := row
		g.Go(func() error {
			res, err := s.courses.Recompute(gctx, row.UserID, row.CourseID)
			if err != nil {
				atomic.AddInt64(&failed, 1)
				s.log.Warn("Resync recompute failed",
					"user_id", row.UserID,
					"course_id", row.CourseID,
					"error", err,
				)
				return nil
			}
			atomic.AddInt64(&recomputed, 1)
			if res.JustCompleted {
				atomic.AddInt64(&completed, 1)
			}
			return nil
		})
	}
	_ = g.Wait()

	rep.Recomputed = int(recomputed)
	rep.Completed = int(completed)
	rep.Failed = int(failed)
	rep.Duration = time.Since(start)

	status := "ok"
	if rep.Failed > 0 {
		status = "partial"
	}
	observability.Current().ObserveResync(status, rep.Recomputed)
	if rep.Scanned > 0 {
		s.log.Info("Resync pass finished",
			"scanned", rep.Scanned,
			"recomputed", rep.Recomputed,
			"completed", rep.Completed,
			"failed", rep.Failed,
			"duration_ms", rep.Duration.Milliseconds(),
		)
	}
	return rep, ctx.Err()
}
