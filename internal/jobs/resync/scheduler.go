// Package resync runs the periodic enrollment progress reconciliation.
package resync

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

const DefaultSchedule = "@every 15m"

type Config struct {
	Schedule  string
	BatchSize int
	Timeout   time.Duration
}

type Scheduler struct {
	log  *logger.Logger
	svc  services.ResyncService
	cfg  Config
	cron *cron.Cron

	mu      sync.Mutex
	entry   cron.EntryID
	started bool
	last    services.ResyncReport
	lastErr error
}

func NewScheduler(log *logger.Logger, svc services.ResyncService, cfg Config) *Scheduler {
	if log == nil {
		log = logger.Nop()
	}
	if strings.TrimSpace(cfg.Schedule) == "" {
		cfg.Schedule = DefaultSchedule
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	l := log.With("job", "ResyncScheduler")
	cl := cronLogger{log: l}
	return &Scheduler{
		log: l,
		svc: svc,
		cfg: cfg,
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
}

// Start registers the pass and starts the cron loop; it stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}
	id, err := s.cron.AddFunc(s.cfg.Schedule, func() { s.RunNow(ctx) })
	if err != nil {
		return fmt.Errorf("resync schedule %q: %w", s.cfg.Schedule, err)
	}
	s.entry = id
	s.started = true
	s.cron.Start()
	s.log.Info("Resync scheduler started", "schedule", s.cfg.Schedule, "batch_size", s.cfg.BatchSize)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.log.Info("Resync scheduler stopped")
}

// RunNow executes one bounded pass synchronously.
func (s *Scheduler) RunNow(ctx context.Context) (services.ResyncReport, error) {
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	rep, err := s.svc.RunOnce(runCtx, s.cfg.BatchSize)
	if err != nil {
		s.log.Warn("Resync pass failed", "error", err)
	}
	s.mu.Lock()
	s.last, s.lastErr = rep, err
	s.mu.Unlock()
	return rep, err
}

func (s *Scheduler) LastRun() (services.ResyncReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

// NextRun is the zero time before Start.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

type cronLogger struct{ log *logger.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.log.Debug(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.log.Error(msg, append(keysAndValues, "error", err)...)
}
