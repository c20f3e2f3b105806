package observability

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/skillbharat-backend/internal/platform/envutil"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

const namespace = "sb"

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	aggregateOps       *prometheus.CounterVec
	aggregateLatency   *prometheus.HistogramVec
	aggregateConflicts *prometheus.CounterVec
	aggregateRetries   *prometheus.CounterVec

	lessonWrites     *prometheus.CounterVec
	courseCompleted  prometheus.Counter
	snapshotProgress prometheus.Histogram
	notifications    *prometheus.CounterVec
	resyncRuns       *prometheus.CounterVec
	resyncEnrollment prometheus.Counter

	dbStats   *prometheus.GaugeVec
	redisUp   prometheus.Gauge
	redisPing prometheus.Gauge
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	return envutil.Bool("METRICS_ENABLED", false)
}

func Current() *Metrics {
	return instance
}

func scrapeInterval() time.Duration {
	d := envutil.Duration("METRICS_SCRAPE_INTERVAL_SECONDS", 10*time.Second)
	if d <= 0 {
		return 10 * time.Second
	}
	return d
}

// Init builds the process-wide metrics once. It returns nil when metrics are disabled.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New(prometheus.NewRegistry())
		if log != nil {
			log.Info("metrics initialized")
		}
	})
	return instance
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		registry: reg,
		apiRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "API request latency in seconds by method/route/status.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route", "status"}),
		apiInflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_inflight_requests",
			Help:      "In-flight API requests.",
		}),
		aggregateOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_operations_total",
			Help:      "Aggregate write operations by name/status.",
		}, []string{"aggregate_op", "status"}),
		aggregateLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregate_operation_duration_seconds",
			Help:      "Aggregate write latency in seconds.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"aggregate_op", "status"}),
		aggregateConflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_conflicts_total",
			Help:      "Aggregate writes rejected as conflicts.",
		}, []string{"aggregate_op"}),
		aggregateRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aggregate_retryable_total",
			Help:      "Aggregate writes that failed with a retryable error.",
		}, []string{"aggregate_op"}),
		lessonWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lesson_progress_writes_total",
			Help:      "Lesson progress writes by kind.",
		}, []string{"kind"}),
		courseCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "course_completions_total",
			Help:      "Enrollments transitioned to completed.",
		}),
		snapshotProgress: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "course_snapshot_overall_progress",
			Help:      "Overall progress of recomputed course snapshots.",
			Buckets:   []float64{0, 10, 25, 50, 75, 90, 99, 100},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Progress notifications by channel/status.",
		}, []string{"channel", "status"}),
		resyncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resync_runs_total",
			Help:      "Enrollment reconciliation passes by status.",
		}, []string{"status"}),
		resyncEnrollment: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resync_enrollments_total",
			Help:      "Enrollments recomputed by the reconciler.",
		}),
		dbStats: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool",
			Help:      "database/sql pool statistics.",
		}, []string{"stat"}),
		redisUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_up",
			Help:      "Whether the last redis ping succeeded.",
		}),
		redisPing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "redis_ping_seconds",
			Help:      "Latency of the last redis ping.",
		}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.apiRequests, m.apiLatency, m.apiInflight,
		m.aggregateOps, m.aggregateLatency, m.aggregateConflicts, m.aggregateRetries,
		m.lessonWrites, m.courseCompleted, m.snapshotProgress, m.notifications,
		m.resyncRuns, m.resyncEnrollment,
		m.dbStats, m.redisUp, m.redisPing,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) StartServer(ctx context.Context, log *logger.Logger, addr string) {
	if m == nil {
		return
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = srv.Shutdown(shutdownCtx)
		cancel()
	}()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if log != nil {
				log.Error("metrics server failed", "error", err, "addr", addr)
			}
		}
	}()
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unknown"
	}
	m.apiRequests.WithLabelValues(method, route, status).Inc()
	m.apiLatency.WithLabelValues(method, route, status).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveAggregateOperation(name, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.aggregateOps.WithLabelValues(name, status).Inc()
	m.aggregateLatency.WithLabelValues(name, status).Observe(dur.Seconds())
}

func (m *Metrics) IncAggregateConflict(name string) {
	if m == nil {
		return
	}
	m.aggregateConflicts.WithLabelValues(name).Inc()
}

func (m *Metrics) IncAggregateRetry(name string) {
	if m == nil {
		return
	}
	m.aggregateRetries.WithLabelValues(name).Inc()
}

// IncLessonProgressWrite counts tracker writes; kind is update, complete, time or percentage.
func (m *Metrics) IncLessonProgressWrite(kind string) {
	if m == nil {
		return
	}
	m.lessonWrites.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCourseCompleted() {
	if m == nil {
		return
	}
	m.courseCompleted.Inc()
}

func (m *Metrics) ObserveSnapshot(overallProgress int) {
	if m == nil {
		return
	}
	m.snapshotProgress.Observe(float64(overallProgress))
}

func (m *Metrics) IncNotification(channel, status string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(channel, status).Inc()
}

func (m *Metrics) ObserveResync(status string, recomputed int) {
	if m == nil {
		return
	}
	m.resyncRuns.WithLabelValues(status).Inc()
	if recomputed > 0 {
		m.resyncEnrollment.Add(float64(recomputed))
	}
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: db stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.dbStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.dbStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.dbStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.dbStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.dbStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
				m.dbStats.WithLabelValues("max_open_connections").Set(float64(stats.MaxOpenConnections))
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb redis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	interval := scrapeInterval()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.Set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.Set(1)
				m.redisPing.Set(time.Since(start).Seconds())
			}
		}
	}()
}
