package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/skillbharat-backend/internal/data/db"
	apphttp "github.com/yungbote/skillbharat-backend/internal/http"
	"github.com/yungbote/skillbharat-backend/internal/jobs/resync"
	"github.com/yungbote/skillbharat-backend/internal/observability"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
	"github.com/yungbote/skillbharat-backend/internal/realtime"
	"github.com/yungbote/skillbharat-backend/internal/realtime/bus"
	"github.com/yungbote/skillbharat-backend/internal/services"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Bus      bus.Bus
	Metrics  *observability.Metrics
	Resync   *resync.Scheduler

	dbService    *db.Service
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	cfg, err := loadConfigWithLogger()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(log, cfg)
}

// NewWithConfig wires the full application graph from an already-loaded config.
func NewWithConfig(log *logger.Logger, cfg Config) (*App, error) {
	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
		Version:     cfg.Tracing.Version,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		Headers:     observability.ParseHeaders(cfg.Tracing.Headers),
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	metrics := observability.Init(log)

	dbService, err := db.Open(log, db.Config{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		Name:            cfg.Database.Name,
		SQLitePath:      cfg.Database.SQLitePath,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := dbService.AutoMigrateAll(); err != nil {
			_ = dbService.Close()
			log.Sync()
			return nil, fmt.Errorf("automigrate: %w", err)
		}
	}
	theDB := dbService.DB()

	ssehub := realtime.NewSSEHub(log)
	sseBus, err := wireBus(log, cfg.Redis, ssehub)
	if err != nil {
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	reposet := wireRepos(theDB, log)

	serviceset, err := wireServices(theDB, log, cfg, reposet, &services.BusEmitter{Bus: sseBus}, metrics)
	if err != nil {
		_ = sseBus.Close()
		_ = dbService.Close()
		log.Sync()
		return nil, err
	}

	handlerset := wireHandlers(log, theDB, serviceset, ssehub)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, metrics, handlerset, middleware)

	var scheduler *resync.Scheduler
	if cfg.Resync.Enabled {
		scheduler = resync.NewScheduler(log, serviceset.Resync, resync.Config{
			Schedule:  cfg.Resync.Schedule,
			BatchSize: cfg.Resync.BatchSize,
			Timeout:   cfg.Resync.Timeout,
		})
	}

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       ssehub,
		Bus:          sseBus,
		Metrics:      metrics,
		Resync:       scheduler,
		dbService:    dbService,
		otelShutdown: otelShutdown,
	}, nil
}

func wireBus(log *logger.Logger, cfg RedisConfig, hub *realtime.SSEHub) (bus.Bus, error) {
	if cfg.Addr == "" {
		log.Info("SSE fan-out is in-process")
		return bus.Local{Hub: hub}, nil
	}
	b, err := bus.NewRedisBus(log, bus.RedisConfig{Addr: cfg.Addr, Channel: cfg.Channel})
	if err != nil {
		return nil, fmt.Errorf("init redis bus: %w", err)
	}
	return b, nil
}

// Start launches background work: the SSE forwarder, metrics collectors and the resync scheduler.
func (a *App) Start(ctx context.Context) error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if err := a.Bus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
		return fmt.Errorf("start SSE forwarder: %w", err)
	}
	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if rdb := bus.Client(a.Bus); rdb != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, rdb)
		}
		if a.Cfg.Metrics.Addr != "" {
			a.Metrics.StartServer(ctx, a.Log, a.Cfg.Metrics.Addr)
		}
	}
	if a.Resync != nil {
		if err := a.Resync.Start(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	srv := apphttp.NewServer(a.Router, apphttp.ServerConfig{
		Addr:         a.Cfg.HTTP.Addr,
		ReadTimeout:  a.Cfg.HTTP.ReadTimeout,
		WriteTimeout: a.Cfg.HTTP.WriteTimeout,
	})
	a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTP.Addr)
	return srv.Run(ctx)
}

func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Resync != nil {
		a.Resync.Stop()
	}
	// Completion emails and webhooks read the DB; let them finish first.
	a.Services.Notifier.Wait()
	var errs []error
	if a.Bus != nil {
		errs = append(errs, a.Bus.Close())
	}
	if a.otelShutdown != nil {
		errs = append(errs, a.otelShutdown(context.Background()))
	}
	if a.dbService != nil {
		errs = append(errs, a.dbService.Close())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}

func loadConfigWithLogger() (Config, error) {
	bootLog, err := logger.New("development")
	if err != nil {
		return Config{}, fmt.Errorf("init logger: %w", err)
	}
	defer bootLog.Sync()
	bootLog.Info("Loading configuration...")
	return LoadConfig(bootLog)
}
