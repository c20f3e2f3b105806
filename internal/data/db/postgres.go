package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type Config struct {
	Driver     string
	DSN        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// PostgresDSN renders the connection string, preferring an explicit DSN.
func (c Config) PostgresDSN() string {
	if dsn := strings.TrimSpace(c.DSN); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

type Service struct {
	db     *gorm.DB
	log    *logger.Logger
	driver string
}

// Open connects to Postgres, or to SQLite when Driver is "sqlite".
func Open(logg *logger.Logger, cfg Config) (*Service, error) {
	serviceLog := logg.With("service", "DatabaseService")

	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             1 * time.Second,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	gcfg := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLog,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	}

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		path := strings.TrimSpace(cfg.SQLitePath)
		if path == "" {
			path = "file:skillbharat.db?_foreign_keys=on"
		}
		dialector = sqlite.Open(path)
	case "", "postgres":
		driver = "postgres"
		dialector = postgres.Open(cfg.PostgresDSN())
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, gcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if driver == "sqlite" {
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		if cfg.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		}
	}

	serviceLog.Info("database connected", "driver", driver)
	return &Service{db: db, log: serviceLog, driver: driver}, nil
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
