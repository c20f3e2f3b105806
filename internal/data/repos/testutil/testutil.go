package testutil

import (
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	appdb "github.com/yungbote/skillbharat-backend/internal/data/db"
	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

var (
	pgOnce sync.Once
	pgDB   *gorm.DB
	pgErr  error

	logOnce sync.Once
	logg    *logger.Logger
	logErr  error
)

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	logOnce.Do(func() {
		logg, logErr = logger.New("test")
	})
	if logErr != nil {
		tb.Fatalf("failed to init logger: %v", logErr)
	}
	return logg
}

// DB returns a migrated database. TEST_POSTGRES_DSN selects a shared Postgres;
// otherwise each test gets its own in-memory SQLite.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()
	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		pgOnce.Do(func() {
			pgDB, pgErr = gorm.Open(postgres.Open(dsn), gormConfig())
			if pgErr != nil {
				return
			}
			pgErr = appdb.AutoMigrateAll(pgDB)
		})
		if pgErr != nil {
			tb.Fatalf("failed to init test db: %v", pgErr)
		}
		return pgDB
	}

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		tb.Skipf("sqlite unavailable (%v); set TEST_POSTGRES_DSN to run repo integration tests", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })
	if err := appdb.AutoMigrateAll(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

// Tx opens a rolled-back transaction on Postgres. SQLite databases are
// already private to the test, so the handle is returned as is.
func Tx(tb testing.TB, db *gorm.DB) *gorm.DB {
	tb.Helper()
	if IsSQLite(db) {
		return db
	}
	tx := db.Begin()
	if tx.Error != nil {
		tb.Fatalf("begin tx: %v", tx.Error)
	}
	tb.Cleanup(func() {
		_ = tx.Rollback().Error
	})
	return tx
}

func IsSQLite(db *gorm.DB) bool {
	return db != nil && db.Dialector != nil && db.Dialector.Name() == "sqlite"
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   gormLogger.Default.LogMode(gormLogger.Silent),
	}
}
