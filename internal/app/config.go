package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/yungbote/skillbharat-backend/internal/platform/logger"
)

type Config struct {
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME" env-default:"skillbharat-backend"`
	Environment string `yaml:"environment" env:"APP_ENV" env-default:"development"`
	LogMode     string `yaml:"log_mode" env:"LOG_MODE" env-default:"development"`

	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	Redis       RedisConfig       `yaml:"redis"`
	Auth        AuthConfig        `yaml:"auth"`
	Resync      ResyncConfig      `yaml:"resync"`
	Certificate CertificateConfig `yaml:"certificate"`
	Notify      NotifyConfig      `yaml:"notify"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

type HTTPConfig struct {
	Addr         string        `yaml:"addr" env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"0s"`
	AllowOrigins []string      `yaml:"allow_origins" env:"CORS_ALLOW_ORIGINS" env-separator:","`
}

type DatabaseConfig struct {
	Driver          string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DSN             string        `yaml:"dsn" env:"DATABASE_URL"`
	Host            string        `yaml:"host" env:"POSTGRES_HOST" env-default:"localhost"`
	Port            string        `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User            string        `yaml:"user" env:"POSTGRES_USER" env-default:"postgres"`
	Password        string        `yaml:"password" env:"POSTGRES_PASSWORD"`
	Name            string        `yaml:"name" env:"POSTGRES_NAME" env-default:"skillbharat"`
	SQLitePath      string        `yaml:"sqlite_path" env:"SQLITE_PATH"`
	MaxOpenConns    int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"20"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	AutoMigrate     bool          `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
}

type RedisConfig struct {
	// Addr empty keeps SSE fan-out in-process.
	Addr    string `yaml:"addr" env:"REDIS_ADDR"`
	Channel string `yaml:"channel" env:"REDIS_SSE_CHANNEL" env-default:"skillbharat:sse"`
}

type AuthConfig struct {
	JWTSecretKey   string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"1h"`
}

type ResyncConfig struct {
	Enabled     bool          `yaml:"enabled" env:"RESYNC_ENABLED" env-default:"true"`
	Schedule    string        `yaml:"schedule" env:"RESYNC_SCHEDULE" env-default:"@every 15m"`
	BatchSize   int           `yaml:"batch_size" env:"RESYNC_BATCH_SIZE" env-default:"100"`
	Concurrency int           `yaml:"concurrency" env:"RESYNC_CONCURRENCY" env-default:"4"`
	Timeout     time.Duration `yaml:"timeout" env:"RESYNC_TIMEOUT" env-default:"5m"`
}

type CertificateConfig struct {
	TemplatesPath string `yaml:"templates_path" env:"CERTIFICATE_TEMPLATES_PATH"`
	Issuer        string `yaml:"issuer" env:"CERTIFICATE_ISSUER" env-default:"Skill Bharat"`
}

type NotifyConfig struct {
	EmailEnabled      bool          `yaml:"email_enabled" env:"NOTIFY_EMAIL_ENABLED" env-default:"false"`
	WebhookURL        string        `yaml:"webhook_url" env:"NOTIFY_WEBHOOK_URL"`
	WebhookTimeout    time.Duration `yaml:"webhook_timeout" env:"NOTIFY_WEBHOOK_TIMEOUT" env-default:"5s"`
	WebhookMaxRetries int           `yaml:"webhook_max_retries" env:"NOTIFY_WEBHOOK_MAX_RETRIES" env-default:"2"`
}

type MetricsConfig struct {
	// Addr non-empty serves /metrics on a dedicated listener as well.
	Addr string `yaml:"addr" env:"METRICS_ADDR"`
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string  `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	Insecure    bool    `yaml:"insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"false"`
	Headers     string  `yaml:"headers" env:"OTEL_EXPORTER_OTLP_HEADERS"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLER_RATIO" env-default:"0.1"`
	Version     string  `yaml:"version" env:"SERVICE_VERSION"`
}

// LoadConfig reads .env (when present), then CONFIG_PATH (when set), then the process env.
func LoadConfig(log *logger.Logger) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("failed to load .env", "error", err)
	}

	var cfg Config
	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	switch strings.ToLower(strings.TrimSpace(c.Database.Driver)) {
	case "", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Resync.BatchSize < 0 || c.Resync.Concurrency < 0 {
		return fmt.Errorf("resync batch size and concurrency must be non-negative")
	}
	return nil
}
