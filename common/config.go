package common

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MinSessionSecretLength is the shortest accepted SESSION_SECRET.
const MinSessionSecretLength = 32

type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	SiteURL  string `env:"SITE_URL" envDefault:"http://localhost:8080"`

	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/portfolio.db"`

	SessionSecret string `env:"SESSION_SECRET,required"`
	SessionName   string `env:"SESSION_NAME" envDefault:"portfolio-session"`
	SessionMaxAge int    `env:"SESSION_MAX_AGE" envDefault:"604800"`
	CookieSecure  bool   `env:"COOKIE_SECURE" envDefault:"false"`

	// Seeded on startup when no user with this name exists.
	AdminUsername string `env:"ADMIN_USERNAME" envDefault:"admin"`
	AdminPassword string `env:"ADMIN_PASSWORD"`

	UploadsDir     string `env:"UPLOADS_DIR" envDefault:"./uploads"`
	UploadMaxBytes int64  `env:"UPLOAD_MAX_BYTES" envDefault:"10485760"`
	UploadMaxWidth int    `env:"UPLOAD_MAX_WIDTH" envDefault:"1920"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"local"`
	S3Region      string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Bucket      string `env:"S3_BUCKET"`
	S3AccessKey   string `env:"S3_ACCESS_KEY"`
	S3SecretKey   string `env:"S3_SECRET_KEY"`
	S3Endpoint    string `env:"S3_ENDPOINT"`

	CacheTTL    time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	RedisURL    string        `env:"REDIS_URL"`
	CachePrefix string        `env:"CACHE_PREFIX" envDefault:"portfolio:"`

	ResendAPIKey     string `env:"RESEND_API_KEY"`
	ResendAudienceID string `env:"RESEND_AUDIENCE_ID"`
	EmailFrom        string `env:"EMAIL_FROM" envDefault:"noreply@example.com"`
	ContactEmail     string `env:"CONTACT_EMAIL"`

	SentryDSN string `env:"SENTRY_DSN"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"0.5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"5"`
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if len(cfg.SessionSecret) < MinSessionSecretLength {
		return nil, fmt.Errorf("SESSION_SECRET must be at least %d bytes long, got %d",
			MinSessionSecretLength, len(cfg.SessionSecret))
	}

	if cfg.StorageDriver != "local" && cfg.StorageDriver != "s3" {
		return nil, fmt.Errorf("STORAGE_DRIVER must be local or s3, got %q", cfg.StorageDriver)
	}

	if cfg.StorageDriver == "s3" && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) UseRedisCache() bool {
	return c.RedisURL != ""
}
