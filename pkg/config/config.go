package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config carries all runtime settings. Values come from the environment,
// optionally seeded from a .env file during local development.
type Config struct {
	Port string `envconfig:"PORT" default:"8080"`

	DBHost       string `envconfig:"DB_HOST" default:"localhost"`
	DBPort       string `envconfig:"DB_PORT" default:"5432"`
	DBUser       string `envconfig:"DB_USER" default:"retail_user"`
	DBPassword   string `envconfig:"DB_PASSWORD" default:"retail_password"`
	DBName       string `envconfig:"DB_NAME" default:"retail_backoffice_db"`
	DBSSLMode    string `envconfig:"DB_SSLMODE" default:"disable"`
	DBSchemaPath string `envconfig:"DB_SCHEMA_PATH" default:""`

	JWTSecret          string        `envconfig:"JWT_SECRET" default:"change-me-in-production"`
	AccessTokenTTL     time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL    time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	CORSAllowedOrigins string        `envconfig:"CORS_ALLOWED_ORIGINS" default:""`

	// AuditBrokers is a comma-separated Kafka broker list. Empty disables
	// the Kafka audit sink and falls back to log-only auditing.
	AuditBrokers string `envconfig:"AUDIT_BROKERS" default:""`
	AuditTopic   string `envconfig:"AUDIT_TOPIC" default:"backoffice-audit"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
