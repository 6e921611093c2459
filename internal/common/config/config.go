// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Catalog       CatalogConfig      `mapstructure:"catalog"`
	AntiGaming    AntiGamingConfig   `mapstructure:"anti_gaming"`
	Evaluation    EvaluationConfig   `mapstructure:"evaluation"`
	Payment       PaymentConfig      `mapstructure:"payment"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the HTTP boundary settings.
type ServerConfig struct {
	Address         string   `mapstructure:"address"`
	ReadTimeout     int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int      `mapstructure:"write_timeout"`    // milliseconds
	RequestTimeout  int      `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// CatalogConfig points at the question catalog file. An empty path selects
// the embedded default catalog.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// AntiGamingConfig holds the submission guard thresholds.
type AntiGamingConfig struct {
	MinDwellTime   int    `mapstructure:"min_dwell_time"` // milliseconds
	HoneypotField  string `mapstructure:"honeypot_field"`
	MaxSubmissions int    `mapstructure:"max_submissions"`
	// MaxPerOrigin caps submissions per client IP; negative disables it.
	MaxPerOrigin   int    `mapstructure:"max_submissions_per_origin"`
	Window         int    `mapstructure:"window"` // milliseconds
	Store          string `mapstructure:"store"`  // "memory" or "redis"
	MemoryCapacity int    `mapstructure:"memory_capacity"`
	ContentChecks  bool   `mapstructure:"content_checks"`
}

// EvaluationConfig selects the evaluation store backend.
type EvaluationConfig struct {
	Store string `mapstructure:"store"` // "memory" or "postgres"
}

// PaymentConfig configures the premium unlock price and provider.
type PaymentConfig struct {
	Provider    string `mapstructure:"provider"` // only "mock" is built in
	AmountCents int64  `mapstructure:"amount_cents"`
	Currency    string `mapstructure:"currency"`
	// AllowMock must be set for the mock provider to run in production.
	AllowMock bool `mapstructure:"allow_mock"`
}

// NotificationConfig holds settings for evaluation event notifications.
type NotificationConfig struct {
	AWS struct {
		Region   string `mapstructure:"region"`
		Endpoint string `mapstructure:"endpoint"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	Email struct {
		Enabled    bool     `mapstructure:"enabled"`
		FromEmail  string   `mapstructure:"from_email"`
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"email"`
}
