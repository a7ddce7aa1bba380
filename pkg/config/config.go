package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the portal
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Mail       MailConfig       `mapstructure:"mail"`
	MFA        MFAConfig        `mapstructure:"mfa"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Audit      AuditConfig      `mapstructure:"audit"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	LogLevel   string           `mapstructure:"log_level"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
	IdleTimeout  int    `mapstructure:"idle_timeout"`
	// BaseURL is used to build links embedded in verification emails.
	BaseURL string `mapstructure:"base_url"`
}

// DatabaseConfig holds database configuration. Driver selects between the
// embedded development database (sqlite3) and PostgreSQL for deployment.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // "sqlite3" or "postgres"
	Path            string `mapstructure:"path"`   // sqlite3 only
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	SecretKey       string `mapstructure:"secret_key"`
	AccessTokenTTL  int    `mapstructure:"access_token_ttl"`
	RefreshTokenTTL int    `mapstructure:"refresh_token_ttl"`
	Issuer          string `mapstructure:"issuer"`
}

// MailConfig holds outbound mail configuration
type MailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// MFAConfig holds multi-factor authentication configuration.
// DevelopmentMode accepts the static bypass code so local setups work
// without an authenticator app.
type MFAConfig struct {
	Issuer          string `mapstructure:"issuer"`
	DevelopmentMode bool   `mapstructure:"development_mode"`
}

// RateLimitConfig holds login rate limiting configuration
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	LoginAttempts int  `mapstructure:"login_attempts"`
	WindowSeconds int  `mapstructure:"window_seconds"`
}

// AuditConfig holds audit log configuration
type AuditConfig struct {
	RetentionDays int    `mapstructure:"retention_days"`
	PurgeSchedule string `mapstructure:"purge_schedule"` // cron expression
}

// MonitoringConfig holds the ops endpoint configuration
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Port        int    `mapstructure:"port"`
	MetricsPath string `mapstructure:"metrics_path"`
	HealthPath  string `mapstructure:"health_path"`
}

// Load loads configuration from config files and environment variables
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/hospital-portal")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	overrideWithEnv(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30)
	viper.SetDefault("server.write_timeout", 30)
	viper.SetDefault("server.idle_timeout", 120)
	viper.SetDefault("server.base_url", "http://localhost:8080")

	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.path", "portal.db")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "hospital_portal")
	viper.SetDefault("database.user", "portal")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 300)

	viper.SetDefault("jwt.access_token_ttl", 3600)   // 1 hour
	viper.SetDefault("jwt.refresh_token_ttl", 86400) // 24 hours
	viper.SetDefault("jwt.issuer", "hospital-portal")

	viper.SetDefault("mail.enabled", false)
	viper.SetDefault("mail.port", 587)
	viper.SetDefault("mail.from", "noreply@hospital.local")

	viper.SetDefault("mfa.issuer", "HospitalPortal")
	viper.SetDefault("mfa.development_mode", true)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.login_attempts", 5)
	viper.SetDefault("rate_limit.window_seconds", 900) // 15 minutes

	viper.SetDefault("audit.retention_days", 90)
	viper.SetDefault("audit.purge_schedule", "0 3 * * *") // daily at 03:00

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.port", 9090)
	viper.SetDefault("monitoring.metrics_path", "/metrics")
	viper.SetDefault("monitoring.health_path", "/health")

	viper.SetDefault("log_level", "info")
}

// overrideWithEnv overrides configuration with environment variables
func overrideWithEnv(config *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if driver := os.Getenv("DATABASE_DRIVER"); driver != "" {
		config.Database.Driver = driver
	}

	if path := os.Getenv("DATABASE_PATH"); path != "" {
		config.Database.Path = path
	}

	if jwtSecret := os.Getenv("JWT_SECRET_KEY"); jwtSecret != "" {
		config.JWT.SecretKey = jwtSecret
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.LogLevel = logLevel
	}
}

// validate validates the configuration
func validate(config *Config) error {
	if config.JWT.SecretKey == "" {
		return fmt.Errorf("JWT secret key is required")
	}

	switch config.Database.Driver {
	case "sqlite3":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite3")
		}
	case "postgres":
		if config.Database.Password == "" {
			return fmt.Errorf("database password is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", config.Database.Driver)
	}

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.RateLimit.Enabled && config.RateLimit.LoginAttempts <= 0 {
		return fmt.Errorf("rate limit login_attempts must be positive")
	}

	return nil
}
