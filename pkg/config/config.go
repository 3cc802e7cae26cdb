// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the typed application configuration.
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Profiling     ProfilingConfig
	Observability ObservabilityConfig
	Import        ImportConfig
	Conversion    ConversionConfig
	Log           LogConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	AllowedOrigins     []string
	RateLimitPerSecond int
	RateLimitBurst     int
	MaxUploadBytes     int64
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	// URL takes precedence over the discrete fields when set.
	URL string

	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DSN returns the connection string for pgx.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type ProfilingConfig struct {
	Enabled bool
	Port    int
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	ServiceName    string
}

type ImportConfig struct {
	// AllowedTables lists the tables spreadsheets may be loaded into.
	AllowedTables []string
	BatchSize     int
	ProgressTTL   time.Duration
}

type ConversionConfig struct {
	// TablesPath optionally points at a YAML file overriding the built-in rate tables.
	TablesPath string
}

type LogConfig struct {
	Level  slog.Level
	Format string
}

// Load reads the configuration from the process environment. Callers load .env first.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "0.0.0.0"),
			Port:               getEnvInt("SERVER_PORT", 3001),
			AllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitPerSecond: getEnvInt("RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
			MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 50<<20)),
			ShutdownTimeout:    getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "backoffice"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        int32(getEnvInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime: getEnvDuration("DB_MAX_CONN_IDLE_TIME", 10*time.Minute),
		},
		Profiling: ProfilingConfig{
			Enabled: getEnvBool("PPROF_ENABLED", false),
			Port:    getEnvInt("PPROF_PORT", 6060),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvBool("METRICS_ENABLED", true),
			ServiceName:    getEnv("SERVICE_NAME", "backoffice-ingest"),
		},
		Import: ImportConfig{
			AllowedTables: getEnvList("IMPORT_ALLOWED_TABLES", []string{"aclaraciones"}),
			BatchSize:     getEnvInt("IMPORT_BATCH_SIZE", 500),
			ProgressTTL:   getEnvDuration("IMPORT_PROGRESS_TTL", time.Hour),
		},
		Conversion: ConversionConfig{
			TablesPath: getEnv("CONVERSION_TABLES_PATH", ""),
		},
		Log: LogConfig{
			Level:  parseLevel(getEnv("LOG_LEVEL", "info")),
			Format: strings.ToLower(getEnv("LOG_FORMAT", "json")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid SERVER_PORT %d", c.Server.Port)
	}
	if c.Database.URL == "" && c.Database.Name == "" {
		return fmt.Errorf("DATABASE_URL or DB_NAME is required")
	}
	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("IMPORT_BATCH_SIZE must be positive, got %d", c.Import.BatchSize)
	}
	if len(c.Import.AllowedTables) == 0 {
		return fmt.Errorf("IMPORT_ALLOWED_TABLES must name at least one table")
	}
	return nil
}

// NewLogger builds the process logger described by c.
func (c LogConfig) NewLogger() *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level}
	if c.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("invalid boolean in environment, using default", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", slog.String("key", key), slog.String("value", v))
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
