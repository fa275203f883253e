package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	History  HistoryConfig
	Exports  ExportsConfig
	Imports  ImportsConfig
	Bulk     BulkConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds the shared secret used to verify tokens issued by the identity service.
type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// HistoryConfig tunes the draw history listing.
type HistoryConfig struct {
	CacheTTL        time.Duration
	ViewStateTTL    time.Duration
	DefaultPageSize int
	MaxPageSize     int
	TimeZone        string
}

// Location resolves the viewer time zone used for calendar dates.
func (h HistoryConfig) Location() *time.Location {
	if h.TimeZone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(h.TimeZone)
	if err != nil {
		return time.Local
	}
	return loc
}

// ExportsConfig configures asynchronous history exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ImportsConfig bounds customer file uploads.
type ImportsConfig struct {
	MaxFileSizeBytes int64
	RatePerMinute    int
	Burst            int
}

// BulkConfig bounds fan-out of bulk customer operations.
type BulkConfig struct {
	Concurrency   int
	RatePerMinute int
	Burst         int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.History = HistoryConfig{
		CacheTTL:        parseDuration(v.GetString("HISTORY_CACHE_TTL"), time.Minute),
		ViewStateTTL:    parseDuration(v.GetString("HISTORY_VIEW_STATE_TTL"), 12*time.Hour),
		DefaultPageSize: positive(v.GetInt("HISTORY_DEFAULT_PAGE_SIZE"), 10),
		MaxPageSize:     positive(v.GetInt("HISTORY_MAX_PAGE_SIZE"), 200),
		TimeZone:        v.GetString("HISTORY_TIME_ZONE"),
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: positive(v.GetInt("EXPORTS_WORKER_CONCURRENCY"), 1),
		WorkerRetries:     positive(v.GetInt("EXPORTS_WORKER_RETRIES"), 3),
	}

	cfg.Imports = ImportsConfig{
		MaxFileSizeBytes: v.GetInt64("IMPORTS_MAX_FILE_SIZE"),
		RatePerMinute:    positive(v.GetInt("IMPORTS_RATE_PER_MINUTE"), 30),
		Burst:            positive(v.GetInt("IMPORTS_BURST"), 5),
	}
	if cfg.Imports.MaxFileSizeBytes <= 0 {
		cfg.Imports.MaxFileSizeBytes = 5 * 1024 * 1024
	}

	cfg.Bulk = BulkConfig{
		Concurrency:   positive(v.GetInt("BULK_CONCURRENCY"), 8),
		RatePerMinute: positive(v.GetInt("BULK_RATE_PER_MINUTE"), 10),
		Burst:         positive(v.GetInt("BULK_BURST"), 2),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "luckydraw")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("HISTORY_CACHE_TTL", "1m")
	v.SetDefault("HISTORY_VIEW_STATE_TTL", "12h")
	v.SetDefault("HISTORY_DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("HISTORY_MAX_PAGE_SIZE", 200)
	v.SetDefault("HISTORY_TIME_ZONE", "Asia/Ho_Chi_Minh")

	v.SetDefault("ENABLE_EXPORTS", true)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)

	v.SetDefault("IMPORTS_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("IMPORTS_RATE_PER_MINUTE", 30)
	v.SetDefault("IMPORTS_BURST", 5)

	v.SetDefault("BULK_CONCURRENCY", 8)
	v.SetDefault("BULK_RATE_PER_MINUTE", 10)
	v.SetDefault("BULK_BURST", 2)
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func positive(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
