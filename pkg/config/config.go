package config

import (
	"errors"
	"fmt"
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

// Scan gate backends.
const (
	GateMemory = "memory"
	GateRedis  = "redis"
)

// Enrollment tie-break policies.
const (
	TieBreakLowestID      = "lowest_id"
	TieBreakEarliestStart = "earliest_start"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Location  *time.Location

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Credential   CredentialConfig
	Scanner      ScannerConfig
	Resolver     ResolverConfig
	SessionCache SessionCacheConfig
	Controller   ControllerConfig
	Exports      ExportsConfig
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

// CredentialConfig tunes badge rotation. Validity always equals the rotation period.
type CredentialConfig struct {
	RotationPeriod time.Duration
	QRSize         int
}

// ScannerConfig governs the per-device debounce.
type ScannerConfig struct {
	Cooldown      time.Duration
	Gate          string
	ProcessingTTL time.Duration
}

// ResolverConfig selects how overlapping enrollments are disambiguated.
type ResolverConfig struct {
	TieBreak string
}

// SessionCacheConfig toggles the Redis read-through cache for lab sessions.
type SessionCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// ControllerConfig points at the door controller. BaseURL has no default on purpose.
type ControllerConfig struct {
	Enabled    bool
	BaseURL    string
	GrantToken string
	DenyToken  string
	Timeout    time.Duration
}

// ExportsConfig configures asynchronous attendance exports.
type ExportsConfig struct {
	Enabled           bool
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	loc, err := time.LoadLocation(v.GetString("TIMEZONE"))
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}
	cfg.Location = loc

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

	cfg.Credential = CredentialConfig{
		RotationPeriod: parseDuration(v.GetString("CREDENTIAL_ROTATION_PERIOD"), 60*time.Second),
		QRSize:         v.GetInt("CREDENTIAL_QR_SIZE"),
	}
	if cfg.Credential.RotationPeriod <= 0 {
		return nil, fmt.Errorf("CREDENTIAL_ROTATION_PERIOD must be positive")
	}
	if cfg.Credential.QRSize <= 0 {
		cfg.Credential.QRSize = 256
	}

	cfg.Scanner = ScannerConfig{
		Cooldown:      parseDuration(v.GetString("SCANNER_COOLDOWN"), 2500*time.Millisecond),
		Gate:          strings.ToLower(v.GetString("SCANNER_GATE")),
		ProcessingTTL: parseDuration(v.GetString("SCANNER_PROCESSING_TTL"), 30*time.Second),
	}
	if cfg.Scanner.Gate != GateMemory && cfg.Scanner.Gate != GateRedis {
		return nil, fmt.Errorf("unsupported SCANNER_GATE %q", cfg.Scanner.Gate)
	}

	cfg.Resolver = ResolverConfig{TieBreak: strings.ToLower(v.GetString("RESOLVER_TIE_BREAK"))}
	if cfg.Resolver.TieBreak != TieBreakLowestID && cfg.Resolver.TieBreak != TieBreakEarliestStart {
		return nil, fmt.Errorf("unsupported RESOLVER_TIE_BREAK %q", cfg.Resolver.TieBreak)
	}

	cfg.SessionCache = SessionCacheConfig{
		Enabled: v.GetBool("SESSION_CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("SESSION_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Controller = ControllerConfig{
		Enabled:    v.GetBool("CONTROLLER_ENABLED"),
		BaseURL:    strings.TrimRight(strings.TrimSpace(v.GetString("CONTROLLER_BASE_URL")), "/"),
		GrantToken: v.GetString("CONTROLLER_GRANT_TOKEN"),
		DenyToken:  v.GetString("CONTROLLER_DENY_TOKEN"),
		Timeout:    parseDuration(v.GetString("CONTROLLER_TIMEOUT"), 5*time.Second),
	}
	if cfg.Controller.Enabled && cfg.Controller.BaseURL == "" {
		return nil, fmt.Errorf("CONTROLLER_BASE_URL is required when CONTROLLER_ENABLED is set")
	}

	cfg.Exports = ExportsConfig{
		Enabled:           v.GetBool("ENABLE_EXPORTS"),
		StorageDir:        v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("EXPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("EXPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "UTC")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "labgate")
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

	v.SetDefault("CREDENTIAL_ROTATION_PERIOD", "60s")
	v.SetDefault("CREDENTIAL_QR_SIZE", 256)

	v.SetDefault("SCANNER_COOLDOWN", "2500ms")
	v.SetDefault("SCANNER_GATE", GateMemory)
	v.SetDefault("SCANNER_PROCESSING_TTL", "30s")

	v.SetDefault("RESOLVER_TIE_BREAK", TieBreakLowestID)

	v.SetDefault("SESSION_CACHE_ENABLED", false)
	v.SetDefault("SESSION_CACHE_TTL", "5m")

	v.SetDefault("CONTROLLER_ENABLED", false)
	v.SetDefault("CONTROLLER_BASE_URL", "")
	v.SetDefault("CONTROLLER_GRANT_TOKEN", "VALID")
	v.SetDefault("CONTROLLER_DENY_TOKEN", "INVALID")
	v.SetDefault("CONTROLLER_TIMEOUT", "5s")

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("EXPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("EXPORTS_WORKER_RETRIES", 3)
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
