package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Notifier drivers understood by the notification dispatcher.
const (
	NotifierLog   = "log"
	NotifierRedis = "redis"
	NotifierAsynq = "asynq"
)

type Config struct {
	Env            string
	Port           int
	APIPrefix      string
	RequestTimeout time.Duration

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Log           LogConfig
	Workflow      WorkflowConfig
	Notifications NotificationConfig
	Artifacts     ArtifactConfig
	Cache         CacheConfig
	Idempotency   IdempotencyConfig
	Security      SecurityConfig
	CORS          CORSConfig
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
	AutoMigrate  bool
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Issuer     string
	Expiration time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// WorkflowConfig tunes the bill routing policy.
type WorkflowConfig struct {
	Threshold decimal.Decimal
}

// NotificationConfig selects the notifier driver and its worker pool.
type NotificationConfig struct {
	Driver       string
	RedisChannel string
	AsynqQueue   string
	Workers      int
	MaxRetries   int
	RetryDelay   time.Duration
}

// ArtifactConfig controls the per-bill HTML/PDF artifacts.
type ArtifactConfig struct {
	Enabled         bool
	StorageDir      string
	PublicBaseURL   string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	Workers         int
}

// CacheConfig governs the Redis read cache for bill details.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// IdempotencyConfig governs duplicate submission protection.
type IdempotencyConfig struct {
	Enabled bool
	TTL     time.Duration
}

type SecurityConfig struct {
	AllowedHosts []string
	SSLRedirect  bool
}

type CORSConfig struct {
	AllowedOrigins []string
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
	cfg.RequestTimeout = parseDuration(v.GetString("REQUEST_TIMEOUT"), 10*time.Second)

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		AutoMigrate:  v.GetBool("DB_AUTO_MIGRATE"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Issuer:     v.GetString("JWT_ISSUER"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Workflow = WorkflowConfig{
		Threshold: parseDecimal(v.GetString("WORKFLOW_THRESHOLD"), decimal.NewFromInt(50000)),
	}

	cfg.Notifications = NotificationConfig{
		Driver:       strings.ToLower(v.GetString("NOTIFY_DRIVER")),
		RedisChannel: v.GetString("NOTIFY_REDIS_CHANNEL"),
		AsynqQueue:   v.GetString("NOTIFY_ASYNQ_QUEUE"),
		Workers:      v.GetInt("NOTIFY_WORKERS"),
		MaxRetries:   v.GetInt("NOTIFY_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("NOTIFY_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Artifacts = ArtifactConfig{
		Enabled:         v.GetBool("ENABLE_ARTIFACTS"),
		StorageDir:      v.GetString("ARTIFACTS_STORAGE_DIR"),
		PublicBaseURL:   strings.TrimRight(v.GetString("ARTIFACTS_PUBLIC_BASE_URL"), "/"),
		SignedURLSecret: v.GetString("ARTIFACTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("ARTIFACTS_SIGNED_URL_TTL"), 30*time.Minute),
		Workers:         v.GetInt("ARTIFACTS_WORKERS"),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("ENABLE_BILL_CACHE"),
		TTL:     parseDuration(v.GetString("BILL_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Idempotency = IdempotencyConfig{
		Enabled: v.GetBool("ENABLE_IDEMPOTENCY"),
		TTL:     parseDuration(v.GetString("IDEMPOTENCY_TTL"), 24*time.Hour),
	}

	cfg.Security = SecurityConfig{
		AllowedHosts: splitAndTrim(v.GetString("ALLOWED_HOSTS")),
		SSLRedirect:  v.GetBool("SSL_REDIRECT"),
	}

	cfg.CORS = CORSConfig{
		AllowedOrigins: splitAndTrim(v.GetString("CORS_ALLOWED_ORIGINS")),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("REQUEST_TIMEOUT", "10s")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "pda_bills")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "pda-bills-api")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("WORKFLOW_THRESHOLD", "50000")

	v.SetDefault("NOTIFY_DRIVER", NotifierLog)
	v.SetDefault("NOTIFY_REDIS_CHANNEL", "bills:remarks")
	v.SetDefault("NOTIFY_ASYNQ_QUEUE", "mail")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)
	v.SetDefault("NOTIFY_RETRY_DELAY", "2s")

	v.SetDefault("ENABLE_ARTIFACTS", false)
	v.SetDefault("ARTIFACTS_STORAGE_DIR", "./artifacts")
	v.SetDefault("ARTIFACTS_PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("ARTIFACTS_SIGNED_URL_SECRET", "dev_artifacts_secret")
	v.SetDefault("ARTIFACTS_SIGNED_URL_TTL", "30m")
	v.SetDefault("ARTIFACTS_WORKERS", 1)

	v.SetDefault("ENABLE_BILL_CACHE", false)
	v.SetDefault("BILL_CACHE_TTL", "2m")

	v.SetDefault("ENABLE_IDEMPOTENCY", false)
	v.SetDefault("IDEMPOTENCY_TTL", "24h")

	v.SetDefault("ALLOWED_HOSTS", "")
	v.SetDefault("SSL_REDIRECT", false)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
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

func parseDecimal(raw string, fallback decimal.Decimal) decimal.Decimal {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !d.IsPositive() {
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
