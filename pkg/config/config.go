package config

import (
	"errors"
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

	Database    DatabaseConfig
	Redis       RedisConfig
	JWT         JWTConfig
	CORS        CORSConfig
	Log         LogConfig
	Performance PerformanceConfig
	Documents   DocumentsConfig
	Exports     ExportsConfig
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
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// PerformanceConfig carries the classification thresholds and the aggregate cache switch.
type PerformanceConfig struct {
	PassingGrade    float64
	RecoveryFloor   float64
	AttendanceFloor float64
	CacheEnabled    bool
	CacheTTL        time.Duration
}

// DocumentsConfig configures issued document storage, download links and retention.
type DocumentsConfig struct {
	StorageDir        string
	PublicBaseURL     string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupSchedule   string
	Retention         time.Duration
	WorkerConcurrency int
	WorkerRetries     int
}

// ExportsConfig toggles tabular performance exports.
type ExportsConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) {
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Performance = PerformanceConfig{
		PassingGrade:    v.GetFloat64("PASSING_GRADE"),
		RecoveryFloor:   v.GetFloat64("RECOVERY_FLOOR"),
		AttendanceFloor: v.GetFloat64("ATTENDANCE_FLOOR"),
		CacheEnabled:    v.GetBool("ENABLE_PERFORMANCE_CACHE"),
		CacheTTL:        parseDuration(v.GetString("PERFORMANCE_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Documents = DocumentsConfig{
		StorageDir:        v.GetString("DOCUMENTS_STORAGE_DIR"),
		PublicBaseURL:     strings.TrimRight(v.GetString("DOCUMENTS_PUBLIC_BASE_URL"), "/"),
		SignedURLSecret:   v.GetString("DOCUMENTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("DOCUMENTS_SIGNED_URL_TTL"), time.Hour),
		CleanupSchedule:   v.GetString("DOCUMENTS_CLEANUP_SCHEDULE"),
		Retention:         parseDuration(v.GetString("DOCUMENTS_RETENTION"), 30*24*time.Hour),
		WorkerConcurrency: v.GetInt("DOCUMENTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("DOCUMENTS_WORKER_RETRIES"),
	}

	cfg.Exports = ExportsConfig{
		Enabled: v.GetBool("ENABLE_EXPORTS"),
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
	v.SetDefault("DB_NAME", "senai_school_manager")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("PASSING_GRADE", 7.0)
	v.SetDefault("RECOVERY_FLOOR", 5.0)
	v.SetDefault("ATTENDANCE_FLOOR", 75.0)
	v.SetDefault("ENABLE_PERFORMANCE_CACHE", false)
	v.SetDefault("PERFORMANCE_CACHE_TTL", "5m")

	v.SetDefault("DOCUMENTS_STORAGE_DIR", "./documents")
	v.SetDefault("DOCUMENTS_PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("DOCUMENTS_SIGNED_URL_SECRET", "dev_documents_secret")
	v.SetDefault("DOCUMENTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("DOCUMENTS_CLEANUP_SCHEDULE", "15 2 * * *")
	v.SetDefault("DOCUMENTS_RETENTION", "720h")
	v.SetDefault("DOCUMENTS_WORKER_CONCURRENCY", 2)
	v.SetDefault("DOCUMENTS_WORKER_RETRIES", 3)

	v.SetDefault("ENABLE_EXPORTS", true)
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
