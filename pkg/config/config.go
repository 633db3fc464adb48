package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Snapshot store backends.
const (
	SnapshotStorePostgres = "postgres"
	SnapshotStoreMongo    = "mongo"
)

// Week numbering strategies for snapshot generation.
const (
	WeekStrategySequence = "sequence"
	WeekStrategyCalendar = "calendar"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	Mongo      MongoConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Analytics  AnalyticsConfig
	Snapshots  SnapshotConfig
	Growth     GrowthConfig
	Attendance AttendanceConfig
	Reports    ReportsConfig
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
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// MongoConfig points at the optional document store used for weekly snapshots.
type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AnalyticsConfig governs cache behaviour for analytics and leaderboard reads.
type AnalyticsConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// SnapshotConfig selects the snapshot backend and how generation runs are numbered and serialized.
type SnapshotConfig struct {
	Store        string
	WeekStrategy string
	LockEnabled  bool
	LockTTL      time.Duration
}

// GrowthConfig holds the growth index weights and the per-course module catalogue.
type GrowthConfig struct {
	QuizWeight         float64
	AssignmentWeight   float64
	AttendanceWeight   float64
	CompletionWeight   float64
	ConsistencyWeight  float64
	CourseModules      map[string]int
	DefaultModuleCount int
}

// AttendanceConfig controls how long a submitted sheet stays editable.
type AttendanceConfig struct {
	EditWindow time.Duration
}

// ReportsConfig configures asynchronous report generation.
type ReportsConfig struct {
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
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Mongo = MongoConfig{
		URI:            v.GetString("MONGO_URI"),
		Database:       v.GetString("MONGO_DATABASE"),
		ConnectTimeout: parseDuration(v.GetString("MONGO_CONNECT_TIMEOUT"), 10*time.Second),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Analytics = AnalyticsConfig{
		CacheEnabled: v.GetBool("ENABLE_ANALYTICS_CACHE"),
		CacheTTL:     parseDuration(v.GetString("ANALYTICS_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Snapshots = SnapshotConfig{
		Store:        strings.ToLower(v.GetString("SNAPSHOT_STORE")),
		WeekStrategy: strings.ToLower(v.GetString("SNAPSHOT_WEEK_STRATEGY")),
		LockEnabled:  v.GetBool("SNAPSHOT_LOCK_ENABLED"),
		LockTTL:      parseDuration(v.GetString("SNAPSHOT_LOCK_TTL"), 2*time.Minute),
	}

	cfg.Growth = GrowthConfig{
		QuizWeight:         v.GetFloat64("OGI_WEIGHT_QUIZ"),
		AssignmentWeight:   v.GetFloat64("OGI_WEIGHT_ASSIGNMENT"),
		AttendanceWeight:   v.GetFloat64("OGI_WEIGHT_ATTENDANCE"),
		CompletionWeight:   v.GetFloat64("OGI_WEIGHT_COMPLETION"),
		ConsistencyWeight:  v.GetFloat64("OGI_WEIGHT_CONSISTENCY"),
		CourseModules:      parseCourseModules(v.GetString("COURSE_MODULES")),
		DefaultModuleCount: v.GetInt("COURSE_MODULES_DEFAULT"),
	}

	cfg.Attendance = AttendanceConfig{
		EditWindow: parseDuration(v.GetString("ATTENDANCE_EDIT_WINDOW"), 10*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		Enabled:           v.GetBool("ENABLE_REPORTS"),
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 5000)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "academic_portal")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "academic_portal")
	v.SetDefault("MONGO_CONNECT_TIMEOUT", "10s")

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "academic-portal-api")

	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_ANALYTICS_CACHE", false)
	v.SetDefault("ANALYTICS_CACHE_TTL", "5m")

	v.SetDefault("SNAPSHOT_STORE", SnapshotStorePostgres)
	v.SetDefault("SNAPSHOT_WEEK_STRATEGY", WeekStrategySequence)
	v.SetDefault("SNAPSHOT_LOCK_ENABLED", false)
	v.SetDefault("SNAPSHOT_LOCK_TTL", "2m")

	v.SetDefault("OGI_WEIGHT_QUIZ", 0.25)
	v.SetDefault("OGI_WEIGHT_ASSIGNMENT", 0.25)
	v.SetDefault("OGI_WEIGHT_ATTENDANCE", 0.25)
	v.SetDefault("OGI_WEIGHT_COMPLETION", 0.15)
	v.SetDefault("OGI_WEIGHT_CONSISTENCY", 0.10)
	v.SetDefault("COURSE_MODULES", "Web Development=5,DSA=5,Python=3")
	v.SetDefault("COURSE_MODULES_DEFAULT", 5)

	v.SetDefault("ATTENDANCE_EDIT_WINDOW", "10m")

	v.SetDefault("ENABLE_REPORTS", true)
	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_WORKER_CONCURRENCY", 1)
	v.SetDefault("REPORTS_WORKER_RETRIES", 3)
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

// parseCourseModules reads "Course=N" pairs; malformed pairs are skipped.
func parseCourseModules(raw string) map[string]int {
	result := make(map[string]int)
	for _, pair := range splitAndTrim(raw) {
		name, count, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(count))
		if err != nil || n <= 0 {
			continue
		}
		result[strings.TrimSpace(name)] = n
	}
	return result
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file or directory")
}
