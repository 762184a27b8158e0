package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"workorder/pkg/utils"
)

const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	HTTPAddr    string
	StoreDriver string

	MongoURI string
	MongoDB  string

	PSQLHost     string
	PSQLPort     int
	PSQLUser     string
	PSQLPassword string
	PSQLDBName   string
	PSQLSSLMode  string

	// S3Host empty disables media uploads.
	S3Host      string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
	S3PublicURL string

	// RedisAddr empty disables the rate limiter and the vehicle cache.
	RedisAddr       string
	RedisDB         int
	VINCacheTTL     time.Duration
	RateLimit       int
	RateLimitWindow time.Duration

	// RabbitMQURL empty disables event publishing.
	RabbitMQURL string

	VPICBaseURL string
	VPICTimeout time.Duration

	JobStatusAllowlist []string

	LogLevel  string
	LogFormat string
}

// Load reads ./.env.local when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load("./.env.local"); err != nil {
		log.Debug().Msg("no .env.local found, using process environment")
	}
	return FromEnv()
}

func FromEnv() (*Config, error) {
	e := &env{}

	cfg := &Config{
		HTTPAddr:    e.str("HTTP_ADDR", ":8080"),
		StoreDriver: e.str("STORE_DRIVER", DriverMongo),

		S3Bucket:    e.str("S3_BUCKET", "workorders"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3UseSSL:    e.boolean("S3_USE_SSL", false),
		S3PublicURL: os.Getenv("S3_PUBLIC_URL"),

		RedisDB:         e.integer("REDIS_DB", 0),
		VINCacheTTL:     e.duration("VIN_CACHE_TTL", 24*time.Hour),
		RateLimit:       e.integer("RATE_LIMIT", 20),
		RateLimitWindow: e.duration("RATE_LIMIT_WINDOW", time.Second),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		VPICBaseURL: e.str("VPIC_BASE_URL", "https://vpic.nhtsa.dot.gov/api"),
		VPICTimeout: e.duration("VPIC_TIMEOUT", 10*time.Second),

		JobStatusAllowlist: utils.SplitCSV(os.Getenv("JOB_STATUS_ALLOWLIST")),

		LogLevel:  e.str("LOG_LEVEL", "info"),
		LogFormat: e.str("LOG_FORMAT", "pretty"),
	}

	switch cfg.StoreDriver {
	case DriverMongo:
		cfg.MongoURI = e.required("MONGO_URI")
		cfg.MongoDB = e.str("MONGO_DB", "workorders")
	case DriverPostgres:
		cfg.PSQLHost = e.required("PSQL_HOST")
		cfg.PSQLPort = e.integer("PSQL_PORT", 5432)
		cfg.PSQLUser = e.required("PSQL_USER")
		cfg.PSQLPassword = e.required("PSQL_PASSWORD")
		cfg.PSQLDBName = e.required("PSQL_DB")
		cfg.PSQLSSLMode = e.str("PSQL_SSLMODE", "disable")
	case DriverMemory:
	default:
		e.fail(fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver))
	}

	if host := os.Getenv("S3_HOST"); host != "" {
		cfg.S3Host = host + ":" + e.str("S3_PORT", "9000")
	}
	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.RedisAddr = host + ":" + e.str("REDIS_PORT", "6379")
	}

	if e.err != nil {
		return nil, e.err
	}
	return cfg, nil
}

// env records the first lookup failure so Load can report it once.
type env struct {
	err error
}

func (e *env) fail(err error) {
	if e.err == nil {
		e.err = err
	}
}

func (e *env) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		e.fail(fmt.Errorf("environment variable %s is not set", key))
	}
	return v
}

func (e *env) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid %s value %q: %w", key, v, err))
		return def
	}
	return n
}

func (e *env) boolean(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid %s value %q: %w", key, v, err))
		return def
	}
	return b
}

func (e *env) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		e.fail(fmt.Errorf("invalid %s value %q: %w", key, v, err))
		return def
	}
	return d
}
