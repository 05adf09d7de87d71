package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Env      string
	LogLevel string

	// Queue consumed by the standalone worker.
	QueueURL string

	// Catalog store credential sources, in precedence order.
	PgstacSecretARN string
	PostgresHost    string
	PostgresUser    string
	PostgresDBName  string
	PostgresPort    string
	DatabaseURL     string

	// Pipeline tuning.
	LoadConcurrency   int
	AcquireTimeout    time.Duration
	VisibilityTimeout time.Duration

	// Ops endpoint for the standalone worker.
	HealthPort string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	secretARN := os.Getenv("PGSTAC_SECRET_ARN")
	pgHost := os.Getenv("POSTGRES_HOST")

	if env == "production" && dbURL == "" && secretARN == "" && pgHost == "" {
		log.Printf("one of PGSTAC_SECRET_ARN, POSTGRES_HOST, or DATABASE_URL is required in production")
	}

	return Config{
		Env:               env,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		QueueURL:          strings.TrimSpace(os.Getenv("LOAD_QUEUE_URL")),
		PgstacSecretARN:   strings.TrimSpace(secretARN),
		PostgresHost:      strings.TrimSpace(pgHost),
		PostgresUser:      strings.TrimSpace(os.Getenv("POSTGRES_USER")),
		PostgresDBName:    strings.TrimSpace(os.Getenv("POSTGRES_DBNAME")),
		PostgresPort:      getEnv("POSTGRES_PORT", "5432"),
		DatabaseURL:       dbURL,
		LoadConcurrency:   getEnvInt("LOAD_CONCURRENCY", 1),
		AcquireTimeout:    getEnvDuration("DB_ACQUIRE_TIMEOUT", 5*time.Second),
		VisibilityTimeout: getEnvDuration("QUEUE_VISIBILITY_TIMEOUT", 5*time.Minute),
		HealthPort:        getEnv("HEALTH_PORT", "8080"),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config env %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config env %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}
