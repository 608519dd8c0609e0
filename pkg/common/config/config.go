package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server
	ServerPort     string
	ServerHost     string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestBody int64

	// Primary store (Postgres)
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Legacy store (the clinic's pre-existing MySQL system)
	LegacyHost     string
	LegacyPort     string
	LegacyUser     string
	LegacyPassword string
	LegacyDB       string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Kafka
	KafkaBrokers      []string
	PatientEventTopic string

	// Per-store call timeouts
	LegacyStoreTimeout  time.Duration
	PrimaryStoreTimeout time.Duration

	// Identity cache
	IdentityCacheTTL time.Duration

	// Magic links
	MagicLinkTTL time.Duration

	// Site profile
	SiteProfilePath string

	// Rate limiting
	RateLimitRPS   int
	RateLimitBurst int
}

func Load() *Config {
	return &Config{
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		ServerHost:     getEnv("SERVER_HOST", "0.0.0.0"),
		ReadTimeout:    getDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:   getDuration("WRITE_TIMEOUT", 30*time.Second),
		MaxRequestBody: int64(getIntEnv("MAX_REQUEST_BODY_BYTES", 1024*1024)),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "clinicore"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "clinicore123"),
		PostgresDB:       getEnv("POSTGRES_DB", "clinicore"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		LegacyHost:     getEnv("LEGACY_DB_HOST", "localhost"),
		LegacyPort:     getEnv("LEGACY_DB_PORT", "3306"),
		LegacyUser:     getEnv("LEGACY_DB_USER", "clinic_app"),
		LegacyPassword: getEnv("LEGACY_DB_PASSWORD", ""),
		LegacyDB:       getEnv("LEGACY_DB_NAME", "clinic_legacy"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),

		KafkaBrokers:      getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
		PatientEventTopic: getEnv("PATIENT_EVENT_TOPIC", "patient-events"),

		LegacyStoreTimeout:  getDuration("LEGACY_STORE_TIMEOUT", 5*time.Second),
		PrimaryStoreTimeout: getDuration("PRIMARY_STORE_TIMEOUT", 5*time.Second),

		IdentityCacheTTL: getDuration("IDENTITY_CACHE_TTL", 15*time.Minute),

		MagicLinkTTL: getDuration("MAGIC_LINK_TTL", 72*time.Hour),

		SiteProfilePath: getEnv("SITE_PROFILE_PATH", ""),

		RateLimitRPS:   getIntEnv("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getIntEnv("RATE_LIMIT_BURST", 100),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getStringSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return []string{value}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
