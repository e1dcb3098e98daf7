package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const defaultJWTSecret = "your-super-secret-key-change-in-production"

type Config struct {
	AppName           string
	Port              string
	DatabaseURL       string
	JWTSecret         string
	JWTTTL            time.Duration
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	SummaryCacheTTL   time.Duration
	SeedAdminEmail    string
	SeedAdminPassword string
}

func Load() *Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))

	jwtHours, err := strconv.Atoi(getEnv("JWT_TTL_HOURS", "24"))
	if err != nil || jwtHours < 1 {
		jwtHours = 24
	}
	cacheSeconds, err := strconv.Atoi(getEnv("SUMMARY_CACHE_TTL_SECONDS", "30"))
	if err != nil || cacheSeconds < 1 {
		cacheSeconds = 30
	}

	cfg := &Config{
		AppName:           getEnv("APP_NAME", "Stock Opname Pro v1.0"),
		Port:              getEnv("PORT", "3000"),
		DatabaseURL:       databaseURL(),
		JWTSecret:         getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:            time.Duration(jwtHours) * time.Hour,
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           redisDB,
		SummaryCacheTTL:   time.Duration(cacheSeconds) * time.Second,
		SeedAdminEmail:    getEnv("SEED_ADMIN_EMAIL", "admin@example.com"),
		SeedAdminPassword: getEnv("SEED_ADMIN_PASSWORD", "admin123"),
	}

	if cfg.JWTSecret == defaultJWTSecret {
		log.Println("Warning: JWT_SECRET not set, using the development default")
	}
	if cfg.RedisAddr == "" {
		log.Println("Warning: REDIS_ADDR not set, opname summaries will not be cached")
	}

	return cfg
}

func (c *Config) Address() string {
	return ":" + c.Port
}

// databaseURL prefers DATABASE_URL and falls back to the discrete DB_* variables
func databaseURL() string {
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		return dsn
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=Asia/Jakarta",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
