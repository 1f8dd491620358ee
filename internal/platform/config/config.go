package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	platformstrings "hrportal/pkg/platform/strings"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr          string
	JWTSigningKey string
	TokenTTL      time.Duration
	DatabaseURL   string
	Redis         RedisConfig
	Lockout       LockoutConfig
	// ApprovalStages is the ordered stage chain a pending request walks through.
	ApprovalStages []string
}

// RedisConfig tunes the optional Redis connection used by login throttling.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// LockoutConfig tunes failed-login throttling.
type LockoutConfig struct {
	MaxFailures  int
	LockDuration time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("HRPORTAL_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Use a default for development - should be overridden in production
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	tokenTTL := 24 * time.Hour
	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			tokenTTL = d
		}
	}

	stages := []string{"SUPERVISOR", "HR"}
	if raw := os.Getenv("APPROVAL_STAGES"); raw != "" {
		if parsed := platformstrings.DedupeAndTrimUpper(strings.Split(raw, ",")); len(parsed) > 0 {
			stages = parsed
		}
	}

	return Server{
		Addr:          addr,
		JWTSigningKey: jwtSigningKey,
		TokenTTL:      tokenTTL,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Lockout: LockoutConfig{
			MaxFailures:  envInt("LOGIN_MAX_FAILURES", 5),
			LockDuration: 15 * time.Minute,
		},
		ApprovalStages: stages,
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
