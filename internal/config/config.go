package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingConfig = errors.New("missing required configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// HS256 keys shorter than the hash output are rejected.
const minSecretBytes = 32

type Config struct {
	Env         string
	Port        int
	DBURL       string
	StoreDriver string // "postgres" | "memory"

	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	TokenTTL    time.Duration

	BcryptCost  int
	PhoneRegion string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	SignInMaxAttempts int
	SignInLockout     time.Duration
	AuthRateLimit     int
	AuthRateWindow    time.Duration

	CORSAllowedOrigins []string
	OTLPEndpoint       string
	TracingEnabled     bool
}

// Load reads the environment (and an optional .env file) and fails fast when
// the token signing configuration is absent.
func Load() (Config, error) {
	// a missing .env is fine; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       buildDBURL(),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),

		JWTSecret:   os.Getenv("JWT_SECRET"),
		JWTIssuer:   os.Getenv("JWT_ISSUER"),
		JWTAudience: os.Getenv("JWT_AUDIENCE"),
		TokenTTL:    time.Duration(getEnvInt("JWT_TTL_MINUTES", 180)) * time.Minute,

		BcryptCost:  getEnvInt("BCRYPT_COST", 10),
		PhoneRegion: getEnv("PHONE_DEFAULT_REGION", "BR"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SignInMaxAttempts: getEnvInt("SIGNIN_MAX_ATTEMPTS", 5),
		SignInLockout:     time.Duration(getEnvInt("SIGNIN_LOCKOUT_MINUTES", 15)) * time.Minute,
		AuthRateLimit:     getEnvInt("AUTH_RATE_LIMIT", 20),
		AuthRateWindow:    time.Duration(getEnvInt("AUTH_RATE_WINDOW_SECONDS", 60)) * time.Second,

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		OTLPEndpoint:       os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingEnabled:     getEnv("TRACING_ENABLED", "false") == "true",
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the settings the auth core cannot run without.
func (c Config) Validate() error {
	var missing []string

	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	if c.JWTAudience == "" {
		missing = append(missing, "JWT_AUDIENCE")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if len(c.JWTSecret) < minSecretBytes {
		return fmt.Errorf("%w: JWT_SECRET must be at least %d bytes", ErrInvalidConfig, minSecretBytes)
	}

	if c.TokenTTL <= 0 {
		return fmt.Errorf("%w: JWT_TTL_MINUTES must be positive", ErrInvalidConfig)
	}

	switch c.StoreDriver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("%w: STORE_DRIVER %q", ErrInvalidConfig, c.StoreDriver)
	}

	return nil
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "foodservice")
	pass := getEnv("DB_PASSWORD", "foodservice")
	name := getEnv("DB_NAME", "foodservice")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(parent context.Context, duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			return fallback
		}

		return num
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
