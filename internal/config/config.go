package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

const (
	defaultEnvFile    = "configs/.env"
	devJWTSecret      = "default_super_secret_key" // development fallback only
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Config holds everything the API process needs at startup
type Config struct {
	Port    string
	GinMode string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	CORSOrigins []string

	// CookieSecure switches auth cookies to SameSite=None; Secure for cross-origin deployments
	CookieSecure bool
}

// Release reports whether gin runs in release mode
func (c Config) Release() bool {
	return c.GinMode == "release"
}

// DSN is the postgres connection string for gorm
func (c Config) DSN() string {
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=" + c.DBSSLMode
}

// Load parses flags from args, loads the env file and reads the environment.
// A missing env file is not an error.
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet("api", pflag.ContinueOnError)
	envFile := fs.String("env-file", defaultEnvFile, "dotenv file to load before reading the environment")
	port := fs.String("port", "", "listen port (overrides PORT)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", *envFile, err)
	}

	cfg := Config{
		Port:       getenv("PORT", "8080"),
		GinMode:    getenv("GIN_MODE", "debug"),
		DBHost:     getenv("DB_HOST", "localhost"),
		DBPort:     getenv("DB_PORT", "5432"),
		DBUser:     getenv("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD", "postgres"),
		DBName:     getenv("DB_NAME", "postgres"),
		DBSSLMode:  getenv("DB_SSLMODE", "disable"),
		CORSOrigins: splitList(getenv("CORS_ORIGINS",
			"http://localhost:5173,http://127.0.0.1:5173,http://localhost:5174")),
	}
	if *port != "" {
		cfg.Port = *port
	}
	cfg.CookieSecure = cfg.Release() || os.Getenv("RENDER") != ""

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if cfg.Release() {
			return Config{}, errors.New("JWT_SECRET environment variable is required in release mode")
		}
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	var err error
	if cfg.AccessTokenTTL, err = durationEnv("ACCESS_TOKEN_TTL", defaultAccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.RefreshTokenTTL, err = durationEnv("REFRESH_TOKEN_TTL", defaultRefreshTTL); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
