package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultAuthBypass lists the path prefixes served without authentication.
var DefaultAuthBypass = []string{"/api/auth/", "/health", "/actuator/health"}

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	JWTIssuer      string
	JWTTTL         time.Duration
	BcryptCost     int
	CORSOrigins    []string
	AuthBypass     []string
	AuthFailClosed bool
	LogLevel       string
	LogFormat      string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "task-tracker"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		AuthBypass:  DefaultAuthBypass,
		LogLevel:    strings.ToLower(fallback(os.Getenv("LOG_LEVEL"), "info")),
		LogFormat:   strings.ToLower(fallback(os.Getenv("LOG_FORMAT"), "text")),
	}

	minutes := fallback(os.Getenv("JWT_TTL_MINUTES"), "60")
	if ttlMinutes, err := strconv.Atoi(minutes); err == nil && ttlMinutes > 0 {
		cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute
	} else {
		cfg.JWTTTL = 60 * time.Minute
	}

	if cost, err := strconv.Atoi(fallback(os.Getenv("BCRYPT_COST"), "0")); err == nil {
		cfg.BcryptCost = cost
	}

	if raw := strings.TrimSpace(os.Getenv("AUTH_BYPASS_PREFIXES")); raw != "" {
		cfg.AuthBypass = parseCSV(raw)
	}

	switch policy := strings.ToLower(fallback(os.Getenv("AUTH_FAULT_POLICY"), "open")); policy {
	case "open":
		cfg.AuthFailClosed = false
	case "closed":
		cfg.AuthFailClosed = true
	default:
		return Config{}, fmt.Errorf("AUTH_FAULT_POLICY must be open or closed, got %q", policy)
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
