package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPort      = "3000"
	DefaultMongoDB   = "poems"
	DefaultExpiresIn = "7d"
)

type Config struct {
	Port        string
	DatabaseURL string // postgres://... or mongodb://...
	MongoDB     string // database name, Mongo backend only
	JWTSecret   string
	JWTTTL      time.Duration
	// CookieSecure forces the Secure cookie attribute even on plain HTTP
	// (behind a TLS-terminating proxy).
	CookieSecure bool
	CORSOrigin   string // empty reflects the request origin
	// AdminRoleRefresh makes the admin gate re-read the role from the store
	// instead of trusting the token.
	AdminRoleRefresh bool
	LogLevel         string
	LogFormat        string
}

// Load reads the configuration from the environment. It fails only on values
// that are set but unparseable; missing required values are reported by Validate.
func Load() (*Config, error) {
	ttl, err := ParseTTL(getEnv("JWT_EXPIRES_IN", DefaultExpiresIn))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	cookieSecure, err := getBool("COOKIE_SECURE")
	if err != nil {
		return nil, err
	}
	roleRefresh, err := getBool("ADMIN_ROLE_REFRESH")
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:             getEnv("PORT", DefaultPort),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		MongoDB:          getEnv("MONGODB_DB", DefaultMongoDB),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTTTL:           ttl,
		CookieSecure:     cookieSecure,
		CORSOrigin:       os.Getenv("CORS_ORIGIN"),
		AdminRoleRefresh: roleRefresh,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "json"),
	}, nil
}

// RequiredEnvVars are checked at startup; the app exits if any are unset.
var RequiredEnvVars = []string{
	"DATABASE_URL",
	"JWT_SECRET",
}

// Validate reports every missing required value at once.
func (c *Config) Validate() error {
	values := map[string]string{
		"DATABASE_URL": c.DatabaseURL,
		"JWT_SECRET":   c.JWTSecret,
	}
	var missing []string
	for _, key := range RequiredEnvVars {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env: %s (set these in .env or environment)", strings.Join(missing, ", "))
	}
	return nil
}

// ParseTTL accepts Go durations ("12h", "90m") and whole days ("7d").
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	var ttl time.Duration
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid day count %q", s)
		}
		ttl = time.Duration(n) * 24 * time.Hour
	} else {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		ttl = d
	}
	if ttl <= 0 {
		return 0, fmt.Errorf("ttl must be positive, got %q", s)
	}
	return ttl, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
