// Package envconfig loads process settings for cmd/tokenauth-server from the
// environment, optionally seeded by a .env file.
package envconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
)

// Settings is the server's runtime configuration.
type Settings struct {
	Secret      []byte
	Addr        string
	AccessTTL   time.Duration
	RefreshTTL  time.Duration
	RedisAddr   string
	DatabaseDSN string
	LogLevel    zapcore.Level
	Metrics     bool
}

var ErrSecretRequired = errors.New("TOKENAUTH_SECRET is required")

// Load reads the given dotenv files (".env" when none are named; missing
// files are ignored) and then the environment. Variables already set in the
// environment win over file values.
func Load(files ...string) (Settings, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	secret := os.Getenv("TOKENAUTH_SECRET")
	if secret == "" {
		return Settings{}, ErrSecretRequired
	}

	s := Settings{
		Secret:      []byte(secret),
		Addr:        getEnv("TOKENAUTH_ADDR", ":8000"),
		RedisAddr:   os.Getenv("TOKENAUTH_REDIS_ADDR"),
		DatabaseDSN: os.Getenv("TOKENAUTH_DATABASE_DSN"),
	}

	var err error
	if s.AccessTTL, err = getDuration("TOKENAUTH_ACCESS_TTL", 20*time.Minute); err != nil {
		return Settings{}, err
	}
	if s.RefreshTTL, err = getDuration("TOKENAUTH_REFRESH_TTL", 7*24*time.Hour); err != nil {
		return Settings{}, err
	}
	if s.Metrics, err = getBool("TOKENAUTH_METRICS", false); err != nil {
		return Settings{}, err
	}
	if s.LogLevel, err = zapcore.ParseLevel(getEnv("TOKENAUTH_LOG_LEVEL", "info")); err != nil {
		return Settings{}, fmt.Errorf("TOKENAUTH_LOG_LEVEL: %w", err)
	}

	return s, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getBool(key string, def bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
