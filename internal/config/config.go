package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string `env:"LISTEN_ADDR" env-default:":8080"`
	BaseURL     string `env:"BASE_URL" env-default:"http://localhost:8080"`
	DatabaseURL string `env:"DATABASE_URL" env-default:"sqlite://data.db"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	// sessions
	RedisURL       string        `env:"REDIS_URL"`
	SessionTTL     time.Duration `env:"SESSION_TTL" env-default:"336h"`
	CookieHashRaw  string        `env:"COOKIE_HASH_KEY"`
	CookieBlockRaw string        `env:"COOKIE_BLOCK_KEY"`

	CookieHashKey  []byte
	CookieBlockKey []byte
	// EphemeralKeys is set when the cookie keys were generated at startup,
	// so sessions will not survive a restart.
	EphemeralKeys bool
}

// FromEnv reads the configuration from the environment, after loading a
// .env file from the working directory when one exists.
func FromEnv() (Config, error) {
	if err := loadDotenv(".env"); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read env: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("invalid SESSION_TTL")
	}

	if cfg.CookieHashRaw == "" && cfg.CookieBlockRaw == "" {
		hash, block, err := GenerateKeys()
		if err != nil {
			return Config{}, err
		}
		cfg.CookieHashKey, cfg.CookieBlockKey, cfg.EphemeralKeys = hash, block, true
		return cfg, nil
	}
	if cfg.CookieHashRaw == "" || cfg.CookieBlockRaw == "" {
		return Config{}, fmt.Errorf("COOKIE_HASH_KEY and COOKIE_BLOCK_KEY must be set together")
	}

	var err error
	cfg.CookieHashKey, err = decodeB64(cfg.CookieHashRaw)
	if err != nil {
		return Config{}, fmt.Errorf("COOKIE_HASH_KEY: %w", err)
	}
	cfg.CookieBlockKey, err = decodeB64(cfg.CookieBlockRaw)
	if err != nil {
		return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY: %w", err)
	}
	switch len(cfg.CookieBlockKey) {
	case 16, 24, 32:
	default:
		return Config{}, fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes (got %d)", len(cfg.CookieBlockKey))
	}
	return cfg, nil
}

// SecureCookies reports whether BaseURL is served over HTTPS, in which case
// session cookies are marked Secure even when TLS ends at a proxy.
func (c Config) SecureCookies() bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.BaseURL)), "https://")
}

// GenerateKeys returns a random 32-byte hash key and 32-byte block key.
func GenerateKeys() (hash, block []byte, err error) {
	hash = make([]byte, 32)
	block = make([]byte, 32)
	if _, err := rand.Read(hash); err != nil {
		return nil, nil, err
	}
	if _, err := rand.Read(block); err != nil {
		return nil, nil, err
	}
	return hash, block, nil
}

func loadDotenv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func decodeB64(s string) ([]byte, error) {
	b, err := os.ReadFile(s)
	if err == nil {
		// allow pointing to file path for k8s secret mounts
		s = string(b)
	}
	s = strings.TrimSpace(s)
	if dec, err := base64.StdEncoding.DecodeString(s); err == nil {
		return dec, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}
