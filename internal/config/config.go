// Package config loads client settings from .env, the environment and flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/and161185/academy-client/internal/credentials"
)

// Token store kinds.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds client settings.
type Config struct {
	APIURL     string
	Timeout    time.Duration
	TokenStore string
	TokenDSN   string
	SealToken  bool
	Passphrase string
	Debug      bool
	Dir        string // credential directory
}

// Load reads .env (if present), then the environment, then args. Flags win.
// It returns the arguments left after the global flags.
func Load(args []string) (Config, []string, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		APIURL:     getenv("ACADEMY_API_URL", "http://localhost:3001"),
		Timeout:    getenvDuration("ACADEMY_TIMEOUT", 30*time.Second),
		TokenStore: getenv("ACADEMY_TOKEN_STORE", StoreFile),
		TokenDSN:   getenv("ACADEMY_TOKEN_DSN", ""),
		SealToken:  getenvBool("ACADEMY_SEAL_TOKEN", false),
		Passphrase: getenv("ACADEMY_TOKEN_PASSPHRASE", ""),
		Debug:      getenvBool("ACADEMY_DEBUG", false),
		Dir:        credentials.DefaultDir(),
	}

	fset := flag.NewFlagSet("ac", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.StringVar(&cfg.APIURL, "api", cfg.APIURL, "API base URL")
	fset.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-command timeout")
	fset.StringVar(&cfg.TokenStore, "store", cfg.TokenStore, "token store: file, postgres or memory")
	fset.StringVar(&cfg.TokenDSN, "dsn", cfg.TokenDSN, "PostgreSQL DSN for -store=postgres")
	fset.BoolVar(&cfg.SealToken, "seal", cfg.SealToken, "encrypt the stored token")
	fset.BoolVar(&cfg.Debug, "debug", cfg.Debug, "development logging")
	fset.StringVar(&cfg.Dir, "dir", cfg.Dir, "credential directory")
	if err := fset.Parse(args); err != nil {
		return Config{}, nil, err
	}

	if err := cfg.validate(); err != nil {
		return Config{}, nil, err
	}
	return cfg, fset.Args(), nil
}

func (c Config) validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid API URL %q", c.APIURL)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	switch c.TokenStore {
	case StoreFile, StoreMemory:
	case StorePostgres:
		if c.TokenDSN == "" {
			return errors.New("token DSN required (use -dsn or ACADEMY_TOKEN_DSN)")
		}
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}
	return nil
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
