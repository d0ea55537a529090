package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var keys = []string{
	"ACADEMY_API_URL", "ACADEMY_TIMEOUT", "ACADEMY_TOKEN_STORE", "ACADEMY_TOKEN_DSN",
	"ACADEMY_SEAL_TOKEN", "ACADEMY_TOKEN_PASSPHRASE", "ACADEMY_DEBUG",
}

// clearEnv unsets every key for the test and restores it afterwards.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, rest, err := Load([]string{"modules"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://localhost:3001" {
		t.Fatalf("APIURL=%s", cfg.APIURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Fatalf("Timeout=%s", cfg.Timeout)
	}
	if cfg.TokenStore != StoreFile || cfg.SealToken || cfg.Debug {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if filepath.Base(cfg.Dir) != "academy" {
		t.Fatalf("Dir=%s", cfg.Dir)
	}
	if len(rest) != 1 || rest[0] != "modules" {
		t.Fatalf("rest=%v", rest)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACADEMY_API_URL", "https://api.example.com")
	t.Setenv("ACADEMY_TIMEOUT", "5s")
	t.Setenv("ACADEMY_TOKEN_STORE", "postgres")
	t.Setenv("ACADEMY_TOKEN_DSN", "postgres://u:p@localhost/academy")
	t.Setenv("ACADEMY_SEAL_TOKEN", "true")
	t.Setenv("ACADEMY_DEBUG", "1")

	cfg, _, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://api.example.com" || cfg.Timeout != 5*time.Second {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if cfg.TokenStore != StorePostgres || cfg.TokenDSN == "" || !cfg.SealToken || !cfg.Debug {
		t.Fatalf("unexpected: %+v", cfg)
	}
}

func TestLoadFlagsWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("ACADEMY_API_URL", "https://api.example.com")

	cfg, rest, err := Load([]string{"-api", "http://127.0.0.1:9000", "-store", "memory", "fav", "list"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "http://127.0.0.1:9000" || cfg.TokenStore != StoreMemory {
		t.Fatalf("unexpected: %+v", cfg)
	}
	if len(rest) != 2 || rest[0] != "fav" {
		t.Fatalf("rest=%v", rest)
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	if err := os.WriteFile(".env", []byte("ACADEMY_API_URL=https://dotenv.example.com\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, _, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIURL != "https://dotenv.example.com" {
		t.Fatalf("APIURL=%s", cfg.APIURL)
	}
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string][]string{
		"bad url":      {"-api", "localhost"},
		"bad store":    {"-store", "redis"},
		"postgres dsn": {"-store", "postgres"},
		"zero timeout": {"-timeout", "0s"},
		"bad flag":     {"-nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			if _, _, err := Load(args); err == nil {
				t.Fatalf("want error for %v", args)
			}
		})
	}
}
