package main

import (
	"path/filepath"
	"testing"

	"storefront-client/internal/config"
)

func TestCLIConfig_MemoryStoreFallsBackToFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("APP_ENV", "local")
	t.Setenv("TOKEN_STORE", config.StoreMemory)
	t.Setenv("TOKEN_STORE_PATH", "")

	cfg, err := cliConfig()
	if err != nil {
		t.Fatalf("cliConfig: %v", err)
	}
	if cfg.Store.Backend != config.StoreFile {
		t.Fatalf("expected file backend, got %q", cfg.Store.Backend)
	}
	if want := filepath.Join(home, ".storefront", "session.json"); cfg.Store.Path != want {
		t.Fatalf("expected path %q, got %q", want, cfg.Store.Path)
	}
}

func TestCLIConfig_ExplicitPathKept(t *testing.T) {
	t.Setenv("APP_ENV", "local")
	t.Setenv("TOKEN_STORE", config.StoreFile)
	path := filepath.Join(t.TempDir(), "s.json")
	t.Setenv("TOKEN_STORE_PATH", path)

	cfg, err := cliConfig()
	if err != nil {
		t.Fatalf("cliConfig: %v", err)
	}
	if cfg.Store.Path != path {
		t.Fatalf("expected %q, got %q", path, cfg.Store.Path)
	}
}

func TestPassword_FlagThenEnv(t *testing.T) {
	t.Setenv("STOREFRONT_PASSWORD", "from-env")
	if pw, _ := password("from-flag"); pw != "from-flag" {
		t.Fatalf("flag should win, got %q", pw)
	}
	if pw, _ := password(""); pw != "from-env" {
		t.Fatalf("expected env password, got %q", pw)
	}
	t.Setenv("STOREFRONT_PASSWORD", "")
	if _, err := password(""); err == nil {
		t.Fatalf("expected error without password")
	}
}
