package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ServiceName != "user-gateway" {
		t.Fatalf("expected default service name, got %q", cfg.ServiceName)
	}
	if cfg.HTTP.Addr != ":3001" {
		t.Fatalf("expected :3001, got %q", cfg.HTTP.Addr)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected info, got %q", cfg.LogLevel)
	}
}

func TestLoad_PortAndAddr(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "8081")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Addr != ":8081" {
		t.Fatalf("expected :8081, got %q", cfg.HTTP.Addr)
	}

	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	cfg, err = Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Addr != "127.0.0.1:9000" {
		t.Fatalf("HTTP_ADDR should win over PORT, got %q", cfg.HTTP.Addr)
	}
}

func TestLoad_InvalidPort(t *testing.T) {
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "99999")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out of range port")
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("USERGW_TEST_FROM_FILE=yes\nUSERGW_TEST_PRESET=file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("USERGW_TEST_PRESET", "env")
	t.Cleanup(func() { _ = os.Unsetenv("USERGW_TEST_FROM_FILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := os.Getenv("USERGW_TEST_FROM_FILE"); v != "yes" {
		t.Fatalf("expected value from file, got %q", v)
	}
	if v := os.Getenv("USERGW_TEST_PRESET"); v != "env" {
		t.Fatalf("existing env must not be overridden, got %q", v)
	}
}

func TestLoadEnvFile_Missing(t *testing.T) {
	if err := LoadEnvFile(filepath.Join(t.TempDir(), "nope.env")); err != nil {
		t.Fatalf("missing file should be ignored, got %v", err)
	}
}
