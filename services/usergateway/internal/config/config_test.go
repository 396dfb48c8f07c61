package config

import (
	"testing"
	"time"

	"github.com/example/user-gateway/services/usergateway/internal/timestamp"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BASE_URL_API_USER", "http://users.internal:8080/")
	t.Setenv("BASE_URL_STORE_MS", "https://stores.internal")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"TIMESTAMP_KEYS", "UPSTREAM_TIMEOUT", "EXPOSE_ERROR_DETAILS", "METRICS_ENABLED", "DOCS_ENABLED", "CB_ENABLED", "RATE_LIMIT_RPS", "GRPC_ADDR", "NATS_URL", "API_PREFIX"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.UserBaseURL != "http://users.internal:8080" {
		t.Fatalf("trailing slash should be trimmed, got %q", cfg.UserBaseURL)
	}
	if cfg.APIPrefix != "/api" {
		t.Fatalf("expected /api, got %q", cfg.APIPrefix)
	}
	if cfg.UpstreamTimeout != 0 {
		t.Fatalf("expected no timeout by default, got %s", cfg.UpstreamTimeout)
	}
	if cfg.TimestampKeys != timestamp.PlainKeys {
		t.Fatalf("expected plain keys, got %s", cfg.TimestampKeys)
	}
	if !cfg.ExposeErrorDetails || !cfg.MetricsEnabled || !cfg.DocsEnabled {
		t.Fatalf("unexpected toggles: %+v", cfg)
	}
	if cfg.Breaker.Enabled || cfg.RateLimit.RPS != 0 {
		t.Fatalf("breaker and rate limit must be off by default: %+v", cfg)
	}
}

func TestLoad_MissingUpstreams(t *testing.T) {
	t.Setenv("BASE_URL_API_USER", "")
	t.Setenv("BASE_URL_STORE_MS", "http://stores")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when BASE_URL_API_USER is missing")
	}

	t.Setenv("BASE_URL_API_USER", "http://users")
	t.Setenv("BASE_URL_STORE_MS", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error when BASE_URL_STORE_MS is missing")
	}
}

func TestLoad_RejectsNonHTTPURL(t *testing.T) {
	t.Setenv("BASE_URL_API_USER", "users.internal:8080")
	t.Setenv("BASE_URL_STORE_MS", "http://stores")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for URL without scheme")
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("API_PREFIX", "v2/")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("TIMESTAMP_KEYS", "firestore")
	t.Setenv("EXPOSE_ERROR_DETAILS", "false")
	t.Setenv("CB_ENABLED", "true")
	t.Setenv("CB_FAILURE_THRESHOLD", "2")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIPrefix != "/v2" {
		t.Fatalf("expected /v2, got %q", cfg.APIPrefix)
	}
	if cfg.UpstreamTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.UpstreamTimeout)
	}
	if cfg.TimestampKeys != timestamp.FirestoreKeys || cfg.ExposeErrorDetails {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if !cfg.Breaker.Enabled || cfg.Breaker.FailureThreshold != 2 {
		t.Fatalf("unexpected breaker: %+v", cfg.Breaker)
	}
	if cfg.RateLimit.RPS != 2.5 {
		t.Fatalf("unexpected rps %v", cfg.RateLimit.RPS)
	}
}

func TestLoad_SlashPrefixMountsAtRoot(t *testing.T) {
	setRequired(t)
	t.Setenv("API_PREFIX", "/")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIPrefix != "/" {
		t.Fatalf("expected /, got %q", cfg.APIPrefix)
	}
}

func TestLoad_BadTimestampKeys(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMESTAMP_KEYS", "camel")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown key style")
	}
}
