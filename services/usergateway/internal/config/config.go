package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/user-gateway/services/usergateway/internal/timestamp"
)

type BreakerConfig struct {
	Enabled          bool
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Config is read once at boot and treated as immutable afterwards.
type Config struct {
	UserBaseURL        string
	StoreBaseURL       string
	APIPrefix          string
	UpstreamTimeout    time.Duration
	TimestampKeys      timestamp.Keys
	ExposeErrorDetails bool
	MetricsEnabled     bool
	DocsEnabled        bool
	GRPCAddr           string
	NATSURL            string
	Breaker            BreakerConfig
	RateLimit          RateLimitConfig
}

func Load() (Config, error) {
	userURL, err := requiredURL("BASE_URL_API_USER")
	if err != nil {
		return Config{}, err
	}
	storeURL, err := requiredURL("BASE_URL_STORE_MS")
	if err != nil {
		return Config{}, err
	}
	keys, err := timestamp.ParseKeys(os.Getenv("TIMESTAMP_KEYS"))
	if err != nil {
		return Config{}, fmt.Errorf("TIMESTAMP_KEYS: %w", err)
	}

	// "/" mounts the user routes at the root.
	prefix := "/api"
	if v := strings.TrimSpace(os.Getenv("API_PREFIX")); v != "" {
		prefix = "/" + strings.Trim(v, "/")
	}

	return Config{
		UserBaseURL:        userURL,
		StoreBaseURL:       storeURL,
		APIPrefix:          prefix,
		UpstreamTimeout:    envDuration("UPSTREAM_TIMEOUT", 0),
		TimestampKeys:      keys,
		ExposeErrorDetails: envBool("EXPOSE_ERROR_DETAILS", true),
		MetricsEnabled:     envBool("METRICS_ENABLED", true),
		DocsEnabled:        envBool("DOCS_ENABLED", true),
		GRPCAddr:           strings.TrimSpace(os.Getenv("GRPC_ADDR")),
		NATSURL:            strings.TrimSpace(os.Getenv("NATS_URL")),
		Breaker: BreakerConfig{
			Enabled:          envBool("CB_ENABLED", false),
			MaxRequests:      uint32(envInt("CB_MAX_REQUESTS", 5)),
			Interval:         envDuration("CB_INTERVAL", 60*time.Second),
			Timeout:          envDuration("CB_TIMEOUT", 30*time.Second),
			FailureThreshold: uint32(envInt("CB_FAILURE_THRESHOLD", 5)),
		},
		RateLimit: RateLimitConfig{
			RPS:   envFloat("RATE_LIMIT_RPS", 0),
			Burst: envInt("RATE_LIMIT_BURST", 20),
		},
	}, nil
}

func requiredURL(key string) (string, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return "", errors.New(key + " is required")
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%s must be an http(s) URL, got %q", key, v)
	}
	return strings.TrimRight(v, "/"), nil
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}
