// Package upstream holds the HTTP clients for the user and store services.
// Every operation is exactly one HTTP call: no retries, no schema checks.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/example/user-gateway/internal/platform/httpserver"
)

const maxResponseBytes = 4 << 20

// Record is a JSON object passed through the gateway field by field.
type Record map[string]json.RawMessage

// Observer is told about every upstream call.
type Observer interface {
	ObserveUpstream(upstream, op string, d time.Duration, err error)
}

type Client struct {
	Name       string
	BaseURL    string
	HTTPClient *http.Client
	CB         *gobreaker.CircuitBreaker
	Observer   Observer
	Log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout bounds each call. Zero keeps the transport defaults.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.HTTPClient = &http.Client{Timeout: d}
		}
	}
}

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) { c.CB = cb }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.Observer = o }
}

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.Log = log }
}

func newClient(name, baseURL string, opts []Option) *Client {
	c := &Client{
		Name:       name,
		BaseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{},
		Log:        zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// do issues one call and returns the raw JSON body. DELETE returns nil.
func (c *Client) do(ctx context.Context, op, method, path string, payload any) (json.RawMessage, error) {
	start := time.Now()
	var (
		out json.RawMessage
		err error
	)
	if c.CB == nil {
		out, err = c.roundTrip(ctx, op, method, path, payload)
	} else {
		var res any
		res, err = c.CB.Execute(func() (any, error) {
			return c.roundTrip(ctx, op, method, path, payload)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			err = &Error{Upstream: c.Name, Op: op, Kind: KindUnreachable, Err: err}
		}
		if err == nil {
			out, _ = res.(json.RawMessage)
		}
	}

	elapsed := time.Since(start)
	if c.Observer != nil {
		c.Observer.ObserveUpstream(c.Name, op, elapsed, err)
	}
	if err != nil {
		c.Log.Debug("upstream call failed",
			zap.String("upstream", c.Name), zap.String("op", op),
			zap.Duration("duration", elapsed), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, payload any) (json.RawMessage, error) {
	fail := func(kind Kind, status int, body []byte, err error) (json.RawMessage, error) {
		return nil, &Error{Upstream: c.Name, Op: op, Kind: kind, Status: status, Body: string(body[:min(len(body), 200)]), Err: err}
	}

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fail(KindMalformed, 0, nil, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return fail(KindUnreachable, 0, nil, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "user-gateway/1.0")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := httpserver.RequestIDFromContext(ctx); rid != "" {
		req.Header.Set("X-Request-Id", rid)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fail(KindUnreachable, 0, nil, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fail(KindUnreachable, resp.StatusCode, nil, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fail(KindRejected, resp.StatusCode, b, nil)
	}
	if method == http.MethodDelete {
		return nil, nil
	}

	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(b) {
		return fail(KindMalformed, 0, b, errors.New("response is not JSON"))
	}
	return json.RawMessage(b), nil
}
