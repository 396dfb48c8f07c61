package run

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestUntil_ServerClosedIsClean(t *testing.T) {
	r := New(zap.NewNop())
	code := r.Until(context.Background(), func(context.Context) error { return http.ErrServerClosed })
	if code != 0 {
		t.Fatalf("expected 0, got %d", code)
	}
}

func TestUntil_ErrorExitsNonZero(t *testing.T) {
	r := New(zap.NewNop())
	code := r.Until(context.Background(), func(context.Context) error { return errors.New("bind: address in use") })
	if code != 1 {
		t.Fatalf("expected 1, got %d", code)
	}
}

func TestUntil_ContextCancelled(t *testing.T) {
	r := New(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code := r.Until(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		return nil
	})
	if code != 0 {
		t.Fatalf("expected 0, got %d", code)
	}
}

func TestGraceful_RunsAllSteps(t *testing.T) {
	r := New(zap.NewNop())
	r.ShutdownTimeout = time.Second
	var calls []string
	r.Graceful(
		func(context.Context) error { calls = append(calls, "http"); return errors.New("slow client") },
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				t.Error("expected a deadline")
			}
			calls = append(calls, "grpc")
			return nil
		},
	)
	if len(calls) != 2 || calls[0] != "http" || calls[1] != "grpc" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}
