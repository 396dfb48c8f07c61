package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := New("usergw")
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/users/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	for _, id := range []string{"1", "2", "3"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/"+id, nil))
	}

	got := testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/users/{id}", "200"))
	if got != 3 {
		t.Fatalf("expected 3 requests on the route pattern, got %v", got)
	}
}

func TestObserveUpstream(t *testing.T) {
	m := New("usergw")
	m.ObserveUpstream("store", "get_by_user_id", 10*time.Millisecond, nil)
	m.ObserveUpstream("store", "get_by_user_id", 10*time.Millisecond, errors.New("boom"))

	if v := testutil.ToFloat64(m.upstreamRequests.WithLabelValues("store", "get_by_user_id", "ok")); v != 1 {
		t.Fatalf("expected 1 ok, got %v", v)
	}
	if v := testutil.ToFloat64(m.upstreamRequests.WithLabelValues("store", "get_by_user_id", "error")); v != 1 {
		t.Fatalf("expected 1 error, got %v", v)
	}
}

func TestHandler_Exposition(t *testing.T) {
	m := New("usergw")
	m.CacheEvent("request")

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(string(body), `usergw_cache_events_total{event="request"} 1`) {
		t.Fatalf("cache counter missing from exposition:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatal("expected go collector series")
	}
}

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *Metrics
	m.CacheEvent("request")
	m.ObserveUpstream("user", "get", time.Millisecond, nil)

	called := false
	h := m.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Fatal("nil middleware must pass through")
	}
}
