// Package app assembles the gateway's HTTP surface from its collaborators.
package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/example/user-gateway/internal/platform/api"
	platformconfig "github.com/example/user-gateway/internal/platform/config"
	"github.com/example/user-gateway/internal/platform/httpserver"
	"github.com/example/user-gateway/internal/platform/metrics"
	"github.com/example/user-gateway/services/usergateway/internal/config"
	"github.com/example/user-gateway/services/usergateway/internal/docs"
	"github.com/example/user-gateway/services/usergateway/internal/handlers"
	"github.com/example/user-gateway/services/usergateway/internal/ratelimit"
)

const docsPath = "/api-docs"

// Deps is everything NewRouter needs. Users and Stores are required.
type Deps struct {
	Log     *zap.Logger
	HTTP    platformconfig.HTTPConfig
	Config  config.Config
	Users   handlers.UserService
	Stores  handlers.StoreService
	Events  handlers.EventPublisher
	Metrics *metrics.Metrics
	// Ready backs /readyz; nil means always ready.
	Ready func() error
	// Now overrides the clock used for registrationDate.
	Now func() time.Time
}

// NewRouter builds the router. It performs no I/O.
func NewRouter(d Deps) chi.Router {
	r := chi.NewRouter()
	// Metrics wrap everything so /healthz and 404s are counted too.
	if d.Config.MetricsEnabled && d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	httpserver.SetupRouter(r, httpserver.RouterConfig{
		AllowedOrigins: d.HTTP.AllowedOrigins,
		ReadyFunc:      d.Ready,
		Logger:         d.Log,
	})

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		api.WriteText(w, http.StatusOK, "service running")
	})

	if d.Config.MetricsEnabled && d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
		r.Get("/cache", func(w http.ResponseWriter, _ *http.Request) {
			d.Metrics.CacheEvent("request")
			api.NoContent(w)
		})
	}
	if d.Config.DocsEnabled {
		docs.Routes(r, docsPath)
	}

	users := &handlers.Users{
		Users:        d.Users,
		Stores:       d.Stores,
		Events:       d.Events,
		Log:          d.Log,
		Keys:         d.Config.TimestampKeys,
		ExposeErrors: d.Config.ExposeErrorDetails,
		Now:          d.Now,
	}
	var limiter *ratelimit.Limiter
	if d.Config.RateLimit.RPS > 0 {
		limiter = ratelimit.New(d.Config.RateLimit.RPS, d.Config.RateLimit.Burst)
	}
	mount := func(g chi.Router) {
		if limiter != nil {
			g.Use(limiter.Middleware)
		}
		users.Routes(g)
	}

	prefix := d.Config.APIPrefix
	if prefix == "" {
		prefix = "/api"
	}
	if prefix == "/" {
		r.Group(mount)
	} else {
		r.Route(prefix, mount)
	}
	return r
}
