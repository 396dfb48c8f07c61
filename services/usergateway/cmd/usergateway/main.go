package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	platformconfig "github.com/example/user-gateway/internal/platform/config"
	"github.com/example/user-gateway/internal/platform/events"
	"github.com/example/user-gateway/internal/platform/grpchealth"
	"github.com/example/user-gateway/internal/platform/httpserver"
	"github.com/example/user-gateway/internal/platform/logging"
	"github.com/example/user-gateway/internal/platform/metrics"
	"github.com/example/user-gateway/internal/platform/natsconn"
	"github.com/example/user-gateway/internal/platform/run"
	"github.com/example/user-gateway/services/usergateway/internal/app"
	"github.com/example/user-gateway/services/usergateway/internal/config"
	"github.com/example/user-gateway/services/usergateway/internal/docs"
	"github.com/example/user-gateway/services/usergateway/internal/handlers"
	"github.com/example/user-gateway/services/usergateway/internal/upstream"
)

var errDraining = errors.New("draining")

func main() {
	envFile := &cli.StringFlag{
		Name:    "env-file",
		Usage:   "dotenv file loaded before reading the environment (missing file is ignored)",
		Value:   ".env",
		EnvVars: []string{"ENV_FILE"},
	}
	cliApp := &cli.App{
		Name:   "usergateway",
		Usage:  "User management gateway in front of the user and store services",
		Flags:  []cli.Flag{envFile},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP gateway (default)",
				Flags:  []cli.Flag{envFile},
				Action: serve,
			},
			{
				Name:  "openapi",
				Usage: "Print the OpenAPI document",
				Action: func(c *cli.Context) error {
					_, err := c.App.Writer.Write(docs.Document())
					return err
				},
			},
		},
	}
	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		run.Exit(1)
	}
}

func serve(c *cli.Context) error {
	if err := platformconfig.LoadEnvFile(c.String("env-file")); err != nil {
		return err
	}
	base, err := platformconfig.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(base.LogLevel, base.ServiceName)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Error("load gateway config", zap.Error(err))
		return cli.Exit("", 1)
	}

	var m *metrics.Metrics
	clientOpts := []upstream.Option{upstream.WithTimeout(cfg.UpstreamTimeout), upstream.WithLogger(log)}
	if cfg.MetricsEnabled {
		m = metrics.New("usergateway")
		clientOpts = append(clientOpts, upstream.WithObserver(m))
	}
	userOpts, storeOpts := clientOpts, clientOpts
	if cfg.Breaker.Enabled {
		s := upstream.BreakerSettings{
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		}
		userOpts = append(append([]upstream.Option(nil), clientOpts...), upstream.WithCircuitBreaker(upstream.NewBreaker("user", s, log)))
		storeOpts = append(append([]upstream.Option(nil), clientOpts...), upstream.WithCircuitBreaker(upstream.NewBreaker("store", s, log)))
	}

	var publisher handlers.EventPublisher
	if cfg.NATSURL != "" {
		nc, err := natsconn.Connect(natsconn.Options{URL: cfg.NATSURL, Name: base.ServiceName, Logger: log})
		if err != nil {
			log.Error("nats connect", zap.Error(err))
			return cli.Exit("", 1)
		}
		defer nc.Close()
		publisher = events.New(nc, log)
	}

	var draining atomic.Bool
	router := app.NewRouter(app.Deps{
		Log:     log,
		HTTP:    base.HTTP,
		Config:  cfg,
		Users:   upstream.NewUserClient(cfg.UserBaseURL, userOpts...),
		Stores:  upstream.NewStoreClient(cfg.StoreBaseURL, storeOpts...),
		Events:  publisher,
		Metrics: m,
		Ready: func() error {
			if draining.Load() {
				return errDraining
			}
			return nil
		},
	})
	srv := httpserver.New(httpserver.Options{Addr: base.HTTP.Addr, Router: router})

	var health *grpchealth.Server
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			log.Error("grpc listen", zap.String("addr", cfg.GRPCAddr), zap.Error(err))
			return cli.Exit("", 1)
		}
		health = grpchealth.New(base.ServiceName, log)
		go func() {
			if err := health.Serve(lis); err != nil {
				log.Warn("grpc health server stopped", zap.Error(err))
			}
		}()
	}

	log.Info("user gateway configured",
		zap.String("user_base_url", cfg.UserBaseURL),
		zap.String("store_base_url", cfg.StoreBaseURL),
		zap.String("api_prefix", cfg.APIPrefix),
		zap.String("timestamp_keys", cfg.TimestampKeys.String()),
		zap.Bool("breaker", cfg.Breaker.Enabled),
		zap.Float64("rate_limit_rps", cfg.RateLimit.RPS),
		zap.Bool("events", publisher != nil),
	)

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		return srv.Start(log)
	})

	draining.Store(true)
	if health != nil {
		health.SetServing(false)
	}
	runner.Graceful(
		srv.Shutdown,
		func(ctx context.Context) error {
			if health != nil {
				timeout := 5 * time.Second
				if dl, ok := ctx.Deadline(); ok {
					timeout = time.Until(dl)
				}
				health.Stop(timeout)
			}
			return nil
		},
	)

	log.Info("exit", zap.Int("code", code))
	if code != 0 {
		return cli.Exit("", code)
	}
	return nil
}
