// Command aaad serves the AAA engine over HTTP for the platform's other
// services: registration, login, refresh rotation, bearer validation, the
// admin audit query, and a Prometheus scrape endpoint.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sethvargo/go-envconfig"

	aaa "github.com/campuscore/aaa"
	"github.com/campuscore/aaa/audit"
	promexport "github.com/campuscore/aaa/metrics/export/prometheus"
	"github.com/campuscore/aaa/permission"
)

type config struct {
	Addr       string        `env:"AAA_ADDR, default=:8086"`
	Secret     string        `env:"AAA_SECRET, required"`
	Issuer     string        `env:"AAA_ISSUER, default=campuscore"`
	AccessTTL  time.Duration `env:"AAA_ACCESS_TTL, default=15m"`
	RefreshTTL time.Duration `env:"AAA_REFRESH_TTL, default=168h"`
	RedisAddr  string        `env:"AAA_REDIS_ADDR"`
	LogLevel   string        `env:"AAA_LOG_LEVEL, default=info"`
}

func main() {
	ctx := context.Background()

	var cfg config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		boot := zerolog.New(os.Stderr)
		boot.Fatal().Err(err).Msg("load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Str("service", "aaad").Logger()

	builder := aaa.New().
		WithConfig(aaa.Config{
			Token: aaa.TokenConfig{
				AccessTTL:     cfg.AccessTTL,
				RefreshTTL:    cfg.RefreshTTL,
				SigningMethod: aaa.MethodHS256,
				PrivateKey:    []byte(cfg.Secret),
				Issuer:        cfg.Issuer,
			},
			Audit:   aaa.AuditConfig{MirrorEnabled: true, MirrorDropIfFull: true},
			Metrics: aaa.MetricsConfig{Enabled: true, EnableLatency: true},
		}).
		WithAuditSink(audit.NewJSONWriterSink(os.Stdout)).
		WithLogger(logger)

	if cfg.RedisAddr != "" {
		builder = builder.WithRedis(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
	}

	engine, err := builder.Build()
	if err != nil {
		logger.Fatal().Err(err).Msg("build engine")
	}
	defer engine.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		promexport.NewCollector(engine, "aaa"),
	)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// Fail fast on a typoed guard constant: the admin wildcard would
	// still authorize it, silently hiding the mistake.
	for _, perm := range []string{
		permission.PermReadUsers,
		permission.PermWriteUsers,
		permission.PermDeleteUsers,
		permission.PermReadAuditLogs,
	} {
		if !engine.KnownPermission(perm) {
			logger.Fatal().Str("permission", perm).Msg("route guard uses unknown permission name")
		}
	}

	srv := &server{engine: engine}
	srv.route(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	go func() {
		if err := e.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server stopped")
		}
	}()
	logger.Info().Str("addr", cfg.Addr).Msg("listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
}
