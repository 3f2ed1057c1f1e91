// Command roleauth-server serves the supervisor and recruiter authentication
// endpoints over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	roleAuth "github.com/MrEthical07/roleAuth"
	"github.com/MrEthical07/roleAuth/httpapi"
	"github.com/MrEthical07/roleAuth/internal/config"
	otelexport "github.com/MrEthical07/roleAuth/metrics/export/otel"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// The configured logger does not exist yet.
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("failed to build logger", zap.Error(err))
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := config.OpenStore(ctx, cfg.Store)
	if err != nil {
		logger.Fatal("failed to open identity store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("identity store close failed", zap.Error(err))
		}
	}()

	builder := roleAuth.New().
		WithConfig(cfg.Engine()).
		WithStore(store).
		WithLogger(logger)
	if cfg.Auth.Audit {
		builder = builder.WithAuditSink(roleAuth.NewZapSink(logger))
	}
	engine, err := builder.Build()
	if err != nil {
		logger.Fatal("failed to build auth engine", zap.Error(err))
	}
	defer engine.Close()

	if cfg.OTel {
		exporter, err := otelexport.NewExporter(otel.GetMeterProvider().Meter("github.com/MrEthical07/roleAuth"), engine)
		if err != nil {
			logger.Fatal("failed to register otel instruments", zap.Error(err))
		}
		defer exporter.Close()
	}

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           httpapi.NewHandler(engine, logger, httpapi.Options{}).Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server failed", zap.Error(err))
		}
	}()
	logger.Info("roleauth-server started",
		zap.String("listen", cfg.Listen),
		zap.String("store", cfg.Store.Backend),
	)

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	logger.Info("roleauth-server stopped cleanly")
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	return zc.Build()
}
