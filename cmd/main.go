package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/topcoder-platform/work-manager-sub000/internal/adapters/http/api"
	service "github.com/topcoder-platform/work-manager-sub000/internal/app"
	"github.com/topcoder-platform/work-manager-sub000/internal/config"
	"github.com/topcoder-platform/work-manager-sub000/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	// Default Go collectors would double up with the custom registry.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithResourceAPI(cfg.ResourceAPIURL),
		service.WithCatalogAPI(cfg.CatalogAPIURL),
		service.WithAuthToken(cfg.AuthToken),
		service.WithSettleWindow(cfg.SettleWindow()),
		service.WithSubmissionCount(cfg.SubmissionCount),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(context.Background(), "graceful shutdown failed", logger.Error(err))
	}
}
