// Command academy-stub serves the in-memory course API for local use of ac.
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

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/apitest"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main starts the fake API and shuts it down on SIGINT/SIGTERM.
func main() {
	addr := flag.String("addr", ":3001", "listen address")
	signKey := flag.String("jwt-key", "academy-stub", "HS256 signing key")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", *addr),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fake := apitest.NewFake([]byte(*signKey))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           fake.Handler(logger),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr),
			zap.String("student", apitest.StudentEmail), zap.String("admin", apitest.AdminEmail))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
