package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lifeboard/lifeboard/internal/auth"
	"github.com/lifeboard/lifeboard/internal/config"
	"github.com/lifeboard/lifeboard/internal/database"
	"github.com/lifeboard/lifeboard/internal/logging"
	"github.com/lifeboard/lifeboard/internal/server"
)

const shutdownTimeout = 10 * time.Second

type ServeCmd struct{}

func (c *ServeCmd) Run(cfg *config.Config) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}

	logger := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, server.Options{
		Tokens:         auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL),
		Policy:         cfg.Policy(),
		AllowedOrigins: cfg.AllowedOrigins,
		TrustProxy:     cfg.TrustProxy,
	}, logger)

	httpServer := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		policy := cfg.Policy()
		logger.Info("LifeBoard listening",
			"addr", httpServer.Addr,
			"db", cfg.DBPath,
			"completion_mode", policy.Mode,
			"allow_future", policy.AllowFuture,
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return srv.RunMaintenance(gctx, time.Minute)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
