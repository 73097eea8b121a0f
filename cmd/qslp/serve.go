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

	"github.com/iwvelando/qslp-calculator/internal/config"
	"github.com/iwvelando/qslp-calculator/internal/metrics"
	"github.com/iwvelando/qslp-calculator/internal/server"
	"github.com/iwvelando/qslp-calculator/internal/wizard"
	"github.com/iwvelando/qslp-calculator/pkg/constants"
	"github.com/iwvelando/qslp-calculator/pkg/match"
	"github.com/iwvelando/qslp-calculator/pkg/simulation"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the calculator web UI and API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.runServe(ctx)
		},
	}
	cmd.Flags().String("address", "", "listen address override (e.g. :8080)")
	return cmd
}

func (a *app) runServe(ctx context.Context) error {
	serverConfig, err := server.NewConfig(a.conf.Server)
	if err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	store, closeStore, err := newSessionStore(ctx, a.conf.Sessions, a.logger)
	if err != nil {
		return err
	}
	defer closeStore()

	handler := server.NewHandler(server.Options{
		Logger:            a.logger,
		Calculator:        match.NewCalculator(a.conf.Assumptions),
		Store:             store,
		Metrics:           metrics.New(),
		Simulator:         simulation.NewSimulator(nil),
		MaxUploadSize:     serverConfig.UploadSizeBytes(),
		RequestsPerSecond: serverConfig.RequestsPerSecond,
		Burst:             serverConfig.Burst,
		Version:           Version,
	})

	srv := &http.Server{
		Addr:              serverConfig.Address,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server",
			zap.String("op", "main.serve"),
			zap.String("address", serverConfig.Address),
			zap.Int64("maxUploadSize", serverConfig.UploadSizeBytes()),
			zap.String("sessions", a.conf.Sessions.Backend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server", zap.String("op", "main.serve"))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newSessionStore builds the configured form session store and a cleanup func.
func newSessionStore(ctx context.Context, sc config.SessionConfig, logger *zap.Logger) (wizard.Store, func(), error) {
	switch sc.Backend {
	case constants.SessionBackendRedis:
		client, err := wizard.NewRedisClient(ctx, sc.Redis.Address, sc.Redis.Password, sc.Redis.DB)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Close(); err != nil {
				logger.Warn("failed to close redis client",
					zap.String("op", "main.serve"),
					zap.Error(err),
				)
			}
		}
		return wizard.NewRedisStore(client, sc.Redis.KeyPrefix, sc.TTL), cleanup, nil
	case constants.SessionBackendMemory, "":
		return wizard.NewMemoryStore(sc.TTL), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown session backend %q", sc.Backend)
}
