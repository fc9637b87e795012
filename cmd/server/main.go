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

	"github.com/Harshitk-cp/topicgraph/internal/api"
	"github.com/Harshitk-cp/topicgraph/internal/buildconfig"
	"github.com/Harshitk-cp/topicgraph/internal/config"
	"github.com/Harshitk-cp/topicgraph/internal/logging"
	"github.com/Harshitk-cp/topicgraph/internal/store"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(config.AppEnv(), config.LogLevel())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	backends, err := store.OpenBackends(ctx, store.BackendConfig{
		Primary:       config.TopicStore(),
		DatabaseURL:   config.DatabaseURL(),
		Neo4jURI:      config.Neo4jURI(),
		Neo4jUser:     config.Neo4jUser(),
		Neo4jPassword: config.Neo4jPassword(),
		Neo4jDatabase: config.Neo4jDatabase(),
	}, logger)
	if err != nil {
		logger.Fatal("failed to open backends", zap.Error(err))
	}
	defer backends.Close()

	app, err := api.NewApp(api.Deps{
		Store:   backends.Store,
		Mirrors: backends.Mirrors,
		Ping:    backends.Ping,
	}, logger)
	if err != nil {
		logger.Fatal("failed to build app", zap.Error(err))
	}
	app.Start()

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", zap.String("addr", addr), zap.String("version", buildconfig.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("shutting down server")

	app.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
