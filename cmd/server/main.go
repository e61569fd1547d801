// Copyright 2025 Review Feedback Project
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main runs the review feedback HTTP service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/your-org/review-feedback/internal/api"
	"github.com/your-org/review-feedback/internal/config"
	"github.com/your-org/review-feedback/internal/health"
	"github.com/your-org/review-feedback/internal/llm"
	"github.com/your-org/review-feedback/internal/review"
	"github.com/your-org/review-feedback/internal/store"
)

const (
	// ShutdownTimeout bounds the drain of in-flight requests on shutdown
	ShutdownTimeout = 10 * time.Second
)

var (
	configPath string
	portFlag   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "review-server",
		Short: "AI-enriched review feedback API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
		SilenceUsage: true,
	}

	rootCmd.Flags().StringVar(&configPath, "config", "", "path to config file (optional, env vars take precedence)")
	rootCmd.Flags().StringVar(&portFlag, "port", "", "listen port (overrides configuration)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting review feedback service",
		zap.String("environment", cfg.App.Environment),
		zap.String("database", cfg.Mongo.Database),
		zap.String("model", cfg.Gemini.Model),
	)

	// Connection failure at startup is fatal
	gateway := store.NewGateway(store.Config{
		URL:        cfg.Mongo.URL,
		Database:   cfg.Mongo.Database,
		Collection: cfg.Mongo.Collection,
	}, logger)
	if err := gateway.Connect(context.Background()); err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}

	generator, err := llm.NewClient(llm.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Model:   cfg.Gemini.Model,
		Timeout: time.Duration(cfg.Gemini.TimeoutSeconds) * time.Second,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Gemini client", zap.Error(err))
	}

	reviewStore := store.NewReviewStore(gateway, logger)
	service := review.NewService(generator, reviewStore, logger)

	healthManager := health.NewManager(api.ServiceName, api.ServiceVersion, cfg.App.Environment, logger)
	healthManager.AddChecker("mongodb", health.PingChecker(gateway.Ping))

	handler := api.NewHandler(service, healthManager, cfg.App.Environment, logger)

	if !cfg.IsProduction() {
		if err := config.WatchConfig(configPath, func(updated *config.Config) {
			logger.Info("Configuration file reloaded; restart to apply connection changes")
		}); err != nil {
			logger.Warn("Config hot reload unavailable", zap.Error(err))
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	handler.Register(router)

	port := cfg.Server.Port
	if portFlag != "" {
		port = portFlag
	}

	server := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", zap.String("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := gateway.Close(shutdownCtx); err != nil {
		logger.Error("MongoDB disconnect failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
	return nil
}

// newLogger builds the zap logger for the configured environment and level
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

// corsConfig derives the CORS middleware configuration from the allow-list.
// A wildcard list allows all origins without credentials; a concrete list
// allows credentialed requests from the named origins.
func corsConfig(cfg *config.Config) cors.Config {
	origins := cfg.CORSOriginList()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}

	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
		return corsCfg
	}

	corsCfg.AllowOrigins = origins
	corsCfg.AllowCredentials = true
	return corsCfg
}
