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

	"github.com/timmy/cinematch/internal/api"
	"github.com/timmy/cinematch/internal/app"
	"github.com/timmy/cinematch/internal/config"
	"github.com/timmy/cinematch/internal/logger"
	"github.com/timmy/cinematch/internal/repository"
	"github.com/timmy/cinematch/internal/service"
)

func main() {
	appLogger := logger.NewFromEnv(nil)
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	// CONFIG_PATH points at the YAML file in deployments.
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to load config")
	}

	db, err := repository.InitDB(&cfg.Database)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to initialize database")
	}
	historyRepo := repository.NewHistoryRepository(db)

	// SIGINT/SIGTERM during the build aborts it; the server is never started with a partial engine.
	buildCtx, stopBuild := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	engine, buildResult, err := app.BuildEngine(buildCtx, cfg, false)
	stopBuild()
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to build recommendation engine")
	}

	recommendService := service.NewRecommendService(engine, historyRepo, buildResult, &service.RecommendConfig{
		HistoryLimit: cfg.History.RecentLimit,
	})
	router := api.SetupRouter(recommendService, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithFields(logger.Fields{
			"port":   cfg.Server.Port,
			"mode":   cfg.Server.Mode,
			"movies": engine.Len(),
		}).Info("Starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	appLogger.Info("Server exited")
}
