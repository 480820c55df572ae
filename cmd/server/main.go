package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/stwalsh4118/tnb/internal/config"
	"github.com/stwalsh4118/tnb/internal/database"
	"github.com/stwalsh4118/tnb/internal/fiscal"
	"github.com/stwalsh4118/tnb/internal/handlers"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/metrics"
	"github.com/stwalsh4118/tnb/internal/repository"
	"github.com/stwalsh4118/tnb/internal/services"
	"github.com/stwalsh4118/tnb/internal/workflow"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Server.Env, cfg.Log.Level)
	log.Info("Starting TNB fiscal service", logger.Fields{
		"version":     handlers.APIVersion,
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	calculator, err := fiscal.NewCalculator(cfg.Fiscal)
	if err != nil {
		log.Fatal("Invalid fiscal policy", err, nil)
	}
	machine, err := workflow.NewMachine(cfg.Workflow)
	if err != nil {
		log.Fatal("Invalid workflow policy", err, nil)
	}
	apportioner := fiscal.NewApportioner(cfg.Fiscal.ShareTolerance)

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, logger.Fields{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", logger.Fields{
		"host":     cfg.Database.Host,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	if cfg.Database.AutoMigrate {
		if err := db.EnsureSchema(ctx); err != nil {
			log.Fatal("Failed to apply schema", err, nil)
		}
		log.Info("Schema is up to date", nil)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	parcelRepo := repository.NewParcelRepository(db)
	fiscalService := services.NewFiscalService(services.FiscalRepositories{
		Parcels: parcelRepo,
		Tariffs: repository.NewTariffRepository(db),
		Shares:  repository.NewShareRepository(db),
		Notices: repository.NewNoticeRepository(db),
	}, calculator, apportioner, machine, m, log)
	workflowService := services.NewWorkflowService(parcelRepo, machine, m, log)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := newRouter(routerDeps{
		cfg:      cfg,
		log:      log,
		db:       db,
		registry: registry,
		fiscal:   fiscalService,
		workflow: workflowService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server listening", logger.Fields{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, logger.Fields{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
