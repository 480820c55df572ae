package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stwalsh4118/tnb/internal/config"
	"github.com/stwalsh4118/tnb/internal/handlers"
	"github.com/stwalsh4118/tnb/internal/logger"
	"github.com/stwalsh4118/tnb/internal/middleware"
	"github.com/stwalsh4118/tnb/internal/services"
)

// routerDeps is everything the HTTP layer needs from main.
type routerDeps struct {
	cfg      *config.Config
	log      *logger.Logger
	db       handlers.Pinger
	registry *prometheus.Registry
	fiscal   services.FiscalService
	workflow services.WorkflowService
}

func newRouter(deps routerDeps) *gin.Engine {
	router := gin.New()

	// Order matters: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(deps.log))
	router.Use(middleware.Recovery(deps.log))
	router.Use(middleware.CORS(deps.cfg.CORS.Origins))

	healthHandler := handlers.NewHealthHandler(deps.db, deps.cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.registry, promhttp.HandlerOpts{})))

	fiscalHandler := handlers.NewFiscalHandler(deps.fiscal)
	workflowHandler := handlers.NewWorkflowHandler(deps.workflow)

	v1 := router.Group("/api/v1", middleware.Identity())
	{
		parcels := v1.Group("/parcels/:id")
		{
			parcels.GET("/fiscal", fiscalHandler.Preview)
			parcels.POST("/notices", fiscalHandler.Issue)
			parcels.GET("/transitions", workflowHandler.Available)
			parcels.POST("/transitions", workflowHandler.Transition)
		}
	}

	return router
}
