// Package v1 provides HTTP API version 1.
package v1

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"tourdesk/internal/domain/finance"
	"tourdesk/internal/infrastructure/http/v1/handlers"
	"tourdesk/internal/infrastructure/http/v1/middleware"
	"tourdesk/pkg/logger"
)

// MetricsSink exposes request metrics and their scrape endpoint.
type MetricsSink interface {
	middleware.RequestObserver
	Handler() http.Handler
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Finance builds the financial summaries
	Finance handlers.FinanceService

	// Health is the database used by readiness checks
	Health handlers.Pinger

	// Metrics is optional; nil disables /metrics and request metrics
	Metrics MetricsSink

	// RequestTimeout bounds every API request; zero means no bound
	RequestTimeout time.Duration

	// Location is the business time zone query dates are read in
	Location *time.Location

	// Version is reported by /health/info
	Version string

	// Production enables HTTPS redirects and HSTS on the API
	Production bool

	// CORSOrigins are the browser origins allowed to call the API
	CORSOrigins []string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	if cfg.Logger != nil {
		router.Use(middleware.Logger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	router.Use(middleware.CORS(cfg.CORSOrigins, cfg.Production))
	router.Use(middleware.ErrorHandler())

	if cfg.Health != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Health, cfg.Version)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
			health.GET("/info", healthHandler.Info)
		}
	}

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Secure(cfg.Production))
	v1.Use(middleware.RequestClock(cfg.RequestTimeout, nil))
	registerFinanceRoutes(v1, cfg)

	return router
}

// registerFinanceRoutes registers the financial summary endpoints.
func registerFinanceRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.Finance == nil {
		return
	}

	h := handlers.NewFinanceHandler(handlers.NewBaseHandler(), cfg.Finance, cfg.Location)

	rg.GET("/financial-summary/overall", h.GetOverallSummary)

	hotels := rg.Group("/hotels/:id")
	{
		hotels.GET("/financial-summary", h.GetHotelSummary)
		hotels.GET("/lead-costs", h.ListLeadCosts(finance.EntityHotel))
	}

	transfers := rg.Group("/transfers/:id")
	{
		transfers.GET("/financial-summary", h.GetTransferSummary)
		transfers.GET("/lead-costs", h.ListLeadCosts(finance.EntityTransfer))
	}

	suppliers := rg.Group("/suppliers/:id")
	{
		suppliers.GET("/financial-summary", h.GetSupplierSummary)
		suppliers.GET("/lead-costs", h.ListLeadCosts(finance.EntitySupplier))
	}

	rg.GET("/employees/:id/financial-summary", h.GetEmployeeSummary)
}
