// Package http exposes the proxy hop over HTTP.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"menulens/internal/logging"
	"menulens/internal/menu"
)

// RouterConfig carries the settings the routes need.
type RouterConfig struct {
	// ReleaseMode switches gin to release mode.
	ReleaseMode     bool
	CORSOrigins     []string
	MaxFileSize     int64
	DefaultLanguage string
	Version         string
	UpstreamURL     string
}

// RouterDeps are the collaborators behind the routes.
type RouterDeps struct {
	Processor Processor
	Logger    logging.Logger
	Tracer    trace.Tracer
}

// NewRouter creates the gin engine with every endpoint.
func NewRouter(cfg RouterConfig, deps RouterDeps) *gin.Engine {
	if cfg.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logging.OrNop(deps.Logger)

	engine := gin.New()
	engine.Use(
		LogIDMiddleware(),
		RecoveryMiddleware(logger),
		TracingMiddleware(deps.Tracer),
		LoggingMiddleware(logger),
		CORSMiddleware(cfg.CORSOrigins),
	)

	proxy := NewProxyHandler(deps.Processor, cfg.MaxFileSize, cfg.DefaultLanguage, logger)
	health := newHealthHandler(cfg)

	engine.GET("/health", health.handle)

	api := engine.Group("/api")
	{
		api.POST("/proxyWebhook", proxy.HandleScan)

		v1 := api.Group("/v1")
		v1.POST("/menu/scan", proxy.HandleScan)
		v1.GET("/languages", handleLanguages)
	}

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return engine
}

type healthHandler struct {
	version     string
	upstreamSet bool
	startTime   time.Time
}

func newHealthHandler(cfg RouterConfig) *healthHandler {
	version := cfg.Version
	if version == "" {
		version = "dev"
	}
	return &healthHandler{
		version:     version,
		upstreamSet: cfg.UpstreamURL != "",
		startTime:   time.Now(),
	}
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status             string    `json:"status"`
	Version            string    `json:"version"`
	Timestamp          time.Time `json:"timestamp"`
	Uptime             string    `json:"uptime"`
	UpstreamConfigured bool      `json:"upstream_configured"`
}

func (h *healthHandler) handle(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:             "ok",
		Version:            h.version,
		Timestamp:          time.Now().UTC(),
		Uptime:             time.Since(h.startTime).Round(time.Second).String(),
		UpstreamConfigured: h.upstreamSet,
	})
}

func handleLanguages(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"languages": menu.SupportedLanguages,
		"default":   menu.DefaultLanguage,
	})
}
