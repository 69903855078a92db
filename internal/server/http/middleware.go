package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"menulens/internal/logging"
	"menulens/internal/menu"
	"menulens/internal/observability"
	"menulens/internal/utils/id"
)

// CORSMiddleware allows the configured origins. "*" allows any origin.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Requested-With", LogIDHeader}
	corsConfig.ExposeHeaders = []string{LogIDHeader}

	allowAll := len(origins) == 0
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			allowAll = true
		}
	}
	if allowAll {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}
	return cors.New(corsConfig)
}

// LogIDMiddleware reuses an inbound X-Log-Id or mints one, and attaches a
// fresh request id.
func LogIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		logID := strings.TrimSpace(c.GetHeader(LogIDHeader))
		if logID == "" {
			logID = id.NewLogID()
		}
		ctx := id.WithIDs(c.Request.Context(), id.IDs{LogID: logID, RequestID: id.NewRequestID()})
		c.Request = c.Request.WithContext(ctx)
		c.Header(LogIDHeader, logID)
		c.Next()
	}
}

// LoggingMiddleware logs one line per request.
func LoggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		logging.FromContext(c.Request.Context(), logger).Info(
			"route=%s method=%s status=%d latency_ms=%.2f bytes=%d",
			route,
			c.Request.Method,
			c.Writer.Status(),
			float64(time.Since(start).Microseconds())/1000.0,
			c.Writer.Size(),
		)
	}
}

// RecoveryMiddleware turns a handler panic into the generic failure reply.
func RecoveryMiddleware(logger logging.Logger) gin.HandlerFunc {
	logger = logging.OrNop(logger)
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.FromContext(c.Request.Context(), logger).Error("panic serving %s: %v", c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, menu.Fail(menu.KindUpstreamServer, menu.MsgGeneric))
	})
}

// TracingMiddleware opens a server span per request. A nil tracer disables it.
func TracingMiddleware(tracer trace.Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tracer == nil {
			c.Next()
			return
		}
		ctx, span := observability.StartSpan(c.Request.Context(), tracer, observability.SpanHTTPServer,
			attribute.String("http.method", c.Request.Method),
			attribute.String("http.route", c.FullPath()),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
