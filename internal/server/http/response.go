package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"menulens/internal/menu"
	"menulens/internal/utils/id"
)

// LogIDHeader carries the submission log id in both directions.
const LogIDHeader = id.LogIDHeader

// StatusFor maps an Outcome to the proxy hop's HTTP status.
func StatusFor(outcome menu.Outcome) int {
	failure, ok := outcome.(*menu.Failure)
	if !ok {
		return http.StatusOK
	}
	switch failure.Kind {
	case menu.KindInputInvalid:
		return http.StatusBadRequest
	case menu.KindTransportTimeout:
		return http.StatusGatewayTimeout
	case menu.KindUpstreamClient, menu.KindUpstreamServer:
		if failure.StatusCode >= 400 && failure.StatusCode <= 599 {
			return failure.StatusCode
		}
	}
	return http.StatusInternalServerError
}

func writeOutcome(c *gin.Context, outcome menu.Outcome) {
	if logID := id.LogIDFromContext(c.Request.Context()); logID != "" {
		c.Header(LogIDHeader, logID)
	}
	c.JSON(StatusFor(outcome), outcome)
}
