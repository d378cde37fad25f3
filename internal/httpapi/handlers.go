package httpapi

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/callevents"
	"telecom-bridge/internal/events"
	"telecom-bridge/internal/reporting"
	"telecom-bridge/internal/transfer"
	"telecom-bridge/pkg/logger"
	"telecom-bridge/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	CallEvents *callevents.Processor
	Transfers  *transfer.Orchestrator
	Guard      transfer.Guard
	Audit      *audit.Service
	Hub        *events.Hub
	Reports    *reporting.Service
	DB         *sql.DB

	// PublicURL maps a request path to the absolute URL the provider uses
	// to reach this service.
	PublicURL func(path string) string

	RecordConferences bool
}

// Health pings the database when one is wired.
func (h Handlers) Health(c *gin.Context) {
	if h.DB != nil {
		if err := utils.HealthCheck(c.Request.Context(), h.DB, 2*time.Second); err != nil {
			log(c).Error("health check failed", "err", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// statusFor maps service errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, transfer.ErrTransferInProgress):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	status := statusFor(err)
	_ = c.Error(err)
	if status >= http.StatusInternalServerError {
		// Internal details stay in the log.
		c.AbortWithStatusJSON(status, gin.H{"error": http.StatusText(status)})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

func log(c *gin.Context) *slog.Logger {
	return logger.FromGin(c)
}
