package httpapi

import (
	"net/http"
	"time"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/reporting"

	"github.com/gin-gonic/gin"
)

const defaultReportWindow = 24 * time.Hour

// CallsReport summarizes the call log over ?from=&to= (RFC 3339, default
// the last 24h), optionally filtered by ?direction=.
func (h Handlers) CallsReport(c *gin.Context) {
	rng, err := reportRange(c, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.Reports.CallsSummary(c.Request.Context(), reporting.CallsSummaryRequest{
		Range:     rng,
		Direction: c.Query("direction"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// CallActionsReport summarizes audited agent call-control actions,
// optionally for one ?actor=.
func (h Handlers) CallActionsReport(c *gin.Context) {
	rng, err := reportRange(c, time.Now())
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.Reports.CallActions(c.Request.Context(), reporting.CallActionsRequest{
		Range:         rng,
		ActorUsername: c.Query("actor"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func reportRange(c *gin.Context, now time.Time) (reporting.TimeRange, error) {
	rng := reporting.TimeRange{To: now.UTC()}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return rng, apperr.Validation("reports.range", "to must be RFC 3339, got %q", v)
		}
		rng.To = t.UTC()
	}
	rng.From = rng.To.Add(-defaultReportWindow)
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return rng, apperr.Validation("reports.range", "from must be RFC 3339, got %q", v)
		}
		rng.From = t.UTC()
	}
	return rng, nil
}
