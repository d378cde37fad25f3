package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"telecom-bridge/internal/apperr"
	"telecom-bridge/internal/audit"
	"telecom-bridge/internal/auth"
	"telecom-bridge/internal/events"
	"telecom-bridge/internal/rbac"
	"telecom-bridge/internal/transfer"

	"github.com/gin-gonic/gin"
)

// AttendedTransfer runs the hold/dial/bridge/resume saga. Only one transfer
// per conference may run at a time.
func (h Handlers) AttendedTransfer(c *gin.Context) {
	var req transfer.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	req.ConferenceID = strings.TrimSpace(req.ConferenceID)
	if req.ConferenceID == "" {
		writeError(c, apperr.Validation("transfer.attended", "missing conference_id"))
		return
	}

	ctx := c.Request.Context()
	release, err := h.Guard.Acquire(ctx, req.ConferenceID)
	if err != nil {
		writeError(c, err)
		return
	}
	defer release()

	sess, err := h.Transfers.AttendedTransfer(ctx, req)
	h.audit(c, audit.CallAction{
		Action:       audit.ActionAttendedTransfer,
		CallID:       req.OriginalCallID,
		ConferenceID: req.ConferenceID,
		Metadata:     metadata(gin.H{"consult_to": req.ConsultTo}),
	}, err)
	if err != nil {
		te, ok := transfer.AsError(err)
		if !ok {
			writeError(c, err)
			return
		}
		_ = c.Error(err)
		status := statusFor(te.Err)
		c.AbortWithStatusJSON(status, gin.H{
			"error":                 transferMessage(status, te),
			"session":               te.Session,
			"reached":               te.Reached,
			"attempted":             te.Attempted,
			"compensated":           te.Compensated,
			"partially_transferred": te.PartiallyTransferred(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess})
}

func transferMessage(status int, te *transfer.Error) string {
	if status >= http.StatusInternalServerError {
		return string(te.Attempted) + " failed"
	}
	return te.Error()
}

type blindTransferRequest struct {
	CallSid       string `json:"call_sid"`
	ConferenceSid string `json:"conference_sid,omitempty"`
	RedirectURL   string `json:"redirect_url"`
}

func (h Handlers) BlindTransfer(c *gin.Context) {
	var req blindTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	err := h.Transfers.BlindTransfer(c.Request.Context(), req.CallSid, req.RedirectURL)
	h.audit(c, audit.CallAction{
		Action:       audit.ActionBlindTransfer,
		CallID:       req.CallSid,
		ConferenceID: req.ConferenceSid,
		Metadata:     metadata(gin.H{"redirect_url": req.RedirectURL}),
	}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "redirected"})
}

func (h Handlers) Hangup(c *gin.Context) {
	callSid := c.Param("call_sid")
	err := h.Transfers.Hangup(c.Request.Context(), callSid)
	h.audit(c, audit.CallAction{Action: audit.ActionHangup, CallID: callSid}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

type sendDigitsRequest struct {
	Digits      string `json:"digits"`
	ContinueURL string `json:"continue_url"`
}

func (h Handlers) SendDigits(c *gin.Context) {
	var req sendDigitsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	callSid := c.Param("call_sid")
	err := h.Transfers.SendDigits(c.Request.Context(), callSid, req.Digits, req.ContinueURL)
	// Digits are not recorded; they may be a PIN.
	h.audit(c, audit.CallAction{Action: audit.ActionSendDigits, CallID: callSid}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func (h Handlers) RemoveParticipant(c *gin.Context) {
	conferenceSid := c.Param("conference_sid")
	callSid := c.Param("call_sid")
	err := h.Transfers.RemoveParticipant(c.Request.Context(), conferenceSid, callSid)
	h.audit(c, audit.CallAction{
		Action:       audit.ActionRemoveParticipant,
		CallID:       callSid,
		ConferenceID: conferenceSid,
	}, err)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// audit is best-effort: a failed write is logged and never changes the
// response.
func (h Handlers) audit(c *gin.Context, a audit.CallAction, opErr error) {
	if h.Audit == nil {
		return
	}
	ctx := c.Request.Context()
	a.ActorUsername, _ = auth.Username(ctx)
	a.ActorRole, _ = auth.Role(ctx)
	a.IP = c.ClientIP()
	if err := h.Audit.LogCallAction(context.WithoutCancel(ctx), a, opErr); err != nil {
		log(c).Error("audit write failed", "action", string(a.Action), "err", err)
	}
}

func metadata(v gin.H) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

// EventsWS streams bus messages over a websocket. Without a channels
// query the caller gets its own per-user channels.
func (h Handlers) EventsWS(c *gin.Context) {
	ctx := c.Request.Context()
	username, err := auth.Username(ctx)
	if err != nil || username == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "identity required"})
		return
	}
	role, _ := auth.Role(ctx)
	privileged := rbac.IsPrivileged(role)

	requested := strings.Split(c.Query("channels"), ",")
	if strings.TrimSpace(c.Query("channels")) == "" {
		requested = []string{events.UserNotificationChannel(username), events.UserCallStatusChannel(username)}
	}
	channels := events.AllowedChannels(requested, username, privileged)
	if len(channels) == 0 {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "no permitted channels"})
		return
	}

	err = h.Hub.ServeWS(c.Writer, c.Request, events.Subscription{
		Username:   username,
		Privileged: privileged,
		Channels:   channels,
	})
	if err != nil {
		// The upgrader has already answered the request.
		log(c).Warn("websocket upgrade failed", "err", err)
	}
}
