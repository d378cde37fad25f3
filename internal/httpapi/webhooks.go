package httpapi

import (
	"context"
	"net/http"

	"telecom-bridge/internal/callevents"
	"telecom-bridge/internal/telephony"

	"github.com/gin-gonic/gin"
)

// RequireTwilioSignature rejects requests whose X-Twilio-Signature does not
// match the public URL and POST parameters.
func RequireTwilioSignature(authToken string, publicURL func(path string) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := c.Request.ParseForm(); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form body"})
			return
		}
		full := publicURL(c.Request.URL.RequestURI())
		sig := c.GetHeader(telephony.HeaderSignature)
		if sig == "" || !telephony.ValidSignature(authToken, full, c.Request.PostForm, sig) {
			log(c).Warn("webhook signature rejected", "url", full)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid signature"})
			return
		}
		c.Next()
	}
}

type webhookFunc func(ctx context.Context, p telephony.WebhookPayload) (callevents.Outcome, error)

// ConferenceWebhook handles conference status callbacks.
func (h Handlers) ConferenceWebhook(c *gin.Context) {
	h.webhook(c, h.CallEvents.HandleCallEvent)
}

// StatusWebhook handles call status callbacks.
func (h Handlers) StatusWebhook(c *gin.Context) {
	h.webhook(c, h.CallEvents.HandleCallEvent)
}

func (h Handlers) OutboundStatusWebhook(c *gin.Context) {
	h.webhook(c, h.CallEvents.HandleOutboundStatus)
}

func (h Handlers) RecordingWebhook(c *gin.Context) {
	h.webhook(c, h.CallEvents.HandleRecording)
}

// webhook acknowledges with 200 unless the failure would be lost: a call
// log write failure alone is still acknowledged.
func (h Handlers) webhook(c *gin.Context, fn webhookFunc) {
	payload, err := telephony.ParseWebhook(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form body"})
		return
	}
	out, err := fn(c.Request.Context(), payload)
	if err != nil {
		log(c).Error("webhook failed",
			"event", string(out.Event.Kind),
			"call_sid", payload.CallSid,
			"conference_sid", payload.ConferenceSid,
			"err", err,
		)
		writeError(c, err)
		return
	}
	if out.BookkeepingErr != nil {
		_ = c.Error(out.BookkeepingErr)
	}
	c.JSON(http.StatusOK, gin.H{
		"event":      out.Event.Kind,
		"persisted":  out.Persisted,
		"dispatched": out.Dispatched,
	})
}

// ConferenceTwiML serves the TwiML that joins a call to :conference. It is
// the join URL used when bridging a consult leg.
func (h Handlers) ConferenceTwiML(c *gin.Context) {
	body, err := telephony.ConferenceTwiML(c.Param("conference"), telephony.ConferenceOptions{
		StartOnEnter:      true,
		Record:            h.RecordConferences,
		StatusCallback:    h.PublicURL("/webhooks/voice/conference"),
		RecordingCallback: h.PublicURL("/webhooks/voice/recording"),
	})
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", []byte(body))
}
