package main

import (
	"telecom-bridge/internal/config"
	"telecom-bridge/internal/httpapi"
	"telecom-bridge/internal/rbac"

	"github.com/gin-gonic/gin"
)

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, h httpapi.Handlers, cfg config.Config, authMW gin.HandlerFunc) {
	// public
	r.GET("/healthz", h.Health)

	// Provider callbacks and TwiML fetches.
	provider := r.Group("")
	if cfg.Twilio.ValidateSignatures {
		provider.Use(httpapi.RequireTwilioSignature(cfg.Twilio.AuthToken, cfg.URL))
	}
	{
		hooks := provider.Group("/webhooks/voice")
		hooks.POST("/conference", h.ConferenceWebhook)
		hooks.POST("/status", h.StatusWebhook)
		hooks.POST("/outbound-status", h.OutboundStatusWebhook)
		hooks.POST("/recording", h.RecordingWebhook)

		provider.GET("/twiml/conference/:conference", h.ConferenceTwiML)
		provider.POST("/twiml/conference/:conference", h.ConferenceTwiML)
	}

	// protected API group
	v1 := r.Group("/v1")
	v1.Use(authMW)
	{
		v1.GET("/events/ws", h.EventsWS)

		// CALL CONTROL routes
		agent := v1.Group("")
		agent.Use(rbac.RequireAnyRole(rbac.RoleAgent, rbac.RoleSupervisor))
		{
			agent.POST("/transfers/attended", h.AttendedTransfer)
			agent.POST("/transfers/blind", h.BlindTransfer)
			agent.POST("/calls/:call_sid/hangup", h.Hangup)
			agent.POST("/calls/:call_sid/digits", h.SendDigits)
			agent.DELETE("/conferences/:conference_sid/participants/:call_sid", h.RemoveParticipant)
		}

		// REPORTS routes
		reports := v1.Group("/reports")
		reports.Use(rbac.RequireAnyRole(rbac.RoleSupervisor))
		{
			reports.GET("/calls", h.CallsReport)
			reports.GET("/call-actions", h.CallActionsReport)
		}
	}
}
