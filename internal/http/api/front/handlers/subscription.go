package handlers

import (
	"net/http"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler exposes subscription status and tier flags.
type SubscriptionHandler struct {
	engine *billing.Engine
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(engine *billing.Engine) *SubscriptionHandler {
	return &SubscriptionHandler{engine: engine}
}

// Status resolves the subscriber's lifecycle status.
func (h *SubscriptionHandler) Status(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}

	status, errStatus := h.engine.GetSubscriptionStatus(c.Request.Context(), subscriberID)
	if errStatus != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve subscription failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriber_id": subscriberID, "status": status})
}

// Tier returns the tier-gated feature flags for the subscriber.
func (h *SubscriptionHandler) Tier(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}

	info, errTier := h.engine.GetTierInfo(c.Request.Context(), subscriberID)
	if errTier != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "resolve tier failed"})
		return
	}
	c.JSON(http.StatusOK, info)
}
