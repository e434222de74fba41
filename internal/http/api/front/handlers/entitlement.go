package handlers

import (
	"net/http"
	"strings"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/gin-gonic/gin"
)

// EntitlementHandler answers pre-flight entitlement checks.
type EntitlementHandler struct {
	engine *billing.Engine
}

// NewEntitlementHandler constructs an EntitlementHandler.
func NewEntitlementHandler(engine *billing.Engine) *EntitlementHandler {
	return &EntitlementHandler{engine: engine}
}

// Check resolves whether the subscriber may consume one more unit of the
// feature under its current plan and usage.
func (h *EntitlementHandler) Check(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}
	featureKey := strings.TrimSpace(c.Query("feature_key"))
	if featureKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "feature_key is required"})
		return
	}

	result, errCheck := h.engine.CheckEntitlement(c.Request.Context(), subscriberID, featureKey)
	if errCheck != nil {
		respondEngineError(c, errCheck)
		return
	}
	c.JSON(http.StatusOK, result)
}
