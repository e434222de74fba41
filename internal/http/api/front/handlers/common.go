package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/entitlement"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/gin-gonic/gin"
)

// subscriberIDParam extracts and validates the subscriber_id query value.
func subscriberIDParam(c *gin.Context) (string, bool) {
	subscriberID := strings.TrimSpace(c.Query("subscriber_id"))
	if subscriberID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscriber_id is required"})
		return "", false
	}
	return subscriberID, true
}

// respondEngineError maps engine errors onto HTTP statuses. Usage-store
// failures surface as 503 so callers retry instead of assuming zero usage.
func respondEngineError(c *gin.Context, err error) {
	var planErr *catalog.PlanNotFoundError
	var featureErr *entitlement.InvalidFeatureKeyError
	var usageErr *metering.UsageUnavailableError
	switch {
	case errors.As(err, &planErr):
		c.JSON(http.StatusNotFound, gin.H{"error": planErr.Error()})
	case errors.As(err, &featureErr):
		c.JSON(http.StatusNotFound, gin.H{"error": featureErr.Error()})
	case errors.As(err, &usageErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "usage store unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
