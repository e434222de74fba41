package handlers

import (
	"net/http"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// UsageHandler handles usage recording and statistics endpoints.
type UsageHandler struct {
	db       *gorm.DB
	recorder *metering.Recorder
}

// NewUsageHandler constructs a UsageHandler.
func NewUsageHandler(db *gorm.DB, recorder *metering.Recorder) *UsageHandler {
	return &UsageHandler{db: db, recorder: recorder}
}

type recordUsageRequest struct {
	SubscriberID string `json:"subscriber_id" binding:"required"`
	FeatureKey   string `json:"feature_key" binding:"required"`
	Units        int64  `json:"units" binding:"required"`
	Source       string `json:"source"`
}

// Record appends one consumption event.
func (h *UsageHandler) Record(c *gin.Context) {
	var req recordUsageRequest
	if errBind := c.ShouldBindJSON(&req); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if req.Units <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "units must be positive"})
		return
	}

	if errRecord := h.recorder.Record(c.Request.Context(), req.SubscriberID, req.FeatureKey, req.Units, req.Source); errRecord != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "record usage failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// featureSummary aggregates recorded units per feature key.
type featureSummary struct {
	FeatureKey string `json:"feature_key"`
	TotalUnits int64  `json:"total_units"`
}

// Stats returns per-feature usage totals for recent time windows.
func (h *UsageHandler) Stats(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	periods := map[string]time.Time{
		"today":   today,
		"7_days":  today.AddDate(0, 0, -6),
		"30_days": today.AddDate(0, 0, -29),
	}

	result := make(map[string][]featureSummary)
	for name, since := range periods {
		var rows []featureSummary
		if errScan := h.db.WithContext(c.Request.Context()).Model(&models.UsageRecord{}).
			Where("subscriber_id = ? AND recorded_at >= ?", subscriberID, since).
			Select("feature_key, COALESCE(SUM(units), 0) AS total_units").
			Group("feature_key").
			Order("feature_key").
			Scan(&rows).Error; errScan != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query usage failed"})
			return
		}
		if rows == nil {
			rows = []featureSummary{}
		}
		result[name] = rows
	}

	c.JSON(http.StatusOK, result)
}
