package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionHandler manages subscription records mirrored from the
// upstream billing provider.
type SubscriptionHandler struct {
	db      *gorm.DB
	catalog *catalog.Catalog
}

// NewSubscriptionHandler constructs a SubscriptionHandler.
func NewSubscriptionHandler(db *gorm.DB, cat *catalog.Catalog) *SubscriptionHandler {
	return &SubscriptionHandler{db: db, catalog: cat}
}

type upsertSubscriptionRequest struct {
	SubscriberID       string     `json:"subscriber_id"`
	PlanID             string     `json:"plan_id"`
	Status             string     `json:"status"`
	CurrentPeriodStart time.Time  `json:"current_period_start"`
	CurrentPeriodEnd   time.Time  `json:"current_period_end"`
	CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
	CanceledAt         *time.Time `json:"canceled_at"`
}

// Upsert creates or replaces the subscription record for one subscriber.
func (h *SubscriptionHandler) Upsert(c *gin.Context) {
	var body upsertSubscriptionRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	subscriberID := strings.TrimSpace(body.SubscriberID)
	planID := strings.TrimSpace(body.PlanID)
	if subscriberID == "" || planID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscriber_id and plan_id are required"})
		return
	}
	if !h.catalog.HasPlan(planID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown plan_id"})
		return
	}
	if !body.CurrentPeriodEnd.After(body.CurrentPeriodStart) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "current_period_end must be after current_period_start"})
		return
	}

	status := strings.TrimSpace(body.Status)
	switch status {
	case "":
		status = models.SubscriptionStatusActive
	case models.SubscriptionStatusActive, models.SubscriptionStatusCanceled, models.SubscriptionStatusExpired:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	row := models.Subscription{
		SubscriberID:       subscriberID,
		PlanID:             planID,
		Status:             status,
		CurrentPeriodStart: body.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   body.CurrentPeriodEnd.UTC(),
		CancelAtPeriodEnd:  body.CancelAtPeriodEnd,
		CanceledAt:         body.CanceledAt,
	}
	if errSave := h.db.WithContext(c.Request.Context()).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "subscriber_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"plan_id", "status", "current_period_start", "current_period_end",
				"cancel_at_period_end", "canceled_at", "updated_at",
			}),
		}).
		Create(&row).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save subscription failed"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// Get returns one subscriber's subscription record.
func (h *SubscriptionHandler) Get(c *gin.Context) {
	subscriberID := strings.TrimSpace(c.Query("subscriber_id"))
	if subscriberID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscriber_id is required"})
		return
	}

	var row models.Subscription
	if errFind := h.db.WithContext(c.Request.Context()).
		Where("subscriber_id = ?", subscriberID).
		First(&row).Error; errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "subscription not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query subscription failed"})
		return
	}
	c.JSON(http.StatusOK, row)
}

// List returns all subscription records ordered by period end.
func (h *SubscriptionHandler) List(c *gin.Context) {
	var rows []models.Subscription
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("current_period_end ASC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query subscriptions failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscriptions": rows})
}
