package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/OzzaAI/ozzastart-sub001/internal/db"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoice"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoicing"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// InvoiceHandler manages issued invoices and invoicing runs.
type InvoiceHandler struct {
	db     *gorm.DB
	engine *billing.Engine
	store  *invoice.GormStore
	runner *invoicing.Runner
}

// NewInvoiceHandler constructs an InvoiceHandler.
func NewInvoiceHandler(conn *gorm.DB, engine *billing.Engine, runner *invoicing.Runner) *InvoiceHandler {
	return &InvoiceHandler{db: conn, engine: engine, store: invoice.NewGormStore(conn), runner: runner}
}

// List returns stored invoices, optionally filtered by subscriber pattern
// and period bounds.
func (h *InvoiceHandler) List(c *gin.Context) {
	var (
		subscriber = strings.TrimSpace(c.Query("subscriber"))
		fromStr    = strings.TrimSpace(c.Query("from"))
		toStr      = strings.TrimSpace(c.Query("to"))
	)

	q := h.db.WithContext(c.Request.Context()).Model(&models.Invoice{})
	if subscriber != "" {
		pattern := db.NormalizeLikePattern(h.db, "%"+subscriber+"%")
		q = q.Where(db.CaseInsensitiveLikeExpr(h.db, "subscriber_id"), pattern)
	}
	if fromStr != "" {
		if t, err := time.Parse(time.RFC3339, fromStr); err == nil {
			q = q.Where("period_start >= ?", t.UTC())
		}
	}
	if toStr != "" {
		if t, err := time.Parse(time.RFC3339, toStr); err == nil {
			q = q.Where("period_start <= ?", t.UTC())
		}
	}

	var rows []models.Invoice
	if errFind := q.Order("period_start DESC, subscriber_id ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query invoices failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": rows})
}

type generateInvoiceRequest struct {
	SubscriberID string `json:"subscriber_id"`
}

// Generate issues the invoice for one subscriber's current billing period.
// Regenerating an already-issued period is a no-op thanks to the
// period-keyed invoice ID.
func (h *InvoiceHandler) Generate(c *gin.Context) {
	var body generateInvoiceRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	subscriberID := strings.TrimSpace(body.SubscriberID)
	if subscriberID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "subscriber_id is required"})
		return
	}

	inv, errGenerate := h.engine.GenerateInvoice(c.Request.Context(), subscriberID, time.Now().UTC())
	if errGenerate != nil {
		respondEngineError(c, errGenerate)
		return
	}

	created, errSave := h.store.Save(c.Request.Context(), inv)
	if errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save invoice failed"})
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"invoice": inv, "created": created})
}

// Run triggers one invoicing pass over every closed subscription period.
func (h *InvoiceHandler) Run(c *gin.Context) {
	if h.runner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "invoicing runner not started"})
		return
	}
	h.runner.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}
