package handlers

import (
	"net/http"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoice"
	"github.com/gin-gonic/gin"
)

// BillingHandler exposes overage previews and issued invoices.
type BillingHandler struct {
	engine   *billing.Engine
	invoices *invoice.GormStore
}

// NewBillingHandler constructs a BillingHandler.
func NewBillingHandler(engine *billing.Engine, invoices *invoice.GormStore) *BillingHandler {
	return &BillingHandler{engine: engine, invoices: invoices}
}

// Overage computes the subscriber's accrued overage for the current billing
// period without issuing anything.
func (h *BillingHandler) Overage(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}

	result, errCalc := h.engine.CalculateOverage(c.Request.Context(), subscriberID)
	if errCalc != nil {
		respondEngineError(c, errCalc)
		return
	}
	c.JSON(http.StatusOK, result)
}

// InvoicePreview builds the invoice the subscriber would receive if the
// current period closed now. Nothing is persisted.
func (h *BillingHandler) InvoicePreview(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}

	inv, errGenerate := h.engine.GenerateInvoice(c.Request.Context(), subscriberID, time.Now().UTC())
	if errGenerate != nil {
		respondEngineError(c, errGenerate)
		return
	}
	c.JSON(http.StatusOK, inv)
}

// Invoices lists issued invoices for the subscriber, newest period first.
func (h *BillingHandler) Invoices(c *gin.Context) {
	subscriberID, ok := subscriberIDParam(c)
	if !ok {
		return
	}

	list, errList := h.invoices.ListBySubscriber(c.Request.Context(), subscriberID)
	if errList != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query invoices failed"})
		return
	}
	if list == nil {
		list = []invoice.Invoice{}
	}
	c.JSON(http.StatusOK, gin.H{"invoices": list})
}
