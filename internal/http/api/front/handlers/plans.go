package handlers

import (
	"net/http"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/gin-gonic/gin"
)

// PlanHandler serves the read-only plan catalog.
type PlanHandler struct {
	catalog *catalog.Catalog
}

// NewPlanHandler constructs a PlanHandler.
func NewPlanHandler(cat *catalog.Catalog) *PlanHandler {
	return &PlanHandler{catalog: cat}
}

// List returns every catalog plan, ordered by plan ID.
func (h *PlanHandler) List(c *gin.Context) {
	ids := h.catalog.PlanIDs()
	plans := make([]catalog.BillingPlan, 0, len(ids))
	for _, id := range ids {
		plan, errPlan := h.catalog.GetPlan(id)
		if errPlan != nil {
			continue
		}
		plans = append(plans, plan)
	}
	c.JSON(http.StatusOK, gin.H{"plans": plans})
}

// Get returns one plan by ID.
func (h *PlanHandler) Get(c *gin.Context) {
	plan, errPlan := h.catalog.GetPlan(c.Param("id"))
	if errPlan != nil {
		respondEngineError(c, errPlan)
		return
	}
	c.JSON(http.StatusOK, plan)
}
