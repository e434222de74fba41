package front

import (
	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	internalhttp "github.com/OzzaAI/ozzastart-sub001/internal/http"
	"github.com/OzzaAI/ozzastart-sub001/internal/http/api/front/handlers"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoice"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterMeteringRoutes registers the service-facing metering API. Every
// route requires a valid API key.
func RegisterMeteringRoutes(r *gin.Engine, db *gorm.DB, engine *billing.Engine) {
	if r == nil || db == nil || engine == nil {
		return
	}

	group := r.Group("/v0/metering")
	group.Use(internalhttp.APIKeyAuthMiddleware(db))

	usageHandler := handlers.NewUsageHandler(db, metering.NewRecorder(db))
	group.POST("/usage", usageHandler.Record)
	group.GET("/usage/stats", usageHandler.Stats)

	entitlementHandler := handlers.NewEntitlementHandler(engine)
	group.GET("/entitlement", entitlementHandler.Check)

	billingHandler := handlers.NewBillingHandler(engine, invoice.NewGormStore(db))
	group.GET("/overage", billingHandler.Overage)
	group.GET("/invoices/preview", billingHandler.InvoicePreview)
	group.GET("/invoices", billingHandler.Invoices)

	subscriptionHandler := handlers.NewSubscriptionHandler(engine)
	group.GET("/subscription/status", subscriptionHandler.Status)
	group.GET("/subscription/tier", subscriptionHandler.Tier)

	planHandler := handlers.NewPlanHandler(engine.Catalog())
	group.GET("/plans", planHandler.List)
	group.GET("/plans/:id", planHandler.Get)
}
