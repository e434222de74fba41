package admin

import (
	"errors"
	"net/http"
	"strings"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/OzzaAI/ozzastart-sub001/internal/config"
	"github.com/OzzaAI/ozzastart-sub001/internal/http/api/admin/handlers"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoicing"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/OzzaAI/ozzastart-sub001/internal/security"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// RegisterAdminRoutes registers the operator API. Login and health are
// public; everything else requires an admin JWT.
func RegisterAdminRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, engine *billing.Engine, runner *invoicing.Runner) {
	if r == nil || db == nil || engine == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	group := r.Group("/v0/admin")

	authHandler := handlers.NewAuthHandler(db, jwtCfg)
	group.POST("/login", authHandler.Login)
	group.POST("/login/totp", authHandler.LoginTOTP)

	authed := group.Group("")
	authed.Use(adminAuthMiddleware(db, jwtCfg))

	mfaHandler := handlers.NewMFAHandler(db)
	authed.GET("/mfa", mfaHandler.Status)
	authed.POST("/mfa/totp/prepare", mfaHandler.PrepareTOTP)
	authed.POST("/mfa/totp/confirm", mfaHandler.ConfirmTOTP)
	authed.DELETE("/mfa/totp", mfaHandler.DisableTOTP)

	apiKeyHandler := handlers.NewAPIKeyHandler(db)
	authed.POST("/api-keys", apiKeyHandler.Create)
	authed.GET("/api-keys", apiKeyHandler.List)
	authed.DELETE("/api-keys/:id", apiKeyHandler.Revoke)

	subscriptionHandler := handlers.NewSubscriptionHandler(db, engine.Catalog())
	authed.PUT("/subscriptions", subscriptionHandler.Upsert)
	authed.GET("/subscriptions", subscriptionHandler.List)
	authed.GET("/subscription", subscriptionHandler.Get)

	invoiceHandler := handlers.NewInvoiceHandler(db, engine, runner)
	authed.GET("/invoices", invoiceHandler.List)
	authed.POST("/invoices/generate", invoiceHandler.Generate)
	authed.POST("/invoices/run", invoiceHandler.Run)

	settingsHandler := handlers.NewSettingsHandler(db)
	authed.GET("/settings", settingsHandler.List)
	authed.PUT("/settings", settingsHandler.Update)
}

// adminAuthMiddleware validates admin JWTs and loads the admin into context.
func adminAuthMiddleware(db *gorm.DB, jwtCfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "empty token"})
			return
		}

		claims, errJWT := security.ParseAdminToken(jwtCfg.Secret, token)
		if errJWT != nil {
			if errors.Is(errJWT, security.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		var admin models.Admin
		if errFind := db.WithContext(c.Request.Context()).First(&admin, claims.AdminID).Error; errFind != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "admin not found"})
			return
		}
		if !admin.Active {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin disabled"})
			return
		}

		c.Set("adminID", admin.ID)
		c.Next()
	}
}
