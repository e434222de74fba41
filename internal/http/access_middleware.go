package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// APIKeyAuthMiddleware authenticates service callers of the metering API
// against the api_keys table. Keys arrive as "Authorization: Bearer <key>"
// or in the X-Api-Key header.
func APIKeyAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := extractAPIKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing api key"})
			return
		}

		var row models.APIKey
		errFind := db.WithContext(c.Request.Context()).
			Where("api_key = ?", key).
			First(&row).Error
		if errFind != nil {
			if errors.Is(errFind, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
				return
			}
			log.WithError(errFind).Error("api key auth middleware error")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "authentication service error"})
			return
		}
		if !row.Active || row.RevokedAt != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "api key revoked"})
			return
		}

		now := time.Now().UTC()
		if errTouch := db.WithContext(c.Request.Context()).
			Model(&models.APIKey{}).
			Where("id = ?", row.ID).
			Update("last_used_at", now).Error; errTouch != nil {
			log.WithError(errTouch).Warn("api key auth: update last_used_at failed")
		}

		c.Set("apiKeyID", row.ID)
		c.Next()
	}
}

// extractAPIKey pulls the key from the Authorization or X-Api-Key header.
func extractAPIKey(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader != "" {
		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token != authHeader {
			return strings.TrimSpace(token)
		}
	}
	return strings.TrimSpace(c.GetHeader("X-Api-Key"))
}
