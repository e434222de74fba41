package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/OzzaAI/ozzastart-sub001/internal/security"
	"github.com/OzzaAI/ozzastart-sub001/internal/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIKeyHandler manages service API keys for the metering API.
type APIKeyHandler struct {
	db *gorm.DB
}

// NewAPIKeyHandler constructs an APIKeyHandler.
func NewAPIKeyHandler(db *gorm.DB) *APIKeyHandler {
	return &APIKeyHandler{db: db}
}

// apiKeyResponse shapes one key for JSON output. The full key string is only
// returned at creation time.
type apiKeyResponse struct {
	ID         uint64     `json:"id"`
	Name       string     `json:"name"`
	KeyPreview string     `json:"key_preview"`
	Status     string     `json:"status"`
	LastUsedAt *time.Time `json:"last_used_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

func toAPIKeyResponse(k models.APIKey) apiKeyResponse {
	return apiKeyResponse{
		ID:         k.ID,
		Name:       k.Name,
		KeyPreview: util.HideAPIKey(k.APIKey),
		Status:     k.Status(),
		LastUsedAt: k.LastUsedAt,
		CreatedAt:  k.CreatedAt,
	}
}

type createAPIKeyRequest struct {
	Name string `json:"name"`
}

// Create mints a new API key. The full key is returned once and never again.
func (h *APIKeyHandler) Create(c *gin.Context) {
	var body createAPIKeyRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	key, errGenerate := security.GenerateAPIKey()
	if errGenerate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "generate key failed"})
		return
	}

	row := models.APIKey{Name: name, APIKey: key, Active: true}
	if errCreate := h.db.WithContext(c.Request.Context()).Create(&row).Error; errCreate != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create key failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      row.ID,
		"name":    row.Name,
		"api_key": key,
	})
}

// List returns all keys, newest first, with masked key strings.
func (h *APIKeyHandler) List(c *gin.Context) {
	var rows []models.APIKey
	if errFind := h.db.WithContext(c.Request.Context()).
		Order("id DESC").
		Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query keys failed"})
		return
	}

	out := make([]apiKeyResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toAPIKeyResponse(row))
	}
	c.JSON(http.StatusOK, gin.H{"api_keys": out})
}

// Revoke permanently disables a key. Revocation is not reversible.
func (h *APIKeyHandler) Revoke(c *gin.Context) {
	id, errParse := strconv.ParseUint(c.Param("id"), 10, 64)
	if errParse != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	var row models.APIKey
	if errFind := h.db.WithContext(c.Request.Context()).First(&row, id).Error; errFind != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "key not found"})
		return
	}
	if row.RevokedAt != nil {
		c.JSON(http.StatusOK, toAPIKeyResponse(row))
		return
	}

	now := time.Now().UTC()
	row.Active = false
	row.RevokedAt = &now
	if errSave := h.db.WithContext(c.Request.Context()).
		Model(&row).
		Updates(map[string]any{"active": false, "revoked_at": now}).Error; errSave != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "revoke key failed"})
		return
	}
	c.JSON(http.StatusOK, toAPIKeyResponse(row))
}
