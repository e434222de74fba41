package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/OzzaAI/ozzastart-sub001/internal/settings"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SettingsHandler manages the database-backed runtime settings.
type SettingsHandler struct {
	db *gorm.DB
}

// NewSettingsHandler constructs a SettingsHandler.
func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{db: db}
}

// List returns every stored setting.
func (h *SettingsHandler) List(c *gin.Context) {
	var rows []models.Setting
	if errFind := h.db.WithContext(c.Request.Context()).Order("key ASC").Find(&rows).Error; errFind != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query settings failed"})
		return
	}

	out := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	c.JSON(http.StatusOK, gin.H{"settings": out, "updated_at": settings.DBConfigUpdatedAt()})
}

type updateSettingRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Update upserts one setting and refreshes the in-memory snapshot so the
// invoicing runner picks the change up on its next pass.
func (h *SettingsHandler) Update(c *gin.Context) {
	var body updateSettingRequest
	if errBind := c.ShouldBindJSON(&body); errBind != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	key := strings.TrimSpace(body.Key)
	if key == "" || len(body.Value) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key and value are required"})
		return
	}

	if errUpsert := settings.UpsertSetting(c.Request.Context(), h.db, key, body.Value); errUpsert != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save setting failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": body.Value})
}
