package metering

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Recorder appends usage events for later aggregation. Recording is a plain
// append: concurrent entitlement checks for the same subscriber can both pass
// below the quota and both record, so a hard quota cap needs an atomic
// increment-and-compare in the store, not in this layer. Soft-cap billing
// only needs the eventual sums to be exact, which an append gives.
type Recorder struct {
	db *gorm.DB
}

// NewRecorder constructs a Recorder backed by GORM.
func NewRecorder(db *gorm.DB) *Recorder { return &Recorder{db: db} }

// Record persists one consumption event.
func (r *Recorder) Record(ctx context.Context, subscriberID, featureKey string, units int64, source string) error {
	if r == nil || r.db == nil {
		return errors.New("metering: nil recorder")
	}
	subscriberID = strings.TrimSpace(subscriberID)
	featureKey = strings.TrimSpace(featureKey)
	if subscriberID == "" || featureKey == "" {
		return errors.New("metering: empty subscriber or feature key")
	}
	if units <= 0 {
		return errors.New("metering: units must be positive")
	}

	row := models.UsageRecord{
		SubscriberID: subscriberID,
		FeatureKey:   featureKey,
		Units:        units,
		Source:       strings.TrimSpace(source),
		RecordedAt:   time.Now().UTC(),
	}
	if errCreate := r.db.WithContext(ctx).Create(&row).Error; errCreate != nil {
		log.WithError(errCreate).Warn("metering: failed to persist usage record")
		return errCreate
	}
	return nil
}
