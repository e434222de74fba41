package metering

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"gorm.io/gorm"
)

// GormUsageStore implements UsageStore over the usage_records table.
type GormUsageStore struct {
	db *gorm.DB
}

// NewGormUsageStore constructs a GormUsageStore backed by GORM.
func NewGormUsageStore(db *gorm.DB) *GormUsageStore { return &GormUsageStore{db: db} }

// SumUsage sums recorded units for a subscriber and feature within
// [periodStart, periodEnd).
func (s *GormUsageStore) SumUsage(ctx context.Context, subscriberID, featureKey string, periodStart, periodEnd time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("metering: nil usage store")
	}
	subscriberID = strings.TrimSpace(subscriberID)
	featureKey = strings.TrimSpace(featureKey)
	if subscriberID == "" || featureKey == "" {
		return 0, errors.New("metering: empty subscriber or feature key")
	}

	var units int64
	if errSum := s.db.WithContext(ctx).
		Model(&models.UsageRecord{}).
		Where("subscriber_id = ? AND feature_key = ?", subscriberID, featureKey).
		Where("recorded_at >= ? AND recorded_at < ?", periodStart.UTC(), periodEnd.UTC()).
		Select("COALESCE(SUM(units), 0)").
		Scan(&units).Error; errSum != nil {
		return 0, errSum
	}
	return units, nil
}

var _ UsageStore = (*GormUsageStore)(nil)
