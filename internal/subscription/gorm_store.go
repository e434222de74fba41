package subscription

import (
	"context"
	"errors"
	"strings"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"gorm.io/gorm"
)

// GormStore implements Store over the subscriptions table.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore backed by GORM.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// GetRecord loads the subscription row for a subscriber. A missing row
// returns (nil, nil).
func (s *GormStore) GetRecord(ctx context.Context, subscriberID string) (*Record, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("subscription: nil store")
	}
	subscriberID = strings.TrimSpace(subscriberID)
	if subscriberID == "" {
		return nil, errors.New("subscription: empty subscriber id")
	}

	var row models.Subscription
	errFind := s.db.WithContext(ctx).
		Where("subscriber_id = ?", subscriberID).
		First(&row).Error
	if errFind != nil {
		if errors.Is(errFind, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errFind
	}

	return &Record{
		SubscriberID:       row.SubscriberID,
		PlanID:             row.PlanID,
		Status:             row.Status,
		CurrentPeriodStart: row.CurrentPeriodStart.UTC(),
		CurrentPeriodEnd:   row.CurrentPeriodEnd.UTC(),
		CancelAtPeriodEnd:  row.CancelAtPeriodEnd,
		CanceledAt:         row.CanceledAt,
	}, nil
}

var _ Store = (*GormStore)(nil)
