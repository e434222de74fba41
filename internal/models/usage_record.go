package models

import "time"

// UsageRecord stores a single metered consumption event for a subscriber.
type UsageRecord struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SubscriberID string `gorm:"type:text;not null;index:idx_usage_sub_feature_time,priority:1"` // Owning subscriber.
	FeatureKey   string `gorm:"type:text;not null;index:idx_usage_sub_feature_time,priority:2"` // Metered feature key.

	Units int64 `gorm:"not null;default:0"` // Units consumed by this event.

	Source string `gorm:"type:text"` // Origin marker for the event.

	RecordedAt time.Time `gorm:"not null;index:idx_usage_sub_feature_time,priority:3"` // Consumption timestamp.
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`                              // Creation timestamp.
}
