package models

import "time"

// Subscription lifecycle status values as stored by the upstream
// subscription provider. Expiry is always recomputed at read time and never
// trusted from this column.
const (
	// SubscriptionStatusActive marks a subscription in good standing.
	SubscriptionStatusActive = "active"
	// SubscriptionStatusCanceled marks a subscription canceled by the user.
	SubscriptionStatusCanceled = "canceled"
	// SubscriptionStatusExpired marks a subscription past its period end.
	SubscriptionStatusExpired = "expired"
)

// Subscription records a subscriber's plan and billing period.
type Subscription struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	SubscriberID string `gorm:"type:text;not null;uniqueIndex"` // Owning subscriber.
	PlanID       string `gorm:"type:text;not null;index"`       // Subscribed plan ID.

	Status string `gorm:"type:text;not null;default:'active'"` // Stored lifecycle status.

	CurrentPeriodStart time.Time `gorm:"not null"` // Current billing period start.
	CurrentPeriodEnd   time.Time `gorm:"not null"` // Current billing period end.

	CancelAtPeriodEnd bool       `gorm:"not null;default:false"` // Scheduled cancellation flag.
	CanceledAt        *time.Time // Cancellation time, if canceled.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"` // Last update timestamp.
}
