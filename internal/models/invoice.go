package models

import (
	"time"

	"gorm.io/datatypes"
)

// Invoice stores a generated invoice for one subscriber billing period.
// InvoiceID is a deterministic composite of subscriber and period start, so
// re-running an invoicing pass for the same period cannot create duplicates.
type Invoice struct {
	ID uint64 `gorm:"primaryKey;autoIncrement"` // Primary key.

	InvoiceID    string `gorm:"type:text;not null;uniqueIndex"` // Period-keyed invoice identifier.
	SubscriberID string `gorm:"type:text;not null;index"`       // Billed subscriber.
	PlanID       string `gorm:"type:text;not null"`             // Plan in effect for the period.

	PeriodStart time.Time `gorm:"not null"` // Billing period start.
	PeriodEnd   time.Time `gorm:"not null"` // Billing period end.

	BaseAmountCents    int64 `gorm:"not null;default:0"` // Recurring base charge in cents.
	OverageAmountCents int64 `gorm:"not null;default:0"` // Total overage charge in cents.
	TotalAmountCents   int64 `gorm:"not null;default:0"` // Base plus overage in cents.

	LineItems datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"` // Overage line items JSON.

	IssuedAt time.Time `gorm:"not null"` // Issue timestamp.
	DueDate  time.Time `gorm:"not null"` // Payment due date.

	CreatedAt time.Time `gorm:"not null;autoCreateTime"` // Creation timestamp.
}
