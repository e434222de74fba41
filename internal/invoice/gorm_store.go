package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists generated invoices. The period-keyed invoice ID carries
// a unique index, so concurrent or repeated invoicing runs for the same
// subscriber period collapse into a single row.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore constructs a GormStore backed by GORM.
func NewGormStore(db *gorm.DB) *GormStore { return &GormStore{db: db} }

// Save stores an invoice. A conflicting invoice ID is ignored, keeping the
// first issued artifact immutable.
func (s *GormStore) Save(ctx context.Context, inv Invoice) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("invoice: nil store")
	}

	payload, errMarshal := json.Marshal(inv.LineItems)
	if errMarshal != nil {
		return false, errMarshal
	}

	row := models.Invoice{
		InvoiceID:          inv.ID,
		SubscriberID:       inv.SubscriberID,
		PlanID:             inv.PlanID,
		PeriodStart:        inv.PeriodStart,
		PeriodEnd:          inv.PeriodEnd,
		BaseAmountCents:    inv.BaseAmountCents,
		OverageAmountCents: inv.OverageAmountCents,
		TotalAmountCents:   inv.TotalAmountCents,
		LineItems:          datatypes.JSON(payload),
		IssuedAt:           inv.IssuedAt,
		DueDate:            inv.DueDate,
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "invoice_id"}}, DoNothing: true}).
		Create(&row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Get loads a stored invoice by its period-keyed ID.
func (s *GormStore) Get(ctx context.Context, invoiceID string) (Invoice, error) {
	if s == nil || s.db == nil {
		return Invoice{}, errors.New("invoice: nil store")
	}

	var row models.Invoice
	if errFind := s.db.WithContext(ctx).
		Where("invoice_id = ?", strings.TrimSpace(invoiceID)).
		First(&row).Error; errFind != nil {
		return Invoice{}, errFind
	}
	return fromRow(row)
}

// ListBySubscriber returns a subscriber's stored invoices, newest first.
func (s *GormStore) ListBySubscriber(ctx context.Context, subscriberID string) ([]Invoice, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("invoice: nil store")
	}

	var rows []models.Invoice
	if errFind := s.db.WithContext(ctx).
		Where("subscriber_id = ?", strings.TrimSpace(subscriberID)).
		Order("period_start DESC, id DESC").
		Find(&rows).Error; errFind != nil {
		return nil, errFind
	}

	out := make([]Invoice, 0, len(rows))
	for _, row := range rows {
		inv, errRow := fromRow(row)
		if errRow != nil {
			return nil, errRow
		}
		out = append(out, inv)
	}
	return out, nil
}

// fromRow converts a stored row back into the invoice value object.
func fromRow(row models.Invoice) (Invoice, error) {
	var items []LineItem
	if len(row.LineItems) > 0 {
		if errUnmarshal := json.Unmarshal(row.LineItems, &items); errUnmarshal != nil {
			return Invoice{}, errUnmarshal
		}
	}
	return Invoice{
		ID:                 row.InvoiceID,
		SubscriberID:       row.SubscriberID,
		PlanID:             row.PlanID,
		PeriodStart:        row.PeriodStart,
		PeriodEnd:          row.PeriodEnd,
		BaseAmountCents:    row.BaseAmountCents,
		OverageAmountCents: row.OverageAmountCents,
		TotalAmountCents:   row.TotalAmountCents,
		IssuedAt:           row.IssuedAt,
		DueDate:            row.DueDate,
		LineItems:          items,
	}, nil
}
