package invoice

import (
	"context"
	"testing"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestStore(t *testing.T) *GormStore {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.Invoice{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return NewGormStore(conn)
}

func sampleInvoice(subscriberID string, periodStart time.Time) Invoice {
	periodEnd := periodStart.AddDate(0, 1, 0)
	return Invoice{
		ID:                 InvoiceID(subscriberID, periodStart),
		SubscriberID:       subscriberID,
		PlanID:             "pro",
		PeriodStart:        periodStart,
		PeriodEnd:          periodEnd,
		BaseAmountCents:    2900,
		OverageAmountCents: 300,
		TotalAmountCents:   3200,
		IssuedAt:           periodEnd,
		DueDate:            periodEnd.AddDate(0, 0, 30),
		LineItems: []LineItem{
			{Description: "api_calls overage", FeatureKey: "api_calls", Quantity: 500, UnitPriceCents: 300, AmountCents: 300},
		},
	}
}

func TestSaveIsIdempotentPerPeriod(t *testing.T) {
	store := openTestStore(t)
	inv := sampleInvoice("sub_1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	created, errSave := store.Save(context.Background(), inv)
	if errSave != nil {
		t.Fatalf("save: %v", errSave)
	}
	if !created {
		t.Fatal("first save should create the invoice")
	}

	// A rerun for the same period must not create a second row.
	inv.TotalAmountCents = 9999
	created, errSave = store.Save(context.Background(), inv)
	if errSave != nil {
		t.Fatalf("second save: %v", errSave)
	}
	if created {
		t.Fatal("second save should be a no-op")
	}

	stored, errGet := store.Get(context.Background(), inv.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if stored.TotalAmountCents != 3200 {
		t.Fatalf("stored invoice mutated by rerun: %d", stored.TotalAmountCents)
	}
}

func TestSaveRoundTripsLineItems(t *testing.T) {
	store := openTestStore(t)
	inv := sampleInvoice("sub_1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))

	if _, errSave := store.Save(context.Background(), inv); errSave != nil {
		t.Fatalf("save: %v", errSave)
	}

	stored, errGet := store.Get(context.Background(), inv.ID)
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if len(stored.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(stored.LineItems))
	}
	if stored.LineItems[0].Quantity != 500 || stored.LineItems[0].AmountCents != 300 {
		t.Fatalf("unexpected line item: %+v", stored.LineItems[0])
	}
}

func TestListBySubscriberNewestFirst(t *testing.T) {
	store := openTestStore(t)

	march := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	april := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	for _, periodStart := range []time.Time{march, april} {
		if _, errSave := store.Save(context.Background(), sampleInvoice("sub_1", periodStart)); errSave != nil {
			t.Fatalf("save: %v", errSave)
		}
	}
	if _, errSave := store.Save(context.Background(), sampleInvoice("sub_2", march)); errSave != nil {
		t.Fatalf("save other subscriber: %v", errSave)
	}

	list, errList := store.ListBySubscriber(context.Background(), "sub_1")
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(list) != 2 {
		t.Fatalf("expected two invoices, got %d", len(list))
	}
	if !list[0].PeriodStart.Equal(april) || !list[1].PeriodStart.Equal(march) {
		t.Fatalf("invoices not ordered newest first: %v, %v", list[0].PeriodStart, list[1].PeriodStart)
	}
}
