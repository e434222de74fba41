package db

import (
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func TestMigrateCreatesAllTables(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	for _, table := range []string{"admins", "api_keys", "settings", "subscriptions", "usage_records", "invoices"} {
		if !conn.Migrator().HasTable(table) {
			t.Fatalf("missing table %s", table)
		}
	}
}

func TestMigrateInvoiceIDUnique(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	insert := `INSERT INTO invoices (invoice_id, subscriber_id, plan_id, period_start, period_end, base_amount_cents, overage_amount_cents, total_amount_cents, line_items, issued_at, due_date, created_at)
		VALUES ('inv_sub_1_20260301', 'sub_1', 'pro', '2026-03-01', '2026-04-01', 0, 0, 0, '[]', '2026-04-01', '2026-05-01', '2026-04-01')`
	if errExec := conn.Exec(insert).Error; errExec != nil {
		t.Fatalf("insert invoice: %v", errExec)
	}
	if errExec := conn.Exec(insert).Error; errExec == nil {
		t.Fatal("duplicate invoice_id should violate the unique index")
	}
}

func TestMigrateIsRepeatable(t *testing.T) {
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}

	for i := 0; i < 2; i++ {
		if errMigrate := Migrate(conn); errMigrate != nil {
			t.Fatalf("migrate pass %d: %v", i+1, errMigrate)
		}
	}
}
