package billing

import (
	"context"
	"testing"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/entitlement"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/OzzaAI/ozzastart-sub001/internal/subscription"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

var (
	testNow         = time.Date(2026, 3, 20, 12, 0, 0, 0, time.UTC)
	testPeriodStart = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	testPeriodEnd   = time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
)

func newTestEngine(t *testing.T, policy entitlement.Policy) (*Engine, *gorm.DB) {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.UsageRecord{}, &models.Subscription{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}

	cat, errCatalog := catalog.New(catalog.DefaultPlans())
	if errCatalog != nil {
		t.Fatalf("build catalog: %v", errCatalog)
	}

	engine := NewEngine(Options{
		Catalog:           cat,
		UsageStore:        metering.NewGormUsageStore(conn),
		SubscriptionStore: subscription.NewGormStore(conn),
		Policy:            policy,
		HeavyTierPlanIDs:  []string{"pro", "enterprise"},
		FallbackPlanID:    "free",
	}).WithNow(func() time.Time { return testNow })
	return engine, conn
}

func subscribe(t *testing.T, conn *gorm.DB, planID string) {
	t.Helper()
	row := models.Subscription{
		SubscriberID:       "sub_1",
		PlanID:             planID,
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: testPeriodStart,
		CurrentPeriodEnd:   testPeriodEnd,
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create subscription: %v", errCreate)
	}
}

func recordUsage(t *testing.T, conn *gorm.DB, featureKey string, units int64) {
	t.Helper()
	row := models.UsageRecord{
		SubscriberID: "sub_1",
		FeatureKey:   featureKey,
		Units:        units,
		RecordedAt:   testNow.Add(-time.Hour),
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create usage record: %v", errCreate)
	}
}

func TestProSubscriberOverageScenario(t *testing.T) {
	engine, conn := newTestEngine(t, entitlement.SoftCapPolicy{})
	subscribe(t, conn, "pro")
	recordUsage(t, conn, catalog.FeatureAPICalls, 10500)

	ctx := context.Background()

	result, errCheck := engine.CheckEntitlement(ctx, "sub_1", catalog.FeatureAPICalls)
	if errCheck != nil {
		t.Fatalf("check entitlement: %v", errCheck)
	}
	if result.Decision != entitlement.DecisionAllowedWithCharge {
		t.Fatalf("expected allowed_with_charge, got %s", result.Decision)
	}

	overages, errOverage := engine.CalculateOverage(ctx, "sub_1")
	if errOverage != nil {
		t.Fatalf("calculate overage: %v", errOverage)
	}
	if overages.TotalOverageCents != 300 {
		t.Fatalf("expected 300 cents overage, got %d", overages.TotalOverageCents)
	}

	inv, errGenerate := engine.GenerateInvoice(ctx, "sub_1", testNow)
	if errGenerate != nil {
		t.Fatalf("generate invoice: %v", errGenerate)
	}
	if inv.TotalAmountCents != 3200 {
		t.Fatalf("expected 3200 cents total, got %d", inv.TotalAmountCents)
	}
	if inv.ID != "inv_sub_1_20260301" {
		t.Fatalf("unexpected invoice id: %s", inv.ID)
	}
}

func TestUnsubscribedUsageBillsFallbackPlan(t *testing.T) {
	engine, conn := newTestEngine(t, entitlement.SoftCapPolicy{})
	recordUsage(t, conn, catalog.FeatureAPICalls, 500)

	ctx := context.Background()

	status, errStatus := engine.GetSubscriptionStatus(ctx, "sub_1")
	if errStatus != nil {
		t.Fatalf("status: %v", errStatus)
	}
	if status != subscription.StatusNone {
		t.Fatalf("expected none, got %s", status)
	}

	// With no subscription the engine bills the free plan over the current
	// calendar month.
	result, errCheck := engine.CheckEntitlement(ctx, "sub_1", catalog.FeatureAPICalls)
	if errCheck != nil {
		t.Fatalf("check entitlement: %v", errCheck)
	}
	if result.IncludedUnits != 1000 {
		t.Fatalf("expected free plan quota, got %d", result.IncludedUnits)
	}
	if result.Decision != entitlement.DecisionAllowed {
		t.Fatalf("expected allowed, got %s", result.Decision)
	}
}

func TestExpiredSubscriptionFallsBackForEntitlement(t *testing.T) {
	engine, conn := newTestEngine(t, entitlement.SoftCapPolicy{})
	row := models.Subscription{
		SubscriberID:       "sub_1",
		PlanID:             "pro",
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: testPeriodStart.AddDate(0, -2, 0),
		CurrentPeriodEnd:   testPeriodStart.AddDate(0, -1, 0),
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("create subscription: %v", errCreate)
	}

	result, errCheck := engine.CheckEntitlement(context.Background(), "sub_1", catalog.FeatureAPICalls)
	if errCheck != nil {
		t.Fatalf("check entitlement: %v", errCheck)
	}
	if result.IncludedUnits != 1000 {
		t.Fatalf("expired subscription should bill the fallback plan, got quota %d", result.IncludedUnits)
	}
}

func TestHardCapPolicyDeniesThroughEngine(t *testing.T) {
	engine, conn := newTestEngine(t, entitlement.HardCapPolicy{})
	subscribe(t, conn, "pro")
	recordUsage(t, conn, catalog.FeatureAPICalls, 10000)

	result, errCheck := engine.CheckEntitlement(context.Background(), "sub_1", catalog.FeatureAPICalls)
	if errCheck != nil {
		t.Fatalf("check entitlement: %v", errCheck)
	}
	if result.Decision != entitlement.DecisionDenied {
		t.Fatalf("expected denied, got %s", result.Decision)
	}
}

func TestTierInfoThroughEngine(t *testing.T) {
	engine, conn := newTestEngine(t, entitlement.SoftCapPolicy{})
	subscribe(t, conn, "enterprise")

	info, errTier := engine.GetTierInfo(context.Background(), "sub_1")
	if errTier != nil {
		t.Fatalf("tier info: %v", errTier)
	}
	if !info.HasHeavyAccess || info.PlanID != "enterprise" {
		t.Fatalf("unexpected tier info: %+v", info)
	}
}
