package front

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/db"
	"github.com/OzzaAI/ozzastart-sub001/internal/entitlement"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/OzzaAI/ozzastart-sub001/internal/subscription"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

const testAPIKey = "ozza_test_key"

func newTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()

	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	key := models.APIKey{Name: "test", APIKey: testAPIKey, Active: true}
	if errCreate := conn.Create(&key).Error; errCreate != nil {
		t.Fatalf("create api key: %v", errCreate)
	}

	cat, errCatalog := catalog.New(catalog.DefaultPlans())
	if errCatalog != nil {
		t.Fatalf("build catalog: %v", errCatalog)
	}
	engine := billing.NewEngine(billing.Options{
		Catalog:           cat,
		UsageStore:        metering.NewGormUsageStore(conn),
		SubscriptionStore: subscription.NewGormStore(conn),
		Policy:            entitlement.SoftCapPolicy{},
	})

	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterMeteringRoutes(router, conn, engine)
	return router, conn
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, errMarshal := json.Marshal(body)
		if errMarshal != nil {
			t.Fatalf("marshal body: %v", errMarshal)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+testAPIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestRecordUsageAndCheckEntitlement(t *testing.T) {
	router, conn := newTestRouter(t)

	now := time.Now().UTC()
	sub := models.Subscription{
		SubscriberID:       "sub_1",
		PlanID:             "pro",
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: now.AddDate(0, 0, -10),
		CurrentPeriodEnd:   now.AddDate(0, 0, 20),
	}
	if errCreate := conn.Create(&sub).Error; errCreate != nil {
		t.Fatalf("create subscription: %v", errCreate)
	}

	recorder := doJSON(t, router, http.MethodPost, "/v0/metering/usage", map[string]any{
		"subscriber_id": "sub_1",
		"feature_key":   "api_calls",
		"units":         10500,
		"source":        "gateway",
	})
	if recorder.Code != http.StatusCreated {
		t.Fatalf("record usage: expected 201, got %d (%s)", recorder.Code, recorder.Body.String())
	}

	recorder = doJSON(t, router, http.MethodGet, "/v0/metering/entitlement?subscriber_id=sub_1&feature_key=api_calls", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("entitlement: expected 200, got %d (%s)", recorder.Code, recorder.Body.String())
	}

	var result entitlement.Result
	if errDecode := json.Unmarshal(recorder.Body.Bytes(), &result); errDecode != nil {
		t.Fatalf("decode entitlement: %v", errDecode)
	}
	if result.Decision != entitlement.DecisionAllowedWithCharge {
		t.Fatalf("expected allowed_with_charge, got %s", result.Decision)
	}
	if result.ConsumedUnits != 10500 {
		t.Fatalf("expected 10500 consumed units, got %d", result.ConsumedUnits)
	}
}

func TestRecordUsageRejectsNonPositiveUnits(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/v0/metering/usage", map[string]any{
		"subscriber_id": "sub_1",
		"feature_key":   "api_calls",
		"units":         -5,
	})
	if recorder.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", recorder.Code)
	}
}

func TestEntitlementUnknownFeatureIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/v0/metering/entitlement?subscriber_id=sub_1&feature_key=bogus", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d (%s)", recorder.Code, recorder.Body.String())
	}
}

func TestPlansEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodGet, "/v0/metering/plans", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("list plans: expected 200, got %d", recorder.Code)
	}

	var listing struct {
		Plans []catalog.BillingPlan `json:"plans"`
	}
	if errDecode := json.Unmarshal(recorder.Body.Bytes(), &listing); errDecode != nil {
		t.Fatalf("decode plans: %v", errDecode)
	}
	if len(listing.Plans) != 3 {
		t.Fatalf("expected three plans, got %d", len(listing.Plans))
	}

	recorder = doJSON(t, router, http.MethodGet, "/v0/metering/plans/nope", nil)
	if recorder.Code != http.StatusNotFound {
		t.Fatalf("unknown plan: expected 404, got %d", recorder.Code)
	}
}

func TestRoutesRequireAPIKey(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v0/metering/plans", nil)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", recorder.Code)
	}
}

func TestOverageEndpoint(t *testing.T) {
	router, conn := newTestRouter(t)

	now := time.Now().UTC()
	sub := models.Subscription{
		SubscriberID:       "sub_1",
		PlanID:             "pro",
		Status:             models.SubscriptionStatusActive,
		CurrentPeriodStart: now.AddDate(0, 0, -10),
		CurrentPeriodEnd:   now.AddDate(0, 0, 20),
	}
	if errCreate := conn.Create(&sub).Error; errCreate != nil {
		t.Fatalf("create subscription: %v", errCreate)
	}
	usage := models.UsageRecord{SubscriberID: "sub_1", FeatureKey: "api_calls", Units: 10500, RecordedAt: now.Add(-time.Hour)}
	if errCreate := conn.Create(&usage).Error; errCreate != nil {
		t.Fatalf("create usage: %v", errCreate)
	}

	recorder := doJSON(t, router, http.MethodGet, "/v0/metering/overage?subscriber_id=sub_1", nil)
	if recorder.Code != http.StatusOK {
		t.Fatalf("overage: expected 200, got %d (%s)", recorder.Code, recorder.Body.String())
	}

	var result struct {
		TotalOverageCents int64 `json:"total_overage_cents"`
	}
	if errDecode := json.Unmarshal(recorder.Body.Bytes(), &result); errDecode != nil {
		t.Fatalf("decode overage: %v", errDecode)
	}
	if result.TotalOverageCents != 300 {
		t.Fatalf("expected 300 cents, got %d", result.TotalOverageCents)
	}
}
