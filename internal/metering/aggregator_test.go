package metering

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, errOpen := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if errOpen != nil {
		t.Fatalf("open sqlite: %v", errOpen)
	}
	if errMigrate := conn.AutoMigrate(&models.UsageRecord{}); errMigrate != nil {
		t.Fatalf("migrate: %v", errMigrate)
	}
	return conn
}

func seedUsage(t *testing.T, conn *gorm.DB, subscriberID, featureKey string, units int64, at time.Time) {
	t.Helper()
	row := models.UsageRecord{
		SubscriberID: subscriberID,
		FeatureKey:   featureKey,
		Units:        units,
		Source:       "test",
		RecordedAt:   at,
	}
	if errCreate := conn.Create(&row).Error; errCreate != nil {
		t.Fatalf("seed usage: %v", errCreate)
	}
}

func TestGormUsageStoreSumsHalfOpenWindow(t *testing.T) {
	conn := openTestDB(t)
	store := NewGormUsageStore(conn)

	periodStart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	seedUsage(t, conn, "sub_1", "api_calls", 5, periodStart)                    // on the start boundary, counted
	seedUsage(t, conn, "sub_1", "api_calls", 7, periodStart.Add(time.Hour))     // inside
	seedUsage(t, conn, "sub_1", "api_calls", 11, periodEnd)                     // on the end boundary, excluded
	seedUsage(t, conn, "sub_1", "api_calls", 13, periodStart.Add(-time.Minute)) // before the window
	seedUsage(t, conn, "sub_1", "agent_runs", 3, periodStart.Add(time.Hour))    // other feature
	seedUsage(t, conn, "sub_2", "api_calls", 17, periodStart.Add(time.Hour))    // other subscriber

	sum, errSum := store.SumUsage(context.Background(), "sub_1", "api_calls", periodStart, periodEnd)
	if errSum != nil {
		t.Fatalf("sum usage: %v", errSum)
	}
	if sum != 12 {
		t.Fatalf("expected 12 units, got %d", sum)
	}
}

func TestGormUsageStoreSumIsZeroForUnknownSubscriber(t *testing.T) {
	conn := openTestDB(t)
	store := NewGormUsageStore(conn)

	sum, errSum := store.SumUsage(context.Background(), "nobody", "api_calls",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC))
	if errSum != nil {
		t.Fatalf("sum usage: %v", errSum)
	}
	if sum != 0 {
		t.Fatalf("expected 0 units, got %d", sum)
	}
}

type failingStore struct{ err error }

func (s failingStore) SumUsage(context.Context, string, string, time.Time, time.Time) (int64, error) {
	return 0, s.err
}

func TestSnapshotWrapsStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	aggregator := NewAggregator(failingStore{err: storeErr})

	_, errSnapshot := aggregator.Snapshot(context.Background(), "sub_1",
		time.Now().Add(-time.Hour), time.Now(), []string{"api_calls"})

	var unavailable *UsageUnavailableError
	if !errors.As(errSnapshot, &unavailable) {
		t.Fatalf("expected UsageUnavailableError, got %v", errSnapshot)
	}
	if !errors.Is(errSnapshot, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", errSnapshot)
	}
}

type negativeStore struct{}

func (negativeStore) SumUsage(context.Context, string, string, time.Time, time.Time) (int64, error) {
	return -1, nil
}

func TestSnapshotRejectsNegativeSums(t *testing.T) {
	aggregator := NewAggregator(negativeStore{})

	_, errSnapshot := aggregator.Snapshot(context.Background(), "sub_1",
		time.Now().Add(-time.Hour), time.Now(), []string{"api_calls"})

	var unavailable *UsageUnavailableError
	if !errors.As(errSnapshot, &unavailable) {
		t.Fatalf("expected UsageUnavailableError, got %v", errSnapshot)
	}
}

func TestRecorderRejectsInvalidInput(t *testing.T) {
	conn := openTestDB(t)
	recorder := NewRecorder(conn)

	if errRecord := recorder.Record(context.Background(), "", "api_calls", 1, "test"); errRecord == nil {
		t.Fatal("expected error for empty subscriber")
	}
	if errRecord := recorder.Record(context.Background(), "sub_1", "api_calls", 0, "test"); errRecord == nil {
		t.Fatal("expected error for non-positive units")
	}
}

func TestRecorderPersistsAndAggregates(t *testing.T) {
	conn := openTestDB(t)
	recorder := NewRecorder(conn)
	aggregator := NewAggregator(NewGormUsageStore(conn))

	for i := 0; i < 3; i++ {
		if errRecord := recorder.Record(context.Background(), "sub_1", "api_calls", 10, "gateway"); errRecord != nil {
			t.Fatalf("record: %v", errRecord)
		}
	}

	now := time.Now().UTC()
	snapshot, errSnapshot := aggregator.Snapshot(context.Background(), "sub_1",
		now.Add(-time.Hour), now.Add(time.Hour), []string{"api_calls", "agent_runs"})
	if errSnapshot != nil {
		t.Fatalf("snapshot: %v", errSnapshot)
	}
	if snapshot.Count("api_calls") != 30 {
		t.Fatalf("expected 30 units, got %d", snapshot.Count("api_calls"))
	}
	if snapshot.Count("agent_runs") != 0 {
		t.Fatalf("expected 0 agent runs, got %d", snapshot.Count("agent_runs"))
	}
}
