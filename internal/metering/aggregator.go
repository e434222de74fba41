package metering

import (
	"context"
	"fmt"
	"time"
)

// UsageStore abstracts the external store of raw usage events. SumUsage must
// return the exact non-negative unit count for the half-open window
// [periodStart, periodEnd), and must return an error for store failures so
// callers can tell "zero usage" from "store unreachable".
type UsageStore interface {
	SumUsage(ctx context.Context, subscriberID, featureKey string, periodStart, periodEnd time.Time) (int64, error)
}

// UsageUnavailableError wraps a usage-store failure. Aggregation never maps a
// store error to zero usage: doing so would let an entitlement check permit
// unlimited consumption.
type UsageUnavailableError struct {
	Err error
}

func (e *UsageUnavailableError) Error() string {
	return fmt.Sprintf("metering: usage unavailable: %v", e.Err)
}

func (e *UsageUnavailableError) Unwrap() error { return e.Err }

// UsageSnapshot is the derived per-period consumption of one subscriber.
// It is computed on demand and never persisted.
type UsageSnapshot struct {
	SubscriberID string           `json:"subscriber_id"`
	PeriodStart  time.Time        `json:"period_start"`
	PeriodEnd    time.Time        `json:"period_end"`
	Counts       map[string]int64 `json:"counts"`
}

// Count returns the consumed units for a feature, zero when absent.
func (s UsageSnapshot) Count(featureKey string) int64 {
	return s.Counts[featureKey]
}

// Aggregator computes usage snapshots from a UsageStore.
type Aggregator struct {
	store UsageStore
}

// NewAggregator constructs an Aggregator over the given store.
func NewAggregator(store UsageStore) *Aggregator {
	return &Aggregator{store: store}
}

// Snapshot sums recorded usage per feature key within [periodStart, periodEnd).
// Missing usage is reported as 0; a store failure aborts the whole snapshot.
func (a *Aggregator) Snapshot(ctx context.Context, subscriberID string, periodStart, periodEnd time.Time, featureKeys []string) (UsageSnapshot, error) {
	snapshot := UsageSnapshot{
		SubscriberID: subscriberID,
		PeriodStart:  periodStart.UTC(),
		PeriodEnd:    periodEnd.UTC(),
		Counts:       make(map[string]int64, len(featureKeys)),
	}

	for _, key := range featureKeys {
		units, errSum := a.store.SumUsage(ctx, subscriberID, key, snapshot.PeriodStart, snapshot.PeriodEnd)
		if errSum != nil {
			return UsageSnapshot{}, &UsageUnavailableError{Err: errSum}
		}
		if units < 0 {
			return UsageSnapshot{}, &UsageUnavailableError{Err: fmt.Errorf("negative usage sum for %s", key)}
		}
		snapshot.Counts[key] = units
	}

	return snapshot, nil
}

// FeatureUsage sums recorded usage for a single feature key.
func (a *Aggregator) FeatureUsage(ctx context.Context, subscriberID, featureKey string, periodStart, periodEnd time.Time) (int64, error) {
	units, errSum := a.store.SumUsage(ctx, subscriberID, featureKey, periodStart.UTC(), periodEnd.UTC())
	if errSum != nil {
		return 0, &UsageUnavailableError{Err: errSum}
	}
	if units < 0 {
		return 0, &UsageUnavailableError{Err: fmt.Errorf("negative usage sum for %s", featureKey)}
	}
	return units, nil
}
