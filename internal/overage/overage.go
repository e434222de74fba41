package overage

import (
	"context"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
)

// FeatureOverage holds the billable overage for one feature.
type FeatureOverage struct {
	ConsumedUnits int64 `json:"consumed_units"`
	OverageUnits  int64 `json:"overage_units"`
	CostCents     int64 `json:"cost_cents"`
}

// Result holds the per-feature overage and the period total.
type Result struct {
	SubscriberID      string                    `json:"subscriber_id"`
	PlanID            string                    `json:"plan_id"`
	PeriodStart       time.Time                 `json:"period_start"`
	PeriodEnd         time.Time                 `json:"period_end"`
	Features          map[string]FeatureOverage `json:"features"`
	TotalOverageCents int64                     `json:"total_overage_cents"`
}

// Calculator computes overage charges from the plan catalog and aggregated
// usage. All arithmetic is integer cents and whole units; a partial final
// batch is charged in full.
type Calculator struct {
	catalog    *catalog.Catalog
	aggregator *metering.Aggregator
}

// NewCalculator constructs a Calculator.
func NewCalculator(cat *catalog.Catalog, aggregator *metering.Aggregator) *Calculator {
	return &Calculator{catalog: cat, aggregator: aggregator}
}

// Calculate computes the overage of every plan feature for the billing period.
func (c *Calculator) Calculate(ctx context.Context, subscriberID, planID string, periodStart, periodEnd time.Time) (Result, error) {
	plan, errPlan := c.catalog.GetPlan(planID)
	if errPlan != nil {
		return Result{}, errPlan
	}

	snapshot, errSnapshot := c.aggregator.Snapshot(ctx, subscriberID, periodStart, periodEnd, plan.FeatureKeys())
	if errSnapshot != nil {
		return Result{}, errSnapshot
	}

	result := Result{
		SubscriberID: subscriberID,
		PlanID:       planID,
		PeriodStart:  snapshot.PeriodStart,
		PeriodEnd:    snapshot.PeriodEnd,
		Features:     make(map[string]FeatureOverage, len(plan.Features)),
	}
	for key, quota := range plan.Features {
		consumed := snapshot.Count(key)
		entry := FeatureOverage{ConsumedUnits: consumed}
		if over := consumed - quota.IncludedUnits; over > 0 {
			entry.OverageUnits = over
			entry.CostCents = ceilDiv(over, quota.UnitBatchSize) * quota.OverageUnitPriceCents
		}
		result.Features[key] = entry
		result.TotalOverageCents += entry.CostCents
	}
	return result, nil
}

// ceilDiv divides non-negative integers rounding up.
func ceilDiv(n, d int64) int64 {
	if d <= 0 {
		return 0
	}
	return (n + d - 1) / d
}
