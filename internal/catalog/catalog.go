package catalog

import (
	"fmt"
	"sort"
)

// FeatureQuota defines how a plan covers and prices one metered feature.
type FeatureQuota struct {
	IncludedUnits         int64 `json:"included_units" yaml:"included-units"`                     // Units covered by the base price.
	OverageUnitPriceCents int64 `json:"overage_unit_price_cents" yaml:"overage-unit-price-cents"` // Price per overage batch in cents.
	UnitBatchSize         int64 `json:"unit_batch_size" yaml:"unit-batch-size"`                   // Units per billable batch, minimum 1.
}

// BillingPlan is an immutable catalog entry.
type BillingPlan struct {
	ID             string                  `json:"id" yaml:"id"`
	BasePriceCents int64                   `json:"base_price_cents" yaml:"base-price-cents"`
	Features       map[string]FeatureQuota `json:"features" yaml:"features"`
}

// Feature returns the quota entry for a feature key.
func (p BillingPlan) Feature(featureKey string) (FeatureQuota, bool) {
	quota, ok := p.Features[featureKey]
	return quota, ok
}

// FeatureKeys returns the plan's feature keys in sorted order.
func (p BillingPlan) FeatureKeys() []string {
	keys := make([]string, 0, len(p.Features))
	for key := range p.Features {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// PlanNotFoundError indicates a plan ID is not present in the catalog.
type PlanNotFoundError struct {
	PlanID string
}

func (e *PlanNotFoundError) Error() string {
	return fmt.Sprintf("catalog: plan not found: %s", e.PlanID)
}

// Catalog is a read-only registry of billing plans. It is built once at
// startup and safe for concurrent reads.
type Catalog struct {
	plans map[string]BillingPlan
}

// New validates the given plans and builds a catalog. Every feature key
// referenced by any plan must be present in every plan, so entitlement and
// overage lookups can never fall through to an implicit zero quota.
func New(plans []BillingPlan) (*Catalog, error) {
	if len(plans) == 0 {
		return nil, fmt.Errorf("catalog: no plans configured")
	}

	allFeatures := map[string]struct{}{}
	byID := make(map[string]BillingPlan, len(plans))
	for _, plan := range plans {
		if plan.ID == "" {
			return nil, fmt.Errorf("catalog: plan with empty id")
		}
		if _, exists := byID[plan.ID]; exists {
			return nil, fmt.Errorf("catalog: duplicate plan id: %s", plan.ID)
		}
		if plan.BasePriceCents < 0 {
			return nil, fmt.Errorf("catalog: plan %s: negative base price", plan.ID)
		}
		for key, quota := range plan.Features {
			if key == "" {
				return nil, fmt.Errorf("catalog: plan %s: empty feature key", plan.ID)
			}
			if quota.IncludedUnits < 0 {
				return nil, fmt.Errorf("catalog: plan %s feature %s: negative included units", plan.ID, key)
			}
			if quota.OverageUnitPriceCents < 0 {
				return nil, fmt.Errorf("catalog: plan %s feature %s: negative overage price", plan.ID, key)
			}
			if quota.UnitBatchSize < 1 {
				return nil, fmt.Errorf("catalog: plan %s feature %s: batch size must be >= 1", plan.ID, key)
			}
			allFeatures[key] = struct{}{}
		}
		byID[plan.ID] = clonePlan(plan)
	}

	for _, plan := range byID {
		for key := range allFeatures {
			if _, ok := plan.Features[key]; !ok {
				return nil, fmt.Errorf("catalog: plan %s missing feature %s", plan.ID, key)
			}
		}
	}

	return &Catalog{plans: byID}, nil
}

// GetPlan returns the plan for the given ID or a PlanNotFoundError. Unknown
// plans are never silently mapped to a fallback; that decision belongs to the
// caller's configured policy.
func (c *Catalog) GetPlan(planID string) (BillingPlan, error) {
	plan, ok := c.plans[planID]
	if !ok {
		return BillingPlan{}, &PlanNotFoundError{PlanID: planID}
	}
	return clonePlan(plan), nil
}

// HasPlan reports whether a plan ID exists in the catalog.
func (c *Catalog) HasPlan(planID string) bool {
	_, ok := c.plans[planID]
	return ok
}

// PlanIDs returns all plan IDs in sorted order.
func (c *Catalog) PlanIDs() []string {
	ids := make([]string, 0, len(c.plans))
	for id := range c.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// clonePlan copies a plan so callers cannot mutate catalog state through the
// shared feature map.
func clonePlan(plan BillingPlan) BillingPlan {
	features := make(map[string]FeatureQuota, len(plan.Features))
	for key, quota := range plan.Features {
		features[key] = quota
	}
	plan.Features = features
	return plan
}
