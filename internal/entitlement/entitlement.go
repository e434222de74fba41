package entitlement

import (
	"context"
	"fmt"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
)

// Decision is the tagged outcome of an entitlement check.
type Decision string

const (
	// DecisionAllowed permits the action within the included quota.
	DecisionAllowed Decision = "allowed"
	// DecisionAllowedWithCharge permits the action but overage pricing applies.
	DecisionAllowedWithCharge Decision = "allowed_with_charge"
	// DecisionDenied blocks the action under the active policy.
	DecisionDenied Decision = "denied"
)

// Result answers whether an action may proceed and at what marginal cost.
type Result struct {
	Decision               Decision `json:"decision"`
	Allowed                bool     `json:"allowed"`
	WillIncurCharge        bool     `json:"will_incur_charge"`
	EstimatedUnitCostCents int64    `json:"estimated_unit_cost_cents"`
	ConsumedUnits          int64    `json:"consumed_units"`
	IncludedUnits          int64    `json:"included_units"`
}

// InvalidFeatureKeyError indicates a feature key absent from the plan. Every
// feature must be catalogued in every plan, so this is a caller bug, not a
// free pass.
type InvalidFeatureKeyError struct {
	PlanID     string
	FeatureKey string
}

func (e *InvalidFeatureKeyError) Error() string {
	return fmt.Sprintf("entitlement: feature %s not defined in plan %s", e.FeatureKey, e.PlanID)
}

// Policy decides whether an action over quota proceeds. The engine default is
// soft-cap billing; a hard cap is a drop-in alternative, not a code change.
type Policy interface {
	Decide(willIncurCharge bool) Decision
}

// SoftCapPolicy always allows and bills overage afterwards.
type SoftCapPolicy struct{}

// Decide implements Policy.
func (SoftCapPolicy) Decide(willIncurCharge bool) Decision {
	if willIncurCharge {
		return DecisionAllowedWithCharge
	}
	return DecisionAllowed
}

// HardCapPolicy denies any action that would accrue an overage charge.
type HardCapPolicy struct{}

// Decide implements Policy.
func (HardCapPolicy) Decide(willIncurCharge bool) Decision {
	if willIncurCharge {
		return DecisionDenied
	}
	return DecisionAllowed
}

// PolicyByName maps a config value to a Policy, defaulting to soft cap.
func PolicyByName(name string) Policy {
	if name == "hard-cap" {
		return HardCapPolicy{}
	}
	return SoftCapPolicy{}
}

// Resolver answers entitlement questions from the plan catalog and current
// period usage. It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	catalog    *catalog.Catalog
	aggregator *metering.Aggregator
	policy     Policy
}

// NewResolver constructs a Resolver with the given overage policy.
func NewResolver(cat *catalog.Catalog, aggregator *metering.Aggregator, policy Policy) *Resolver {
	if policy == nil {
		policy = SoftCapPolicy{}
	}
	return &Resolver{catalog: cat, aggregator: aggregator, policy: policy}
}

// Check resolves whether the subscriber may perform one more unit of the
// feature within the given billing period, and whether it costs extra.
func (r *Resolver) Check(ctx context.Context, subscriberID, planID, featureKey string, periodStart, periodEnd time.Time) (Result, error) {
	plan, errPlan := r.catalog.GetPlan(planID)
	if errPlan != nil {
		return Result{}, errPlan
	}

	quota, ok := plan.Feature(featureKey)
	if !ok {
		return Result{}, &InvalidFeatureKeyError{PlanID: planID, FeatureKey: featureKey}
	}

	consumed, errUsage := r.aggregator.FeatureUsage(ctx, subscriberID, featureKey, periodStart, periodEnd)
	if errUsage != nil {
		return Result{}, errUsage
	}

	willIncurCharge := consumed >= quota.IncludedUnits
	estimatedUnitCost := int64(0)
	if willIncurCharge {
		estimatedUnitCost = quota.OverageUnitPriceCents
	}

	decision := r.policy.Decide(willIncurCharge)
	return Result{
		Decision:               decision,
		Allowed:                decision != DecisionDenied,
		WillIncurCharge:        willIncurCharge,
		EstimatedUnitCostCents: estimatedUnitCost,
		ConsumedUnits:          consumed,
		IncludedUnits:          quota.IncludedUnits,
	}, nil
}
