package billing

import (
	"context"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/entitlement"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoice"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/OzzaAI/ozzastart-sub001/internal/overage"
	"github.com/OzzaAI/ozzastart-sub001/internal/subscription"
)

// Engine wires the billing components behind one call surface. All
// operations are synchronous reads followed by pure computation; the engine
// owns no mutable shared state and is safe for concurrent use.
type Engine struct {
	catalog      *catalog.Catalog
	aggregator   *metering.Aggregator
	entitlements *entitlement.Resolver
	overages     *overage.Calculator
	invoices     *invoice.Builder
	subs         *subscription.Resolver

	fallbackPlanID string
	now            func() time.Time
}

// Options configures engine construction.
type Options struct {
	Catalog           *catalog.Catalog
	UsageStore        metering.UsageStore
	SubscriptionStore subscription.Store
	Policy            entitlement.Policy
	GracePeriod       time.Duration
	HeavyTierPlanIDs  []string
	// FallbackPlanID is the plan billed when a subscriber has no active
	// subscription. Unsubscribed usage is an explicit policy choice, not a
	// silent default inside lookups.
	FallbackPlanID string
}

// NewEngine builds an Engine from its collaborators.
func NewEngine(opts Options) *Engine {
	aggregator := metering.NewAggregator(opts.UsageStore)
	calculator := overage.NewCalculator(opts.Catalog, aggregator)
	fallback := opts.FallbackPlanID
	if fallback == "" {
		fallback = "free"
	}
	return &Engine{
		catalog:        opts.Catalog,
		aggregator:     aggregator,
		entitlements:   entitlement.NewResolver(opts.Catalog, aggregator, opts.Policy),
		overages:       calculator,
		invoices:       invoice.NewBuilder(opts.Catalog, calculator, opts.GracePeriod),
		subs:           subscription.NewResolver(opts.SubscriptionStore, opts.HeavyTierPlanIDs),
		fallbackPlanID: fallback,
		now:            time.Now,
	}
}

// WithNow overrides the clock, for tests.
func (e *Engine) WithNow(now func() time.Time) *Engine {
	e.now = now
	e.subs.WithNow(now)
	return e
}

// Catalog exposes the immutable plan catalog.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

// GetPlan returns a catalog plan by ID.
func (e *Engine) GetPlan(planID string) (catalog.BillingPlan, error) {
	return e.catalog.GetPlan(planID)
}

// GetSubscriptionStatus resolves the subscriber's lifecycle status.
func (e *Engine) GetSubscriptionStatus(ctx context.Context, subscriberID string) (subscription.Status, error) {
	status, _, errResolve := e.subs.Resolve(ctx, subscriberID)
	return status, errResolve
}

// GetTierInfo resolves the subscriber's tier-gated feature flags.
func (e *Engine) GetTierInfo(ctx context.Context, subscriberID string) (subscription.TierInfo, error) {
	return e.subs.TierInfo(ctx, subscriberID)
}

// billingContext resolves the plan and period a subscriber bills against: the
// subscription's own period while one is active, otherwise the fallback plan
// over the current calendar month.
func (e *Engine) billingContext(ctx context.Context, subscriberID string) (string, time.Time, time.Time, error) {
	status, record, errResolve := e.subs.Resolve(ctx, subscriberID)
	if errResolve != nil {
		return "", time.Time{}, time.Time{}, errResolve
	}
	if status == subscription.StatusActive && record != nil {
		return record.PlanID, record.CurrentPeriodStart, record.CurrentPeriodEnd, nil
	}

	now := e.now().UTC()
	periodStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	return e.fallbackPlanID, periodStart, periodStart.AddDate(0, 1, 0), nil
}

// CheckEntitlement answers whether the subscriber may perform one more unit
// of the feature under its active plan and current usage.
func (e *Engine) CheckEntitlement(ctx context.Context, subscriberID, featureKey string) (entitlement.Result, error) {
	planID, periodStart, periodEnd, errContext := e.billingContext(ctx, subscriberID)
	if errContext != nil {
		return entitlement.Result{}, errContext
	}
	return e.entitlements.Check(ctx, subscriberID, planID, featureKey, periodStart, periodEnd)
}

// CalculateOverage computes the subscriber's overage for every plan feature
// in the current billing period.
func (e *Engine) CalculateOverage(ctx context.Context, subscriberID string) (overage.Result, error) {
	planID, periodStart, periodEnd, errContext := e.billingContext(ctx, subscriberID)
	if errContext != nil {
		return overage.Result{}, errContext
	}
	return e.overages.Calculate(ctx, subscriberID, planID, periodStart, periodEnd)
}

// GenerateInvoice produces the invoice for the subscriber's current billing
// period at the given issue date.
func (e *Engine) GenerateInvoice(ctx context.Context, subscriberID string, issueDate time.Time) (invoice.Invoice, error) {
	planID, periodStart, periodEnd, errContext := e.billingContext(ctx, subscriberID)
	if errContext != nil {
		return invoice.Invoice{}, errContext
	}
	return e.invoices.Generate(ctx, subscriberID, planID, periodStart, periodEnd, issueDate)
}

// GenerateInvoiceForPeriod produces an invoice for an explicit plan and
// period, used when invoicing closed periods after the subscription record
// has already rolled forward.
func (e *Engine) GenerateInvoiceForPeriod(ctx context.Context, subscriberID, planID string, periodStart, periodEnd, issueDate time.Time) (invoice.Invoice, error) {
	return e.invoices.Generate(ctx, subscriberID, planID, periodStart, periodEnd, issueDate)
}
