package invoice

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/overage"
)

// DefaultGracePeriod is the payment window added to the issue date when the
// configuration does not override it.
const DefaultGracePeriod = 30 * 24 * time.Hour

// LineItem is one billable overage entry on an invoice.
type LineItem struct {
	Description    string `json:"description"`
	FeatureKey     string `json:"feature_key"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	AmountCents    int64  `json:"amount_cents"`
}

// Invoice is the immutable billing artifact for one subscriber period.
type Invoice struct {
	ID                 string     `json:"id"`
	SubscriberID       string     `json:"subscriber_id"`
	PlanID             string     `json:"plan_id"`
	PeriodStart        time.Time  `json:"period_start"`
	PeriodEnd          time.Time  `json:"period_end"`
	BaseAmountCents    int64      `json:"base_amount_cents"`
	OverageAmountCents int64      `json:"overage_amount_cents"`
	TotalAmountCents   int64      `json:"total_amount_cents"`
	IssuedAt           time.Time  `json:"issued_at"`
	DueDate            time.Time  `json:"due_date"`
	LineItems          []LineItem `json:"line_items"`
}

// InvoiceID builds the deterministic period-keyed invoice identifier. The
// same subscriber and period always produce the same ID, so regenerating an
// invoice after a retry cannot mint a duplicate.
func InvoiceID(subscriberID string, periodStart time.Time) string {
	return fmt.Sprintf("inv_%s_%s", subscriberID, periodStart.UTC().Format("20060102"))
}

// Builder assembles invoices from the plan catalog and overage results.
type Builder struct {
	catalog     *catalog.Catalog
	calculator  *overage.Calculator
	gracePeriod time.Duration
}

// NewBuilder constructs a Builder. A non-positive grace period falls back to
// the default 30 days.
func NewBuilder(cat *catalog.Catalog, calculator *overage.Calculator, gracePeriod time.Duration) *Builder {
	if gracePeriod <= 0 {
		gracePeriod = DefaultGracePeriod
	}
	return &Builder{catalog: cat, calculator: calculator, gracePeriod: gracePeriod}
}

// Generate builds the invoice for one subscriber billing period. Zero-overage
// features produce no line items. Any usage aggregation failure aborts the
// invoice: a bill must never be issued on partial usage data.
func (b *Builder) Generate(ctx context.Context, subscriberID, planID string, periodStart, periodEnd, issueDate time.Time) (Invoice, error) {
	plan, errPlan := b.catalog.GetPlan(planID)
	if errPlan != nil {
		return Invoice{}, errPlan
	}

	overages, errOverage := b.calculator.Calculate(ctx, subscriberID, planID, periodStart, periodEnd)
	if errOverage != nil {
		return Invoice{}, errOverage
	}

	items := make([]LineItem, 0, len(overages.Features))
	for key, entry := range overages.Features {
		if entry.OverageUnits <= 0 {
			continue
		}
		quota, _ := plan.Feature(key)
		items = append(items, LineItem{
			Description:    fmt.Sprintf("%s overage (%d units over %d included)", key, entry.OverageUnits, quota.IncludedUnits),
			FeatureKey:     key,
			Quantity:       entry.OverageUnits,
			UnitPriceCents: quota.OverageUnitPriceCents,
			AmountCents:    entry.CostCents,
		})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FeatureKey < items[j].FeatureKey })

	issuedAt := issueDate.UTC()
	return Invoice{
		ID:                 InvoiceID(subscriberID, periodStart),
		SubscriberID:       subscriberID,
		PlanID:             planID,
		PeriodStart:        periodStart.UTC(),
		PeriodEnd:          periodEnd.UTC(),
		BaseAmountCents:    plan.BasePriceCents,
		OverageAmountCents: overages.TotalOverageCents,
		TotalAmountCents:   plan.BasePriceCents + overages.TotalOverageCents,
		IssuedAt:           issuedAt,
		DueDate:            issuedAt.Add(b.gracePeriod),
		LineItems:          items,
	}, nil
}
