package subscription

import (
	"context"
	"time"
)

// Status is a subscriber's resolved lifecycle state.
type Status string

const (
	// StatusNone means no usable subscription exists.
	StatusNone Status = "none"
	// StatusActive means the subscription is in good standing.
	StatusActive Status = "active"
	// StatusCanceled means the subscriber canceled the record.
	StatusCanceled Status = "canceled"
	// StatusExpired means the current period has ended.
	StatusExpired Status = "expired"
)

// Record mirrors the external subscription store's row for one subscriber.
type Record struct {
	SubscriberID       string
	PlanID             string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	CanceledAt         *time.Time
}

// Store abstracts the external subscription records. GetRecord returns nil
// with no error when the subscriber has no subscription; that is a normal
// outcome, not a failure.
type Store interface {
	GetRecord(ctx context.Context, subscriberID string) (*Record, error)
}

// TierInfo holds the tier-gated feature flags for a subscriber.
type TierInfo struct {
	PlanID              string `json:"plan_id"`
	Status              Status `json:"status"`
	HasHeavyAccess      bool   `json:"has_heavy_access"`
	MultiAgentEnabled   bool   `json:"multi_agent_enabled"`
	ContextWindowTokens int64  `json:"context_window_tokens"`
}

// Context window sizes for the heavy and base tiers.
const (
	baseContextWindowTokens  = 32_000
	heavyContextWindowTokens = 200_000
)

// Resolver derives subscription state and tier flags from the store. Every
// call re-reads the record; stale tier state is never served from a cache.
type Resolver struct {
	store      Store
	heavyTiers map[string]struct{}
	now        func() time.Time
}

// NewResolver constructs a Resolver gating heavy features on the given plan
// ID set.
func NewResolver(store Store, heavyTierPlanIDs []string) *Resolver {
	heavy := make(map[string]struct{}, len(heavyTierPlanIDs))
	for _, id := range heavyTierPlanIDs {
		heavy[id] = struct{}{}
	}
	return &Resolver{store: store, heavyTiers: heavy, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (r *Resolver) WithNow(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// resolveStatus recomputes a record's lifecycle status. Time always wins over
// the stored status column: a record still marked active past its period end
// is expired.
func resolveStatus(record *Record, now time.Time) Status {
	if record == nil {
		return StatusNone
	}
	if record.Status == StatusCanceled.String() {
		return StatusCanceled
	}
	if now.After(record.CurrentPeriodEnd) {
		return StatusExpired
	}
	if record.Status == StatusActive.String() {
		return StatusActive
	}
	return StatusNone
}

// String returns the status as a plain string.
func (s Status) String() string { return string(s) }

// Resolve returns the subscriber's current status and record. A missing
// record resolves to StatusNone with a nil record.
func (r *Resolver) Resolve(ctx context.Context, subscriberID string) (Status, *Record, error) {
	record, errGet := r.store.GetRecord(ctx, subscriberID)
	if errGet != nil {
		return StatusNone, nil, errGet
	}
	return resolveStatus(record, r.now().UTC()), record, nil
}

// ActivePlanID returns the plan ID to bill against: the record's plan while
// the subscription is active, otherwise empty.
func (r *Resolver) ActivePlanID(ctx context.Context, subscriberID string) (string, error) {
	status, record, errResolve := r.Resolve(ctx, subscriberID)
	if errResolve != nil {
		return "", errResolve
	}
	if status != StatusActive || record == nil {
		return "", nil
	}
	return record.PlanID, nil
}

// TierInfo resolves the tier-gated feature flags. Heavy features require an
// active subscription on a heavy-tier plan; everything else gets the base
// tier, including subscribers with no record at all.
func (r *Resolver) TierInfo(ctx context.Context, subscriberID string) (TierInfo, error) {
	status, record, errResolve := r.Resolve(ctx, subscriberID)
	if errResolve != nil {
		return TierInfo{}, errResolve
	}

	info := TierInfo{
		Status:              status,
		ContextWindowTokens: baseContextWindowTokens,
	}
	if record != nil {
		info.PlanID = record.PlanID
	}
	if status == StatusActive && record != nil {
		if _, heavy := r.heavyTiers[record.PlanID]; heavy {
			info.HasHeavyAccess = true
			info.MultiAgentEnabled = true
			info.ContextWindowTokens = heavyContextWindowTokens
		}
	}
	return info, nil
}
