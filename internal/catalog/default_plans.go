package catalog

// Feature keys metered by the engine.
const (
	// FeatureAPICalls counts API requests.
	FeatureAPICalls = "api_calls"
	// FeatureAgentRuns counts agent executions.
	FeatureAgentRuns = "agent_runs"
	// FeatureStorageMB counts stored megabytes.
	FeatureStorageMB = "storage_mb"
)

// DefaultPlans returns the built-in plan set used when the config file does
// not supply one.
func DefaultPlans() []BillingPlan {
	return []BillingPlan{
		{
			ID:             "free",
			BasePriceCents: 0,
			Features: map[string]FeatureQuota{
				FeatureAPICalls:  {IncludedUnits: 1000, OverageUnitPriceCents: 0, UnitBatchSize: 1000},
				FeatureAgentRuns: {IncludedUnits: 10, OverageUnitPriceCents: 0, UnitBatchSize: 1},
				FeatureStorageMB: {IncludedUnits: 100, OverageUnitPriceCents: 0, UnitBatchSize: 100},
			},
		},
		{
			ID:             "pro",
			BasePriceCents: 2900,
			Features: map[string]FeatureQuota{
				FeatureAPICalls:  {IncludedUnits: 10000, OverageUnitPriceCents: 300, UnitBatchSize: 1000},
				FeatureAgentRuns: {IncludedUnits: 500, OverageUnitPriceCents: 5, UnitBatchSize: 1},
				FeatureStorageMB: {IncludedUnits: 10000, OverageUnitPriceCents: 50, UnitBatchSize: 1000},
			},
		},
		{
			ID:             "enterprise",
			BasePriceCents: 19900,
			Features: map[string]FeatureQuota{
				FeatureAPICalls:  {IncludedUnits: 1000000, OverageUnitPriceCents: 200, UnitBatchSize: 1000},
				FeatureAgentRuns: {IncludedUnits: 10000, OverageUnitPriceCents: 3, UnitBatchSize: 1},
				FeatureStorageMB: {IncludedUnits: 100000, OverageUnitPriceCents: 30, UnitBatchSize: 1000},
			},
		},
	}
}
