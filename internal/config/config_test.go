package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte(content), 0600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: \"file:test.db\"\n")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}

	if cfg.Listen != ":8317" {
		t.Fatalf("unexpected listen default: %s", cfg.Listen)
	}
	if cfg.JWT.Expiry != 24*time.Hour {
		t.Fatalf("unexpected jwt expiry default: %s", cfg.JWT.Expiry)
	}
	if cfg.Billing.FallbackPlan != "free" {
		t.Fatalf("unexpected fallback plan: %s", cfg.Billing.FallbackPlan)
	}
	if cfg.Billing.EntitlementPolicy != "soft-cap" {
		t.Fatalf("unexpected policy default: %s", cfg.Billing.EntitlementPolicy)
	}
	if cfg.Billing.GracePeriod() != 30*24*time.Hour {
		t.Fatalf("unexpected grace period: %s", cfg.Billing.GracePeriod())
	}
	if len(cfg.Billing.Plans) != 3 {
		t.Fatalf("expected default plan set, got %d plans", len(cfg.Billing.Plans))
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	path := writeConfig(t, "listen: \":9000\"\n")

	if _, errLoad := Load(path); errLoad == nil {
		t.Fatal("expected error for missing database.dsn")
	}
}

func TestLoadParsesBillingSection(t *testing.T) {
	path := writeConfig(t, `
database:
  dsn: "file:test.db"
billing:
  grace-period-days: 14
  fallback-plan: starter
  entitlement-policy: hard-cap
  heavy-tier-plans: [scale]
  plans:
    - id: starter
      base-price-cents: 0
      features:
        api_calls:
          included-units: 100
          overage-unit-price-cents: 0
          unit-batch-size: 1
    - id: scale
      base-price-cents: 5000
      features:
        api_calls:
          included-units: 100000
          overage-unit-price-cents: 100
          unit-batch-size: 1000
`)

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}

	if cfg.Billing.GracePeriodDays != 14 {
		t.Fatalf("unexpected grace period days: %d", cfg.Billing.GracePeriodDays)
	}
	if cfg.Billing.EntitlementPolicy != "hard-cap" {
		t.Fatalf("unexpected policy: %s", cfg.Billing.EntitlementPolicy)
	}
	if len(cfg.Billing.Plans) != 2 {
		t.Fatalf("expected two plans, got %d", len(cfg.Billing.Plans))
	}
	quota := cfg.Billing.Plans[1].Features["api_calls"]
	if quota.IncludedUnits != 100000 || quota.OverageUnitPriceCents != 100 || quota.UnitBatchSize != 1000 {
		t.Fatalf("unexpected quota: %+v", quota)
	}
}

func TestLoadDatabaseDSN(t *testing.T) {
	path := writeConfig(t, "database:\n  dsn: \"postgres://u:p@localhost/billing\"\n")

	dsn, errLoad := LoadDatabaseDSN(path)
	if errLoad != nil {
		t.Fatalf("load dsn: %v", errLoad)
	}
	if dsn != "postgres://u:p@localhost/billing" {
		t.Fatalf("unexpected dsn: %s", dsn)
	}
}

func TestResolveConfigPathPrefersExplicit(t *testing.T) {
	t.Setenv("OZZASTART_CONFIG", "/tmp/env.yaml")

	if got := ResolveConfigPath("/tmp/explicit.yaml"); got != "/tmp/explicit.yaml" {
		t.Fatalf("explicit path should win: %s", got)
	}
	if got := ResolveConfigPath(""); got != "/tmp/env.yaml" {
		t.Fatalf("env path should win over default: %s", got)
	}

	t.Setenv("OZZASTART_CONFIG", "")
	if got := ResolveConfigPath(""); got != "config.yaml" {
		t.Fatalf("expected default config name: %s", got)
	}
}
