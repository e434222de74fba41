package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"gopkg.in/yaml.v3"
)

// AppConfig holds process-level inputs resolved from flags.
type AppConfig struct {
	ConfigPath string
}

// JWTConfig holds token signing settings for the admin API.
type JWTConfig struct {
	Secret      string        `yaml:"secret"`
	ExpiryHours int           `yaml:"expiry-hours"`
	Expiry      time.Duration `yaml:"-"`
}

// BillingConfig holds the engine's policy knobs and plan catalog.
type BillingConfig struct {
	GracePeriodDays   int                   `yaml:"grace-period-days"`
	FallbackPlan      string                `yaml:"fallback-plan"`
	EntitlementPolicy string                `yaml:"entitlement-policy"`
	HeavyTierPlans    []string              `yaml:"heavy-tier-plans"`
	Plans             []catalog.BillingPlan `yaml:"plans"`
}

// LogConfig holds file logging settings.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max-size-mb"`
	MaxBackups int    `yaml:"max-backups"`
	MaxAgeDays int    `yaml:"max-age-days"`
}

// Config is the full YAML configuration file.
type Config struct {
	Listen   string `yaml:"listen"`
	Database struct {
		DSN string `yaml:"dsn"`
	} `yaml:"database"`
	JWT     JWTConfig     `yaml:"jwt"`
	Billing BillingConfig `yaml:"billing"`
	Log     LogConfig     `yaml:"log"`
}

// defaultConfigName is the config file looked up next to the binary.
const defaultConfigName = "config.yaml"

// ResolveConfigPath returns the effective config file path, preferring the
// explicit flag, then the OZZASTART_CONFIG environment variable, then the
// default name in the working directory.
func ResolveConfigPath(explicit string) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return filepath.Clean(trimmed)
	}
	if fromEnv := strings.TrimSpace(os.Getenv("OZZASTART_CONFIG")); fromEnv != "" {
		return filepath.Clean(fromEnv)
	}
	return defaultConfigName
}

// Load reads and validates the YAML configuration file.
func Load(path string) (*Config, error) {
	data, errRead := os.ReadFile(path)
	if errRead != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, errRead)
	}

	var cfg Config
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, errUnmarshal)
	}
	applyDefaults(&cfg)

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, fmt.Errorf("config: database.dsn is required")
	}
	return &cfg, nil
}

// applyDefaults fills unset fields with working defaults.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Listen) == "" {
		cfg.Listen = ":8317"
	}
	if cfg.JWT.ExpiryHours <= 0 {
		cfg.JWT.ExpiryHours = 24
	}
	cfg.JWT.Expiry = time.Duration(cfg.JWT.ExpiryHours) * time.Hour
	if cfg.Billing.GracePeriodDays <= 0 {
		cfg.Billing.GracePeriodDays = 30
	}
	if strings.TrimSpace(cfg.Billing.FallbackPlan) == "" {
		cfg.Billing.FallbackPlan = "free"
	}
	if strings.TrimSpace(cfg.Billing.EntitlementPolicy) == "" {
		cfg.Billing.EntitlementPolicy = "soft-cap"
	}
	if len(cfg.Billing.HeavyTierPlans) == 0 {
		cfg.Billing.HeavyTierPlans = []string{"pro", "enterprise"}
	}
	if len(cfg.Billing.Plans) == 0 {
		cfg.Billing.Plans = catalog.DefaultPlans()
	}
}

// GracePeriod returns the invoice grace period as a duration.
func (c BillingConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodDays) * 24 * time.Hour
}

// LoadDatabaseDSN reads only the database DSN from the config file.
func LoadDatabaseDSN(path string) (string, error) {
	cfg, errLoad := Load(path)
	if errLoad != nil {
		return "", errLoad
	}
	return cfg.Database.DSN, nil
}
