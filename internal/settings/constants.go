package settings

// DB config keys and defaults for settings.
const (
	// InvoiceRunEnabledKey toggles the periodic invoicing runner.
	InvoiceRunEnabledKey = "INVOICE_RUN_ENABLED"
	// InvoiceRunIntervalSecondsKey controls the invoicing run interval in seconds.
	InvoiceRunIntervalSecondsKey = "INVOICE_RUN_INTERVAL_SECONDS"
	// GracePeriodDaysKey overrides the invoice grace period in days.
	GracePeriodDaysKey = "GRACE_PERIOD_DAYS"
	// DefaultInvoiceRunEnabled is the fallback runner toggle.
	DefaultInvoiceRunEnabled = true
	// DefaultInvoiceRunIntervalSeconds is the fallback run interval (seconds).
	DefaultInvoiceRunIntervalSeconds = 3600
	// DefaultGracePeriodDays is the fallback grace period in days.
	DefaultGracePeriodDays = 30
)
