package invoicing

import (
	"context"
	"sync"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoice"
	"github.com/OzzaAI/ozzastart-sub001/internal/models"
	"github.com/OzzaAI/ozzastart-sub001/internal/settings"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	defaultRunInterval = time.Hour
	maxConcurrentRuns  = 5
)

// Runner periodically generates invoices for subscriptions whose billing
// period has ended. The engine core stays free of scheduling; this is the
// cron-like caller sitting next to it. Period-keyed invoice IDs make repeat
// runs idempotent, so overlapping or restarted runs cannot double-bill.
type Runner struct {
	db       *gorm.DB
	engine   *billing.Engine
	store    *invoice.GormStore
	interval time.Duration
	now      func() time.Time
}

// NewRunner constructs an invoicing runner.
func NewRunner(db *gorm.DB, engine *billing.Engine, store *invoice.GormStore) *Runner {
	if db == nil || engine == nil || store == nil {
		return nil
	}
	return &Runner{
		db:       db,
		engine:   engine,
		store:    store,
		interval: defaultRunInterval,
		now:      time.Now,
	}
}

// Start launches the invoicing loop in a background goroutine.
func (r *Runner) Start(ctx context.Context) {
	if r == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	go r.run(ctx)
	log.Infof("invoicing runner started (interval=%s)", r.interval)
}

func (r *Runner) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		interval := r.RunOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if interval <= 0 {
			interval = r.interval
		}
		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return
		case <-timer.C:
		}
	}
}

// RunOnce invoices every subscription whose period has closed and returns
// the interval until the next run.
func (r *Runner) RunOnce(ctx context.Context) time.Duration {
	if r == nil {
		return 0
	}
	if ctx == nil {
		ctx = context.Background()
	}

	interval := time.Duration(settings.IntValue(settings.InvoiceRunIntervalSecondsKey, settings.DefaultInvoiceRunIntervalSeconds)) * time.Second
	if !settings.BoolValue(settings.InvoiceRunEnabledKey, settings.DefaultInvoiceRunEnabled) {
		return interval
	}

	now := r.now().UTC()
	var rows []models.Subscription
	if errFind := r.db.WithContext(ctx).
		Where("current_period_end <= ?", now).
		Order("current_period_end ASC").
		Find(&rows).Error; errFind != nil {
		log.WithError(errFind).Warn("invoicing runner: load subscriptions failed")
		return interval
	}
	if len(rows) == 0 {
		return interval
	}

	sem := make(chan struct{}, maxConcurrentRuns)
	var wg sync.WaitGroup
	for _, row := range rows {
		if ctx.Err() != nil {
			break
		}
		sub := row
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			r.invoiceSubscription(ctx, sub, now)
		}()
	}
	wg.Wait()

	return interval
}

// invoiceSubscription generates and stores the invoice for one closed period.
func (r *Runner) invoiceSubscription(ctx context.Context, sub models.Subscription, issueDate time.Time) {
	inv, errGenerate := r.engine.GenerateInvoiceForPeriod(ctx, sub.SubscriberID, sub.PlanID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, issueDate)
	if errGenerate != nil {
		log.WithError(errGenerate).
			WithField("subscriber_id", sub.SubscriberID).
			Warn("invoicing runner: generate invoice failed")
		return
	}

	created, errSave := r.store.Save(ctx, inv)
	if errSave != nil {
		log.WithError(errSave).
			WithField("invoice_id", inv.ID).
			Warn("invoicing runner: save invoice failed")
		return
	}
	if created {
		log.Infof("invoicing runner: issued %s total=%d cents", inv.ID, inv.TotalAmountCents)
	}
}
