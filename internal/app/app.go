package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/OzzaAI/ozzastart-sub001/internal/billing"
	"github.com/OzzaAI/ozzastart-sub001/internal/catalog"
	"github.com/OzzaAI/ozzastart-sub001/internal/config"
	"github.com/OzzaAI/ozzastart-sub001/internal/db"
	"github.com/OzzaAI/ozzastart-sub001/internal/entitlement"
	adminapi "github.com/OzzaAI/ozzastart-sub001/internal/http/api/admin"
	"github.com/OzzaAI/ozzastart-sub001/internal/http/api/front"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoice"
	"github.com/OzzaAI/ozzastart-sub001/internal/invoicing"
	"github.com/OzzaAI/ozzastart-sub001/internal/metering"
	"github.com/OzzaAI/ozzastart-sub001/internal/settings"
	"github.com/OzzaAI/ozzastart-sub001/internal/subscription"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/gorm"
)

// Migrate opens the database and runs migrations.
func Migrate(ctx context.Context, cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, err := config.LoadDatabaseDSN(configPath)
	if err != nil {
		return err
	}
	conn, err := db.Open(dsn)
	if err != nil {
		return err
	}
	return db.Migrate(conn)
}

// RunServer boots the metering API server with database-backed components.
func RunServer(ctx context.Context, appCfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(appCfg.ConfigPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	setupLogging(cfg.Log)

	conn, err := db.Open(cfg.Database.DSN)
	if err != nil {
		return err
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	if errRefresh := settings.RefreshDBConfigSnapshot(ctx, conn); errRefresh != nil {
		log.WithError(errRefresh).Warn("app: initial settings snapshot failed")
	}

	engine, errEngine := buildEngine(conn, cfg)
	if errEngine != nil {
		return errEngine
	}

	runner := invoicing.NewRunner(conn, engine, invoice.NewGormStore(conn))
	runner.Start(ctx)

	router := gin.New()
	router.Use(gin.Recovery())

	front.RegisterMeteringRoutes(router, conn, engine)
	adminapi.RegisterAdminRoutes(router, conn, cfg.JWT, engine, runner)

	server := &http.Server{
		Addr:              cfg.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s (db=%s)", cfg.Listen, db.DialectName(conn))
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return nil
	case errServe := <-errCh:
		if errors.Is(errServe, http.ErrServerClosed) {
			return nil
		}
		return errServe
	}
}

// buildEngine assembles the billing engine from configuration.
func buildEngine(conn *gorm.DB, cfg *config.Config) (*billing.Engine, error) {
	cat, errCatalog := catalog.New(cfg.Billing.Plans)
	if errCatalog != nil {
		return nil, errCatalog
	}

	gracePeriod := cfg.Billing.GracePeriod()
	if days := settings.IntValue(settings.GracePeriodDaysKey, 0); days > 0 {
		gracePeriod = time.Duration(days) * 24 * time.Hour
	}

	return billing.NewEngine(billing.Options{
		Catalog:           cat,
		UsageStore:        metering.NewGormUsageStore(conn),
		SubscriptionStore: subscription.NewGormStore(conn),
		Policy:            entitlement.PolicyByName(cfg.Billing.EntitlementPolicy),
		GracePeriod:       gracePeriod,
		HeavyTierPlanIDs:  cfg.Billing.HeavyTierPlans,
		FallbackPlanID:    cfg.Billing.FallbackPlan,
	}), nil
}

// setupLogging routes logrus to stdout and, when configured, a size-rotated
// log file.
func setupLogging(cfg config.LogConfig) {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if cfg.File == "" {
		log.SetOutput(os.Stdout)
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}
