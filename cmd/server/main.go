package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/OzzaAI/ozzastart-sub001/internal/app"
	"github.com/OzzaAI/ozzastart-sub001/internal/config"
	log "github.com/sirupsen/logrus"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	migrateOnly := flag.Bool("migrate", false, "run database migrations and exit")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.AppConfig{ConfigPath: *configPath}

	if *migrateOnly {
		if err := app.Migrate(ctx, cfg); err != nil {
			log.WithError(err).Fatal("migration failed")
		}
		log.Info("migrations applied")
		os.Exit(0)
	}

	if err := app.RunServer(ctx, cfg); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}
