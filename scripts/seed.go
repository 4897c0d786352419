package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/database"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/dataset"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
	"github.com/zatekoja/breadfindr/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("breadfindr-seed", cfg.Environment, cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to DB")
	}
	defer pgClient.Close()

	if err := pgClient.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		if _, err := pgClient.DB().ExecContext(ctx, `TRUNCATE TABLE reviews, bakeries`); err != nil {
			log.Fatal().Err(err).Msg("failed to truncate tables")
		}
	}

	data, err := dataset.Bundled()
	if cfg.Dataset.Path != "" {
		data, err = dataset.Load(cfg.Dataset.Path)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dataset")
	}

	importer := database.NewEntityImporter(pgClient)
	inserted, skipped := 0, 0
	for _, e := range data.Entities() {
		ok, err := importer.Import(ctx, e)
		if err != nil {
			log.Fatal().Err(err).Str("id", e.ID).Msg("failed to seed bakery")
		}
		if ok {
			inserted++
		} else {
			skipped++
		}
	}

	log.Info().Int("inserted", inserted).Int("skipped", skipped).Msg("seeding complete")
}
