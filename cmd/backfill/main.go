package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/database"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/providers/places"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
	"github.com/zatekoja/breadfindr/backend/pkg/config"
)

func main() {
	var (
		limit  int
		dryRun bool
	)
	flag.IntVar(&limit, "limit", 50, "Max bakeries to enrich in this run")
	flag.BoolVar(&dryRun, "dry-run", false, "Look up photos without writing them")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	observability.InitLogger("breadfindr-backfill", cfg.Environment, cfg.LogLevel)

	if !cfg.PlacesConfigured() {
		log.Fatal().Msg("GOOGLE_PLACES_API_KEY is required for the photo backfill")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pgClient, err := postgres.NewClient(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	repo := database.NewEntityAdapter(pgClient)
	svc := services.NewDiscoveryService(
		places.NewGooglePlacesProviderWithOptions(cfg.Places.APIKey, cfg.Places.BaseURL, &http.Client{Timeout: cfg.Places.Timeout}),
		services.WithEnrichmentPacing(cfg.Discovery.EnrichWindow, cfg.Discovery.EnrichDelay),
		services.WithPhotoBaseURL(cfg.Places.PhotoBaseURL),
	)

	pending, err := repo.ListMissingImages(ctx, limit)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list bakeries without images")
	}
	log.Info().Int("count", len(pending)).Bool("dry_run", dryRun).Msg("starting photo backfill")

	reqs := make([]services.EnrichRequest, len(pending))
	for i, e := range pending {
		reqs[i] = services.EnrichRequest{Name: e.Name, Coordinates: e.Coordinates, Address: e.Address}
	}

	start := time.Now()
	results := svc.BatchEnrich(ctx, reqs)

	updated, missing, failed := 0, 0, 0
	for i, res := range results {
		e := pending[i]
		switch {
		case res.Err != nil:
			failed++
			log.Warn().Err(res.Err).Str("id", e.ID).Str("name", e.Name).Msg("enrichment failed")
		case !res.Found || res.PhotoURL == "":
			missing++
			log.Debug().Str("id", e.ID).Str("name", e.Name).Msg("no photo found")
		case dryRun:
			updated++
			log.Info().Str("id", e.ID).Str("photo_reference", res.PhotoReference).Msg("would update image")
		default:
			if err := repo.UpdateImageURL(ctx, e.ID, res.PhotoURL); err != nil {
				failed++
				log.Warn().Err(err).Str("id", e.ID).Msg("failed to store image url")
				continue
			}
			updated++
		}
	}

	log.Info().
		Dur("elapsed", time.Since(start)).
		Int("updated", updated).
		Int("no_photo", missing).
		Int("failed", failed).
		Msg("backfill complete")
}
