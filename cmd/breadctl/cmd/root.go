package cmd

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/cache"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/database"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/dataset"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/providers/geocoding"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/providers/places"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/domain/repositories"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
	"github.com/zatekoja/breadfindr/backend/pkg/config"
)

var (
	jsonOutput bool
	useDB      bool
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:           "breadctl",
	Short:         "breadctl - find artisan bread near you",
	Long:          "Search the bread source directory, discover nearby bakeries and resolve locations.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		observability.InitLogger("breadctl", "development", cfg.LogLevel)
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of a table")
	rootCmd.PersistentFlags().BoolVar(&useDB, "db", false, "read the directory from PostgreSQL instead of the bundled dataset")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(geocodeCmd)
	rootCmd.AddCommand(reverseCmd)
}

// app holds the services a command needs. close releases what was opened.
type app struct {
	entities  *services.EntityService
	geocoding *services.GeocodingService
	discovery *services.DiscoveryService
	close     func()
}

func newApp(ctx context.Context, position providers.PositionSource) (*app, error) {
	a := &app{close: func() {}}

	fallback, err := dataset.Bundled()
	if cfg.Dataset.Path != "" {
		fallback, err = dataset.Load(cfg.Dataset.Path)
	}
	if err != nil {
		return nil, err
	}

	var (
		entityRepo repositories.EntityRepository
		reviewRepo repositories.ReviewRepository
	)
	if useDB {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		a.close = func() { pgClient.Close() }
		entityRepo = database.NewEntityAdapter(pgClient)
		reviewRepo = database.NewReviewAdapter(pgClient)
	}
	a.entities = services.NewEntityService(entityRepo, reviewRepo, fallback)

	geoOpts := []services.GeocodingOption{
		services.WithGeocodeCache(cache.NewMemoryAdapter(cfg.Geocoding.CacheTTL, 0), cfg.Geocoding.CacheTTL),
		services.WithCountryCodes(cfg.Geocoding.CountryCodes),
	}
	if position != nil {
		geoOpts = append(geoOpts, services.WithPositionSource(position))
	}
	a.geocoding = services.NewGeocodingService(
		geocoding.NewNominatimProviderWithOptions(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent, &http.Client{Timeout: cfg.Geocoding.Timeout}),
		geoOpts...,
	)

	a.discovery = services.NewDiscoveryService(
		places.NewGooglePlacesProviderWithOptions(cfg.Places.APIKey, cfg.Places.BaseURL, &http.Client{Timeout: cfg.Places.Timeout}),
		services.WithDiscoveryCache(services.NewDiscoveryCache(cfg.Discovery.CacheTTL, nil)),
		services.WithDiscoveryRadius(cfg.Discovery.DefaultRadiusMeters, cfg.Discovery.MaxRadiusMeters),
	)
	if !a.discovery.Configured() {
		log.Debug().Msg("GOOGLE_PLACES_API_KEY not set, discovery disabled")
	}
	return a, nil
}
