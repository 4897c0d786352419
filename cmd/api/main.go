package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/cache"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/database"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/dataset"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/providers/geocoding"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/providers/places"
	"github.com/zatekoja/breadfindr/backend/internal/api/handlers"
	"github.com/zatekoja/breadfindr/backend/internal/api/middleware"
	"github.com/zatekoja/breadfindr/backend/internal/api/routes"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/internal/domain/repositories"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/clients/redis"
	"github.com/zatekoja/breadfindr/backend/internal/infrastructure/observability"
	"github.com/zatekoja/breadfindr/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Environment, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Str("endpoint", cfg.OTEL.Endpoint).Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Directory store. Without it the bundled dataset serves reads.
	var (
		entityRepo repositories.EntityRepository
		reviewRepo repositories.ReviewRepository
	)
	if cfg.Database.Enabled {
		pgClient, err := postgres.NewClient(ctx, &cfg.Database)
		if err != nil {
			log.Warn().Err(err).Msg("PostgreSQL unavailable, serving the bundled dataset")
		} else {
			defer pgClient.Close()
			if err := pgClient.EnsureSchema(ctx); err != nil {
				log.Fatal().Err(err).Msg("failed to apply schema")
			}
			entityRepo = database.NewEntityAdapter(pgClient)
			reviewRepo = database.NewReviewAdapter(pgClient)
			log.Info().Msg("PostgreSQL client initialized")
		}
	}

	fallback, err := loadDataset(cfg.Dataset.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load dataset")
	}
	log.Info().Int("entries", fallback.Len()).Msg("dataset loaded")

	// Shared cache: Redis when enabled, otherwise in-process.
	var cacheProvider providers.CacheProvider
	if cfg.Redis.Enabled {
		redisClient, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-memory cache")
		} else {
			defer redisClient.Close()
			cacheProvider = cache.NewRedisAdapter(redisClient, "breadfindr:")
			log.Info().Msg("Redis client initialized")
		}
	}
	if cacheProvider == nil {
		cacheProvider = cache.NewMemoryAdapter(cfg.Geocoding.CacheTTL, 10*time.Minute)
	}

	httpClient := &http.Client{Timeout: cfg.Geocoding.Timeout}
	geocodingSvc := services.NewGeocodingService(
		geocoding.NewNominatimProviderWithOptions(cfg.Geocoding.BaseURL, cfg.Geocoding.UserAgent, httpClient),
		services.WithGeocodeCache(cacheProvider, cfg.Geocoding.CacheTTL),
		services.WithCountryCodes(cfg.Geocoding.CountryCodes),
		services.WithGeocodingMetrics(metrics),
	)

	placesProvider := places.NewGooglePlacesProviderWithOptions(
		cfg.Places.APIKey,
		cfg.Places.BaseURL,
		&http.Client{Timeout: cfg.Places.Timeout},
	)
	if !cfg.PlacesConfigured() {
		log.Warn().Msg("GOOGLE_PLACES_API_KEY is not set; discovery and the places proxy are disabled")
	}

	discoveryCache := services.NewDiscoveryCache(cfg.Discovery.CacheTTL, nil)
	discoveryCache.StartSweeper(ctx, cfg.Discovery.SweepInterval)
	discoverySvc := services.NewDiscoveryService(
		placesProvider,
		services.WithDiscoveryCache(discoveryCache),
		services.WithDiscoveryRadius(cfg.Discovery.DefaultRadiusMeters, cfg.Discovery.MaxRadiusMeters),
		services.WithEnrichmentPacing(cfg.Discovery.EnrichWindow, cfg.Discovery.EnrichDelay),
		services.WithDiscoveryMetrics(metrics),
		services.WithPhotoBaseURL(cfg.Places.PhotoBaseURL),
	)

	entitySvc := services.NewEntityService(entityRepo, reviewRepo, fallback)

	router := routes.NewRouter(
		handlers.NewBakeryHandler(entitySvc, discoverySvc, geocodingSvc),
		handlers.NewPlacesHandler(placesProvider, discoverySvc),
		handlers.NewDiscoverHandler(discoverySvc),
		handlers.NewGeocodeHandler(geocodingSvc),
		middleware.NewCacheMiddleware(cacheProvider),
		metrics,
	)

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router.SetupRoutes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", serverAddr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	log.Info().Msg("server stopped")
}

func loadDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.Bundled()
	}
	return dataset.Load(path)
}
