package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/zatekoja/breadfindr/backend/internal/adapters/providers/position"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/internal/domain/providers"
	"github.com/zatekoja/breadfindr/backend/pkg/geo"
)

var searchOpts struct {
	query      string
	category   string
	location   string
	radius     float64
	sortBy     string
	discover   bool
	useCurrent bool
	lat, lng   float64
	timeout    time.Duration
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the directory",
	Long: "Runs a search session: filters are applied, the location is geocoded and, " +
		"with --discover, nearby places are merged into the ranked results.",
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchOpts.query, "query", "q", "", "free text matched against name, description, city, state and specialties")
	f.StringVarP(&searchOpts.category, "category", "c", "all", "storefront, market, home_baker or all")
	f.StringVarP(&searchOpts.location, "location", "l", "", "place to search around, e.g. \"Portland, OR\"")
	f.Float64VarP(&searchOpts.radius, "radius", "r", 0, "radius in miles around the location (default SEARCH_DEFAULT_RADIUS_MILES)")
	f.StringVarP(&searchOpts.sortBy, "sort", "s", "", "rating, name or distance")
	f.BoolVar(&searchOpts.discover, "discover", false, "merge nearby places from the places provider")
	f.BoolVar(&searchOpts.useCurrent, "use-current", false, "search around the current position")
	f.Float64Var(&searchOpts.lat, "lat", 0, "latitude of the current position")
	f.Float64Var(&searchOpts.lng, "lng", 0, "longitude of the current position")
	f.DurationVar(&searchOpts.timeout, "timeout", 30*time.Second, "overall time limit")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		searchOpts.query = args[0]
	}
	category, err := entities.ParseCategory(searchOpts.category)
	if err != nil {
		return err
	}
	var sortBy entities.SortKey
	if searchOpts.sortBy != "" {
		if sortBy, err = entities.ParseSortKey(searchOpts.sortBy); err != nil {
			return err
		}
	}
	if !cmd.Flags().Changed("radius") {
		searchOpts.radius = cfg.Search.DefaultRadiusMiles
	}
	if searchOpts.radius <= 0 {
		return fmt.Errorf("radius must be positive")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), searchOpts.timeout)
	defer cancel()

	var src providers.PositionSource
	if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lng") {
		src = position.NewStaticSource(searchOpts.lat, searchOpts.lng)
	}
	a, err := newApp(ctx, src)
	if err != nil {
		return err
	}
	defer a.close()

	var discovery services.NearbyDiscoverer
	if searchOpts.discover {
		discovery = a.discovery
	}

	filters := entities.DefaultFilters()
	filters.Query = searchOpts.query
	filters.Category = category
	filters.RadiusMiles = searchOpts.radius

	ctrl := services.NewFilterController(a.entities, a.geocoding, discovery,
		services.WithDebounce(cfg.Search.Debounce),
		services.WithInitialFilters(filters),
		services.WithRadiusMeters(int(geo.MilesToMeters(searchOpts.radius))),
	)
	defer ctrl.Close()
	ctrl.Load(ctx)

	switch {
	case searchOpts.useCurrent:
		// The error is also recorded as the state's location error.
		_ = ctrl.UseCurrentLocation(ctx)
	case searchOpts.location != "":
		ctrl.SetLocationText(searchOpts.location)
	}
	if err := ctrl.Settle(ctx); err != nil {
		return fmt.Errorf("search did not finish: %w", err)
	}
	if sortBy != "" {
		ctrl.SetSortBy(sortBy)
	}

	return printState(cmd.OutOrStdout(), ctrl.Snapshot())
}
