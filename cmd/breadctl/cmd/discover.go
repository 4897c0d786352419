package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

var discoverRadius int

var discoverCmd = &cobra.Command{
	Use:   "discover <lat> <lng>",
	Short: "List bakeries the places provider knows near a point",
	Args:  cobra.ExactArgs(2),
	RunE:  runDiscover,
}

func init() {
	discoverCmd.Flags().IntVar(&discoverRadius, "radius", 0, "search radius in meters (0 uses the configured default)")
}

func runDiscover(cmd *cobra.Command, args []string) error {
	lat, lng, err := parsePoint(args[0], args[1])
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context(), nil)
	if err != nil {
		return err
	}
	defer a.close()

	if !a.discovery.Configured() {
		return fmt.Errorf("GOOGLE_PLACES_API_KEY is not set")
	}

	res := a.discovery.Discover(cmd.Context(), lat, lng, discoverRadius)
	if res.IsFailed() {
		return fmt.Errorf("discovery failed: %w", res.Err)
	}

	filters := entities.DefaultFilters()
	filters.Reference = &entities.Location{Lat: lat, Lng: lng}
	filters.SortBy = entities.SortByDistance
	filters.RadiusMiles = 1e6
	result := services.RunPipeline(services.PipelineInput{Discovered: res.OrZero(), Filters: filters})

	return printState(cmd.OutOrStdout(), services.FilterState{
		Filters:         filters,
		DiscoveredCount: len(result.Entities),
		Result:          result,
	})
}
