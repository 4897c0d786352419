package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <place>",
	Short: "Resolve a place name to coordinates",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.close()

		res := a.geocoding.ForwardGeocode(cmd.Context(), strings.Join(args, " "))
		switch {
		case res.IsFailed():
			return fmt.Errorf("%s: %w", services.LocationLookupFailedMessage, res.Err)
		case res.IsNotFound():
			return fmt.Errorf("%s", services.LocationNotFoundMessage)
		}
		return printLocation(cmd.OutOrStdout(), res.Value)
	},
}

var reverseCmd = &cobra.Command{
	Use:   "reverse <lat> <lng>",
	Short: "Resolve coordinates to \"City, State\"",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, lng, err := parsePoint(args[0], args[1])
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), nil)
		if err != nil {
			return err
		}
		defer a.close()

		res := a.geocoding.ReverseGeocode(cmd.Context(), lat, lng)
		switch {
		case res.IsFailed():
			return fmt.Errorf("reverse geocoding failed: %w", res.Err)
		case res.IsNotFound():
			return fmt.Errorf("no locality found for %.5f, %.5f", lat, lng)
		}
		return printLocation(cmd.OutOrStdout(), entities.Location{Lat: lat, Lng: lng, Label: res.Value})
	},
}

func parsePoint(rawLat, rawLng string) (float64, float64, error) {
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid latitude %q", rawLat)
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid longitude %q", rawLng)
	}
	c := entities.Coordinates{Lat: lat, Lng: lng}
	if !c.Valid() {
		return 0, 0, fmt.Errorf("coordinates out of range")
	}
	return lat, lng, nil
}
