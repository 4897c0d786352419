package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/zatekoja/breadfindr/backend/internal/application/services"
	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

func printState(w io.Writer, state services.FilterState) error {
	if jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	}

	if ref := state.Filters.Reference; ref != nil {
		fmt.Fprintf(w, "Near %s (%.4f, %.4f) within %g mi\n", labelOr(ref.Label, "point"), ref.Lat, ref.Lng, state.Filters.RadiusMiles)
	}
	if state.LocationError != "" {
		fmt.Fprintf(w, "! %s\n", state.LocationError)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tCATEGORY\tLOCATION\tRATING\tDISTANCE\tSOURCE")
	var list []*entities.Entity
	if state.Result != nil {
		list = state.Result.Entities
	}
	for i, e := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			i+1, e.Name, e.Category, cityState(e), rating(e), distance(e), e.Provenance)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d results (%d discovered)\n", len(list), state.DiscoveredCount)
	return nil
}

func printLocation(w io.Writer, loc entities.Location) error {
	if jsonOutput {
		return json.NewEncoder(w).Encode(loc)
	}
	_, err := fmt.Fprintf(w, "%s\t%.6f, %.6f\n", loc.Label, loc.Lat, loc.Lng)
	return err
}

func cityState(e *entities.Entity) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{e.City, e.State} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func rating(e *entities.Entity) string {
	if e.ReviewCount == 0 && e.Rating == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (%d)", e.Rating, e.ReviewCount)
}

func distance(e *entities.Entity) string {
	if e.Distance == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f mi", *e.Distance)
}

func labelOr(label, fallback string) string {
	if label == "" {
		return fallback
	}
	return label
}
