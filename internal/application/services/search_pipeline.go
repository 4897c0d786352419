package services

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
	"github.com/zatekoja/breadfindr/backend/pkg/geo"
)

// PipelineInput is everything one ranking pass depends on.
type PipelineInput struct {
	Persisted  []*entities.Entity
	Discovered []*entities.Entity
	Filters    entities.SearchFilters
}

// RunPipeline merges, filters, annotates and orders entities. It is a pure
// function of its input: entities are copied before annotation and the
// input slices are never modified.
func RunPipeline(in PipelineInput) *entities.SearchResult {
	merged := unionEntities(in.Persisted, in.Discovered)

	query := strings.ToLower(strings.TrimSpace(in.Filters.Query))
	category := in.Filters.Category
	ref := in.Filters.Reference

	out := make([]*entities.Entity, 0, len(merged))
	for _, e := range merged {
		if query != "" && !matchesQuery(e, query) {
			continue
		}
		if category != "" && category != entities.CategoryAll && e.Category != category {
			continue
		}

		e.Distance = nil
		if ref != nil && e.HasCoordinates() {
			d := geo.DistanceMiles(ref.Lat, ref.Lng, e.Coordinates.Lat, e.Coordinates.Lng)
			e.Distance = &d
		}
		// Unknown distance passes the radius filter.
		if ref != nil && e.Distance != nil && *e.Distance > in.Filters.RadiusMiles {
			continue
		}
		out = append(out, e)
	}

	sortEntities(out, in.Filters.SortBy)

	rank := make(map[string]int, len(out))
	for i, e := range out {
		rank[e.ID] = i
	}
	return &entities.SearchResult{Entities: out, Rank: rank}
}

// unionEntities copies persisted then discovered entities, tagging
// untagged persisted rows as manual. Later repeats of an id are dropped.
func unionEntities(persisted, discovered []*entities.Entity) []*entities.Entity {
	seen := make(map[string]struct{}, len(persisted)+len(discovered))
	merged := make([]*entities.Entity, 0, len(persisted)+len(discovered))

	add := func(e *entities.Entity, tag bool) {
		if e == nil {
			return
		}
		if _, dup := seen[e.ID]; dup {
			return
		}
		seen[e.ID] = struct{}{}
		c := e.Clone()
		if tag && c.Provenance == "" {
			c.Provenance = entities.ProvenanceManual
		}
		merged = append(merged, c)
	}

	for _, e := range persisted {
		add(e, true)
	}
	for _, e := range discovered {
		add(e, false)
	}
	return merged
}

func matchesQuery(e *entities.Entity, query string) bool {
	for _, field := range []string{e.Name, e.Description, e.City, e.State} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for _, s := range e.Specialties {
		if strings.Contains(strings.ToLower(s), query) {
			return true
		}
	}
	return false
}

func sortEntities(list []*entities.Entity, by entities.SortKey) {
	switch by {
	case entities.SortByName:
		col := collate.New(language.English)
		sort.SliceStable(list, func(i, j int) bool {
			return col.CompareString(list[i].Name, list[j].Name) < 0
		})
	case entities.SortByDistance:
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i].Distance, list[j].Distance
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			}
			return *a < *b
		})
	default:
		sort.SliceStable(list, func(i, j int) bool {
			a, b := list[i], list[j]
			if a.Verified != b.Verified {
				return a.Verified
			}
			return a.Rating > b.Rating
		})
	}
}
