// Package dataset loads the bundled fallback listings.
package dataset

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zatekoja/breadfindr/backend/internal/domain/entities"
)

//go:embed sample_bakeries.yaml
var sampleBakeries []byte

type file struct {
	Bakeries []record `yaml:"bakeries"`
}

type record struct {
	ID          string   `yaml:"id"`
	Name        string   `yaml:"name"`
	Type        string   `yaml:"type"`
	Description string   `yaml:"description"`
	Specialties []string `yaml:"specialties"`
	Rating      float64  `yaml:"rating"`
	ReviewCount int      `yaml:"review_count"`
	Address     string   `yaml:"address"`
	City        string   `yaml:"city"`
	State       string   `yaml:"state"`
	Zip         string   `yaml:"zip"`
	Latitude    *float64 `yaml:"latitude"`
	Longitude   *float64 `yaml:"longitude"`
	Phone       string   `yaml:"phone"`
	Website     string   `yaml:"website"`
	Instagram   string   `yaml:"instagram"`
	Hours       string   `yaml:"hours"`
	ImageURL    string   `yaml:"image_url"`
	Verified    bool     `yaml:"verified"`
	Featured    bool     `yaml:"featured"`
}

// Dataset is an immutable set of approved sample entities.
type Dataset struct {
	entities []*entities.Entity
}

var (
	bundledOnce sync.Once
	bundled     *Dataset
	bundledErr  error
)

// Bundled returns the dataset compiled into the binary.
func Bundled() (*Dataset, error) {
	bundledOnce.Do(func() {
		bundled, bundledErr = Parse(sampleBakeries)
	})
	return bundled, bundledErr
}

// Load reads a dataset from path, or the bundled one when path is empty.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Bundled()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML listings. Entries come back ordered featured first,
// then by rating, matching the store's ordering.
func Parse(data []byte) (*Dataset, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse dataset: %w", err)
	}

	out := make([]*entities.Entity, 0, len(f.Bakeries))
	seen := make(map[string]bool, len(f.Bakeries))
	for i, r := range f.Bakeries {
		e, err := r.toEntity()
		if err != nil {
			return nil, fmt.Errorf("dataset entry %d: %w", i, err)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("dataset entry %d: duplicate id %q", i, e.ID)
		}
		seen[e.ID] = true
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Featured != out[j].Featured {
			return out[i].Featured
		}
		return out[i].Rating > out[j].Rating
	})
	return &Dataset{entities: out}, nil
}

// Entities returns copies of the listings.
func (d *Dataset) Entities() []*entities.Entity {
	out := make([]*entities.Entity, len(d.entities))
	for i, e := range d.entities {
		out[i] = e.Clone()
	}
	return out
}

// Len returns the number of listings.
func (d *Dataset) Len() int {
	return len(d.entities)
}

func (r record) toEntity() (*entities.Entity, error) {
	category, err := entities.ParseCategory(r.Type)
	if err != nil {
		return nil, err
	}
	e := &entities.Entity{
		ID:           r.ID,
		Name:         r.Name,
		Category:     category,
		Description:  r.Description,
		Specialties:  r.Specialties,
		Rating:       r.Rating,
		ReviewCount:  r.ReviewCount,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		PostalCode:   r.Zip,
		Phone:        r.Phone,
		Website:      r.Website,
		SocialHandle: r.Instagram,
		Hours:        r.Hours,
		ImageURL:     r.ImageURL,
		Verified:     r.Verified,
		Featured:     r.Featured,
		Approved:     true,
		Provenance:   entities.ProvenanceManual,
	}
	if e.Specialties == nil {
		e.Specialties = []string{}
	}
	if r.Latitude != nil && r.Longitude != nil {
		e.Coordinates = &entities.Coordinates{Lat: *r.Latitude, Lng: *r.Longitude}
	}
	if e.ID == "" {
		return nil, fmt.Errorf("id is required")
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
