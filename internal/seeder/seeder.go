// Package seeder loads the competition catalog from a YAML file, or falls
// back to the built-in catalog for the current season.
package seeder

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"coffeereg/internal/competition/models"
)

// CatalogSeeder writes catalog entries.
type CatalogSeeder interface {
	Seed(ctx context.Context, entries []models.Competition) (int, error)
}

// DefaultCatalog is the season's championship line-up.
func DefaultCatalog() []models.Competition {
	return []models.Competition{
		{Name: "National Barista Championship", Price: 1180},
		{Name: "National Brewer's Cup", Price: 1180},
		{Name: "Coffee in Good Spirits", Price: 1180},
		{Name: "Filter Coffee Championship", Price: 580},
	}
}

type catalogFile struct {
	Competitions []models.Competition `yaml:"competitions"`
}

// ParseCatalog decodes a catalog document:
//
//	competitions:
//	  - name: National Barista Championship
//	    price: 1180
//	    passportRequired: true
func ParseCatalog(r io.Reader) ([]models.Competition, error) {
	var f catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Competitions) == 0 {
		return nil, fmt.Errorf("catalog has no competitions")
	}
	return f.Competitions, nil
}

// Seeder populates the catalog.
type Seeder struct {
	catalog CatalogSeeder
	logger  *slog.Logger
}

func New(catalog CatalogSeeder, logger *slog.Logger) *Seeder {
	return &Seeder{catalog: catalog, logger: logger}
}

// SeedFromFile seeds from path, or from DefaultCatalog when path is empty.
func (s *Seeder) SeedFromFile(ctx context.Context, path string) (int, error) {
	entries := DefaultCatalog()
	source := "default"
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("open catalog: %w", err)
		}
		defer f.Close()
		entries, err = ParseCatalog(f)
		if err != nil {
			return 0, err
		}
		source = path
	}

	n, err := s.catalog.Seed(ctx, entries)
	if err != nil {
		return n, fmt.Errorf("seed catalog: %w", err)
	}
	s.logger.InfoContext(ctx, "catalog seeded", "source", source, "competitions", n)
	return n, nil
}
