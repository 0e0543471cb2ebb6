// pkg/catalog/catalog.go
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"travel-concierge/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// Catalog holds the generic recommendations agents fall back to when the model fails.
type Catalog struct {
	Version      string  `yaml:"version"`
	Destinations []Entry `yaml:"destinations"`
	Lodging      []Entry `yaml:"lodging"`
	Dining       []Entry `yaml:"dining"`
}

type Entry struct {
	Name              string   `yaml:"name"`
	Description       string   `yaml:"description"`
	Why               string   `yaml:"why"`
	Location          string   `yaml:"location"`
	Neighborhood      string   `yaml:"neighborhood"`
	PriceTier         string   `yaml:"price_tier"`
	Cuisine           string   `yaml:"cuisine"`
	MealTypes         []string `yaml:"meal_types"`
	LodgingType       string   `yaml:"lodging_type"`
	Amenities         []string `yaml:"amenities"`
	Vibe              string   `yaml:"vibe"`
	TravelMode        string   `yaml:"travel_mode"`
	TravelTimeMinutes int      `yaml:"travel_time_minutes"`
	DistanceMiles     float64  `yaml:"distance_miles"`
	Highlights        []string `yaml:"highlights"`
	Attractions       []string `yaml:"attractions"`
	PerfectFor        []string `yaml:"perfect_for"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog file; an empty path selects the embedded default.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate requires at least one named entry per category so a fallback is never empty.
func (c *Catalog) Validate() error {
	for name, entries := range map[string][]Entry{
		"destinations": c.Destinations,
		"lodging":      c.Lodging,
		"dining":       c.Dining,
	} {
		if len(entries) == 0 {
			return fmt.Errorf("catalog section %q is empty", name)
		}
		for i, e := range entries {
			if e.Name == "" {
				return fmt.Errorf("catalog section %q entry %d has no name", name, i)
			}
		}
	}
	return nil
}

// Recommendations converts one category's entries. Every result is marked as
// fallback-sourced; persona fit is left at zero for the agent to score.
func (c *Catalog) Recommendations(category models.Category) []models.Recommendation {
	var entries []Entry
	switch category {
	case models.CategoryDestination:
		entries = c.Destinations
	case models.CategoryLodging:
		entries = c.Lodging
	case models.CategoryDining:
		entries = c.Dining
	}

	out := make([]models.Recommendation, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.toRecommendation(category))
	}
	return out
}

func (e Entry) toRecommendation(category models.Category) models.Recommendation {
	rec := models.Recommendation{
		Name:           e.Name,
		Category:       category,
		Description:    e.Description,
		WhyRecommended: e.Why,
		Location:       e.Location,
		Neighborhood:   e.Neighborhood,
		PriceTier:      e.PriceTier,
		Cuisine:        e.Cuisine,
		LodgingType:    e.LodgingType,
		Amenities:      append([]string(nil), e.Amenities...),
		Source:         models.SourceFallback,
	}
	for _, mt := range e.MealTypes {
		rec.MealTypes = append(rec.MealTypes, models.MealType(mt))
	}
	if category == models.CategoryDestination {
		rec.Destination = &models.DestinationDetails{
			DistanceMiles:     e.DistanceMiles,
			TravelTimeMinutes: e.TravelTimeMinutes,
			TravelMode:        models.TravelMode(e.TravelMode),
			Highlights:        append([]string(nil), e.Highlights...),
			Attractions:       append([]string(nil), e.Attractions...),
			Vibe:              e.Vibe,
			PerfectFor:        append([]string(nil), e.PerfectFor...),
		}
	}
	return rec
}
