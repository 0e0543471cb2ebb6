// internal/agents/dining/textlist.go
package dining

import (
	"regexp"
	"strings"

	"travel-concierge/internal/models"
)

var (
	numberedLine        = regexp.MustCompile(`^\s*\d+[.)]\s*(.+)$`)
	neighborhoodPattern = regexp.MustCompile(`\bin (?:the )?([A-Z][\w']*(?: [A-Z][\w']*)*) (?:neighborhood|district|area|quarter)`)
)

var cuisineKeywords = []struct {
	cuisine  string
	keywords []string
}{
	{"Italian", []string{"italian", "pasta", "pizza", "tuscan", "trattoria"}},
	{"American", []string{"american", "steakhouse", "burger", "bbq", "diner"}},
	{"Asian", []string{"asian", "chinese", "japanese", "sushi", "thai", "ramen", "korean"}},
	{"French", []string{"french", "bistro", "brasserie"}},
	{"Mexican", []string{"mexican", "taco", "burrito", "taqueria"}},
	{"Mediterranean", []string{"mediterranean", "greek", "lebanese"}},
	{"Seafood", []string{"seafood", "fish", "oyster", "crab"}},
	{"Farm-to-table", []string{"farm", "local", "seasonal"}},
}

// ParseNumberedList reads "N. Name - Description. Cuisine, Neighborhood, Price." lines.
// Lines that do not follow the full shape still yield an entry with details inferred
// from keywords.
func ParseNumberedList(text string) []models.Recommendation {
	var recs []models.Recommendation
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		content := strings.TrimSpace(strings.Trim(m[1], "*"))

		var rec models.Recommendation
		if name, rest, ok := strings.Cut(content, " - "); ok {
			rec.Name = cleanName(name)
			sentences := strings.Split(strings.TrimSuffix(strings.TrimSpace(rest), "."), ". ")
			if len(sentences) >= 2 {
				rec.Description = strings.Join(sentences[:len(sentences)-1], ". ") + "."
				details := strings.Split(sentences[len(sentences)-1], ",")
				rec.Cuisine = detail(details, 0)
				rec.Neighborhood = detail(details, 1)
				rec.PriceTier = NormalizePriceTier(detail(details, 2))
			} else {
				rec.Description = strings.TrimSpace(rest)
			}
		} else {
			name, _, _ := strings.Cut(content, ".")
			rec.Name = cleanName(name)
			rec.Description = content
		}

		if rec.Name == "" {
			continue
		}
		if rec.Cuisine == "" {
			rec.Cuisine = InferCuisine(rec.Description)
		}
		if rec.Neighborhood == "" {
			rec.Neighborhood = InferNeighborhood(rec.Description)
		}
		if rec.PriceTier == "" {
			rec.PriceTier = NormalizePriceTier(rec.Description)
		}
		rec.Category = models.CategoryDining
		rec.Source = models.SourceTextList
		recs = append(recs, rec)
	}
	return recs
}

func InferCuisine(description string) string {
	lower := strings.ToLower(description)
	for _, c := range cuisineKeywords {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.cuisine
			}
		}
	}
	return ""
}

func InferNeighborhood(description string) string {
	if m := neighborhoodPattern.FindStringSubmatch(description); m != nil {
		return m[1]
	}
	return ""
}

// NormalizePriceTier maps free-text price hints onto budget | moderate | upscale,
// defaulting to moderate.
func NormalizePriceTier(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "fine dining"), strings.Contains(lower, "upscale"),
		strings.Contains(lower, "expensive"), strings.Contains(lower, "high-end"),
		strings.Contains(lower, "luxury"), strings.Contains(lower, "$$$"):
		return "upscale"
	case strings.Contains(lower, "budget"), strings.Contains(lower, "cheap"),
		strings.Contains(lower, "affordable"), strings.Contains(lower, "inexpensive"):
		return "budget"
	case strings.TrimSpace(lower) == "$":
		return "budget"
	default:
		return "moderate"
	}
}

func detail(parts []string, i int) string {
	if i >= len(parts) {
		return ""
	}
	return strings.TrimSuffix(strings.TrimSpace(parts[i]), ".")
}

func cleanName(name string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(name), "*\""))
}
