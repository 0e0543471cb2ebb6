// internal/agents/dining/meals.go
package dining

import (
	"fmt"
	"strings"

	"travel-concierge/internal/models"
)

var mealKeywords = []struct {
	meal     models.MealType
	keywords []string
}{
	{models.MealBreakfast, []string{"breakfast", "bakery", "pastry", "pastries", "coffee", "cafe", "café", "pancake", "bagel", "donut", "morning"}},
	{models.MealBrunch, []string{"brunch"}},
	{models.MealLunch, []string{"lunch", "deli", "sandwich", "food hall", "taqueria", "noodle", "counter", "market"}},
	{models.MealDinner, []string{"dinner", "steakhouse", "tasting menu", "bistro", "trattoria", "fine dining", "izakaya", "wine bar", "supper", "evening"}},
	{models.MealSnack, []string{"ice cream", "gelato", "dessert", "snack"}},
}

// Categorize sets MealTypes on every recommendation: explicit types from the model are
// normalized and kept, otherwise types are inferred from keywords. A place with no signal
// is assumed to serve lunch and dinner.
func Categorize(recs []models.Recommendation) []models.Recommendation {
	for i := range recs {
		explicit := normalizeMealTypes(recs[i].MealTypes)
		if len(explicit) == 0 {
			explicit = inferMealTypes(strings.Join([]string{recs[i].Name, recs[i].Description, recs[i].Cuisine}, " "))
		}
		recs[i].MealTypes = explicit
	}
	return recs
}

func normalizeMealTypes(in []models.MealType) []models.MealType {
	var out []models.MealType
	seen := map[models.MealType]bool{}
	for _, mt := range in {
		norm := models.MealType(strings.ToLower(strings.TrimSpace(string(mt))))
		switch norm {
		case models.MealBreakfast, models.MealBrunch, models.MealLunch, models.MealDinner, models.MealSnack:
		case "supper":
			norm = models.MealDinner
		default:
			continue
		}
		if !seen[norm] {
			seen[norm] = true
			out = append(out, norm)
		}
	}
	return out
}

func inferMealTypes(text string) []models.MealType {
	lower := strings.ToLower(text)
	var out []models.MealType
	for _, mk := range mealKeywords {
		for _, kw := range mk.keywords {
			if strings.Contains(lower, kw) {
				out = append(out, mk.meal)
				break
			}
		}
	}
	if len(out) == 0 {
		out = []models.MealType{models.MealLunch, models.MealDinner}
	}
	return out
}

// MealBalance counts breakfast and dinner options and reports every shortfall. Balance is
// advisory: callers record the warnings and carry on.
func MealBalance(recs []models.Recommendation, minBreakfast, minDinner int) (breakfast, dinner int, warnings []string) {
	for _, r := range recs {
		if r.HasMealType(models.MealBreakfast) {
			breakfast++
		}
		if r.HasMealType(models.MealDinner) {
			dinner++
		}
	}
	if breakfast < minBreakfast {
		warnings = append(warnings, fmt.Sprintf("meal balance: %d breakfast option(s), want at least %d", breakfast, minBreakfast))
	}
	if dinner < minDinner {
		warnings = append(warnings, fmt.Sprintf("meal balance: %d dinner option(s), want at least %d", dinner, minDinner))
	}
	return breakfast, dinner, warnings
}
