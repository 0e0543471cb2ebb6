// internal/orchestrator/assembly.go
package orchestrator

import (
	"fmt"
	"strings"

	"travel-concierge/internal/models"
)

const maxLodgingOptions = 3

var timeSlots = []string{"morning", "afternoon", "evening"}

var personaThemes = map[models.PersonaType]string{
	models.PersonaPhotographer: "Light and landmarks",
	models.PersonaFoodie:       "Local flavors",
	models.PersonaAdventurer:   "Into the outdoors",
	models.PersonaCulture:      "History and heritage",
	models.PersonaFamily:       "Family adventures",
	models.PersonaBalanced:     "Highlights",
}

// assemblyInput is everything assembly reads; it is gathered after research settles.
type assemblyInput struct {
	days        int
	destination models.Recommendation
	lodging     []models.Recommendation
	dining      []models.Recommendation
	profile     models.PersonaProfile
	constraints models.TravelConstraints
	validation  *models.ValidationReport
	fallbacks   []models.WorkerType
}

func assembleItinerary(in assemblyInput) *models.Itinerary {
	days := in.days
	if days < 1 {
		days = 1
	}
	city := in.destination.Name

	it := &models.Itinerary{
		Destination:  city,
		DurationDays: days,
		Days:         make([]models.ItineraryDay, days),
	}
	for d := range it.Days {
		it.Days[d].Day = d + 1
	}

	for j, a := range activitiesFor(in.destination) {
		day := &it.Days[j%days]
		slot := "flexible"
		if n := len(day.Activities); n < len(timeSlots) {
			slot = timeSlots[n]
		}
		day.Activities = append(day.Activities, models.Activity{TimeOfDay: slot, Name: a.Name, Description: a.Description})
	}
	for d := range it.Days {
		if len(it.Days[d].Activities) == 0 {
			it.Days[d].Activities = []models.Activity{{
				TimeOfDay:   "flexible",
				Name:        "Free time in " + city,
				Description: "Unscheduled time to wander, rest or revisit a favorite spot.",
			}}
		}
		it.Days[d].Theme = dayTheme(d, days, city, in.profile.Primary, it.Days[d].Activities[0].Name)
	}

	assignMeals(it.Days, in.dining)

	lodging := in.lodging
	if len(lodging) > maxLodgingOptions {
		lodging = lodging[:maxLodgingOptions]
	}
	it.Lodging = append([]models.Recommendation(nil), lodging...)
	it.PersonaNotes = personaNotes(in)
	return it
}

// activitiesFor lists attractions then highlights of the chosen destination without repeats.
func activitiesFor(dest models.Recommendation) []models.Activity {
	if dest.Destination == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []models.Activity
	add := func(name, description string) {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		out = append(out, models.Activity{Name: strings.TrimSpace(name), Description: description})
	}
	for _, a := range dest.Destination.Attractions {
		add(a, "")
	}
	for _, h := range dest.Destination.Highlights {
		add(h, "")
	}
	return out
}

func dayTheme(d, days int, city string, p models.PersonaType, firstActivity string) string {
	switch {
	case d == 0:
		return "Arrival and " + firstActivity
	case d == days-1:
		return "Last look at " + city
	}
	label, ok := personaThemes[p]
	if !ok {
		label = personaThemes[models.PersonaBalanced]
	}
	return fmt.Sprintf("%s: %s", label, firstActivity)
}

// assignMeals rotates breakfast, lunch and dinner through the dining options so that
// consecutive days differ where possible and no place repeats within a day.
func assignMeals(days []models.ItineraryDay, dining []models.Recommendation) {
	if len(dining) == 0 {
		return
	}
	pools := map[models.MealType][]models.Recommendation{
		models.MealBreakfast: mealPool(dining, models.MealBreakfast, models.MealBrunch),
		models.MealLunch:     mealPool(dining, models.MealLunch, models.MealBrunch),
		models.MealDinner:    mealPool(dining, models.MealDinner),
	}
	cursor := map[models.MealType]int{}

	for d := range days {
		used := map[string]bool{}
		for _, mt := range []models.MealType{models.MealBreakfast, models.MealLunch, models.MealDinner} {
			pool := pools[mt]
			if len(pool) == 0 {
				pool = dining
			}
			for tries := 0; tries < len(pool); tries++ {
				r := pool[cursor[mt]%len(pool)]
				cursor[mt]++
				if used[r.Name] && tries < len(pool)-1 {
					continue
				}
				used[r.Name] = true
				days[d].Meals = append(days[d].Meals, models.Meal{
					MealType:     mt,
					Name:         r.Name,
					Cuisine:      r.Cuisine,
					Neighborhood: r.Neighborhood,
					PriceTier:    r.PriceTier,
				})
				break
			}
		}
	}
}

func mealPool(dining []models.Recommendation, types ...models.MealType) []models.Recommendation {
	var out []models.Recommendation
	for _, r := range dining {
		for _, mt := range types {
			if r.HasMealType(mt) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

func personaNotes(in assemblyInput) []string {
	p := in.profile
	notes := []string{fmt.Sprintf("Planned for a %s traveler (%s pace, %s).", p.Primary, p.ActivityLevel, p.TravelStyle)}
	if len(p.Interests) > 0 {
		notes = append(notes, "Interests: "+strings.Join(p.Interests, ", ")+".")
	}
	if p.SpecialContext != "" {
		notes = append(notes, capitalize(p.SpecialContext)+".")
	}
	for _, c := range in.constraints.Describe() {
		notes = append(notes, c+".")
	}
	if dd := in.destination.Destination; dd != nil && dd.TravelTimeMinutes > 0 {
		notes = append(notes, fmt.Sprintf("About %d minutes from the origin by %s.", dd.TravelTimeMinutes, dd.TravelMode))
	}
	for _, w := range in.fallbacks {
		notes = append(notes, fmt.Sprintf("%s suggestions are generic; verify details before booking.", capitalize(string(w))))
	}
	if in.validation != nil {
		if n := in.validation.Count(models.Flagged); n > 0 {
			notes = append(notes, fmt.Sprintf("%d recommendation(s) were flagged during review.", n))
		}
	}
	return notes
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
