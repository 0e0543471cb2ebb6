package persona

import "travel-concierge/internal/models"

// Focus shapes prompts (Emphasis) and scores recommendations (Keywords) for one persona
// within one category.
type Focus struct {
	Emphasis []string
	Keywords []string
}

var destinationFocus = map[models.PersonaType]Focus{
	models.PersonaPhotographer: {
		Emphasis: []string{"scenic viewpoints", "striking architecture", "golden-hour locations"},
		Keywords: []string{"scenic", "view", "architecture", "photogenic", "sunset", "light", "coastline", "gallery"},
	},
	models.PersonaFoodie: {
		Emphasis: []string{"renowned food scenes", "farmers markets", "wine and producer regions"},
		Keywords: []string{"food", "culinary", "wine", "market", "restaurant", "chef", "farm"},
	},
	models.PersonaAdventurer: {
		Emphasis: []string{"trails and parks", "water and mountain activities", "outdoor access"},
		Keywords: []string{"hiking", "trail", "park", "outdoor", "nature", "kayak", "climb", "mountain", "beach", "wildlife"},
	},
	models.PersonaCulture: {
		Emphasis: []string{"museums", "historic districts", "local traditions"},
		Keywords: []string{"history", "historic", "museum", "heritage", "culture", "mission", "architecture"},
	},
	models.PersonaFamily: {
		Emphasis: []string{"kid-friendly attractions", "short transfers", "flexible pacing"},
		Keywords: []string{"family", "kids", "children", "aquarium", "zoo", "beach", "playground", "easy"},
	},
	models.PersonaBalanced: {
		Emphasis: []string{"a mix of sights, food and downtime"},
		Keywords: []string{"charming", "walkable", "variety", "relaxing", "scenic"},
	},
}

var lodgingFocus = map[models.PersonaType]Focus{
	models.PersonaPhotographer: {
		Emphasis: []string{"rooms with views", "central locations near landmarks"},
		Keywords: []string{"view", "rooftop", "historic", "boutique", "central"},
	},
	models.PersonaFoodie: {
		Emphasis: []string{"walkable dining districts", "on-site restaurants"},
		Keywords: []string{"restaurant", "walkable", "breakfast", "kitchen", "market"},
	},
	models.PersonaAdventurer: {
		Emphasis: []string{"trailhead access", "gear storage", "early breakfast"},
		Keywords: []string{"trail", "lodge", "cabin", "outdoor", "gear", "park"},
	},
	models.PersonaCulture: {
		Emphasis: []string{"historic properties", "proximity to museums"},
		Keywords: []string{"historic", "heritage", "museum", "old town", "boutique"},
	},
	models.PersonaFamily: {
		Emphasis: []string{"suites or connecting rooms", "pools", "kitchenettes"},
		Keywords: []string{"family", "suite", "pool", "kitchenette", "kids", "connecting"},
	},
	models.PersonaBalanced: {
		Emphasis: []string{"comfortable, well-located stays"},
		Keywords: []string{"central", "comfortable", "walkable", "value"},
	},
}

var diningFocus = map[models.PersonaType]Focus{
	models.PersonaPhotographer: {
		Emphasis: []string{"striking interiors", "terraces with views"},
		Keywords: []string{"view", "terrace", "rooftop", "design", "waterfront"},
	},
	models.PersonaFoodie: {
		Emphasis: []string{"chef-driven restaurants", "food markets", "regional specialties"},
		Keywords: []string{"chef", "market", "tasting", "seasonal", "artisan", "local", "farm"},
	},
	models.PersonaAdventurer: {
		Emphasis: []string{"hearty breakfasts", "casual spots near trailheads"},
		Keywords: []string{"hearty", "casual", "brewery", "outdoor", "patio"},
	},
	models.PersonaCulture: {
		Emphasis: []string{"historic establishments", "traditional cuisine"},
		Keywords: []string{"historic", "traditional", "classic", "heritage", "institution"},
	},
	models.PersonaFamily: {
		Emphasis: []string{"flexible menus", "quick service", "space for kids"},
		Keywords: []string{"family", "kids", "casual", "quick", "pizza", "menu"},
	},
	models.PersonaBalanced: {
		Emphasis: []string{"well-reviewed local favorites across price points"},
		Keywords: []string{"local", "favorite", "popular", "cozy"},
	},
}

// FocusFor returns the focus table entry for a category and persona, defaulting to the
// balanced persona.
func FocusFor(category models.Category, p models.PersonaType) Focus {
	var table map[models.PersonaType]Focus
	switch category {
	case models.CategoryLodging:
		table = lodgingFocus
	case models.CategoryDining:
		table = diningFocus
	default:
		table = destinationFocus
	}
	if f, ok := table[p]; ok {
		return f
	}
	return table[models.PersonaBalanced]
}
