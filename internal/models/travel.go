// internal/models/travel.go
package models

import (
	"fmt"
	"sort"
	"strings"

	apperrors "travel-concierge/internal/common/errors"
)

type TravelMode string

const (
	ModeCar   TravelMode = "car"
	ModeTrain TravelMode = "train"
	ModePlane TravelMode = "plane"
	ModeBus   TravelMode = "bus"
	ModeFerry TravelMode = "ferry"
)

// Interest tags with special meaning for persona inference. Other tags are accepted verbatim.
const (
	InterestArchitecture   = "architecture"
	InterestArts           = "arts"
	InterestFoodDining     = "food-dining"
	InterestNatureOutdoors = "nature-outdoors"
	InterestSports         = "sports"
	InterestHistory        = "history"
)

type BudgetTier string

const (
	BudgetUnset    BudgetTier = ""
	BudgetBudget   BudgetTier = "budget"
	BudgetModerate BudgetTier = "moderate"
	BudgetLuxury   BudgetTier = "luxury"
)

// TravelRequirements is the immutable input of one generation run.
type TravelRequirements struct {
	Origin              string             `json:"origin"`
	NumberOfAdults      int                `json:"numberOfAdults"`
	NumberOfChildren    int                `json:"numberOfChildren"`
	ChildrenAges        []int              `json:"childrenAges,omitempty"`
	TravelModes         []TravelMode       `json:"travelModes"`
	MaxTravelTime       map[TravelMode]int `json:"maxTravelTime,omitempty"` // minutes per mode
	Interests           []string           `json:"interests"`
	TripDays            int                `json:"tripDays,omitempty"`
	DietaryRestrictions []string           `json:"dietaryRestrictions,omitempty"`
	AccessibilityNeeds  []string           `json:"accessibilityNeeds,omitempty"`
	Budget              BudgetTier         `json:"budget,omitempty"`
}

func (r TravelRequirements) HasChildren() bool {
	return r.NumberOfChildren > 0
}

func (r TravelRequirements) PartySize() int {
	return r.NumberOfAdults + r.NumberOfChildren
}

// NormalizedInterests lowercases, trims, dedupes and sorts the interest set so that
// callers see the same order regardless of how the tags were supplied.
func (r TravelRequirements) NormalizedInterests() []string {
	seen := make(map[string]struct{}, len(r.Interests))
	out := make([]string, 0, len(r.Interests))
	for _, tag := range r.Interests {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	sort.Strings(out)
	return out
}

// HasInterest reports whether tag is in the interest set, ignoring case.
func (r TravelRequirements) HasInterest(tag string) bool {
	for _, t := range r.Interests {
		if strings.EqualFold(strings.TrimSpace(t), tag) {
			return true
		}
	}
	return false
}

// Validate returns an INVALID_REQUIREMENTS StandardError listing every problem found.
func (r TravelRequirements) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Origin) == "" {
		problems = append(problems, "origin is required")
	}
	if r.NumberOfAdults < 0 || r.NumberOfChildren < 0 {
		problems = append(problems, "party counts cannot be negative")
	}
	if r.PartySize() == 0 {
		problems = append(problems, "at least one traveler is required")
	}
	if len(r.ChildrenAges) > r.NumberOfChildren {
		problems = append(problems, fmt.Sprintf("%d child ages given for %d children", len(r.ChildrenAges), r.NumberOfChildren))
	}
	for _, age := range r.ChildrenAges {
		if age < 0 || age > 17 {
			problems = append(problems, fmt.Sprintf("child age %d out of range", age))
		}
	}
	for mode, minutes := range r.MaxTravelTime {
		if minutes <= 0 {
			problems = append(problems, fmt.Sprintf("max travel time for %s must be positive", mode))
		}
	}
	if r.TripDays < 0 || r.TripDays > 14 {
		problems = append(problems, "tripDays must be between 1 and 14")
	}
	if len(problems) > 0 {
		return apperrors.NewInvalidRequirementsError(problems)
	}
	return nil
}

type PersonaType string

const (
	PersonaPhotographer PersonaType = "photographer"
	PersonaFoodie       PersonaType = "foodie"
	PersonaAdventurer   PersonaType = "adventurer"
	PersonaCulture      PersonaType = "culture"
	PersonaFamily       PersonaType = "family"
	PersonaBalanced     PersonaType = "balanced"
)

func (p PersonaType) Valid() bool {
	switch p {
	case PersonaPhotographer, PersonaFoodie, PersonaAdventurer, PersonaCulture, PersonaFamily, PersonaBalanced:
		return true
	}
	return false
}

// PersonaProfile is derived once per run and never mutated afterwards.
type PersonaProfile struct {
	Primary        PersonaType `json:"primary"`
	Interests      []string    `json:"interests"`
	TravelStyle    string      `json:"travelStyle"`
	ActivityLevel  string      `json:"activityLevel"`
	SpecialContext string      `json:"specialContext,omitempty"`
}

// TravelConstraints are optional; the zero value means "no constraints".
type TravelConstraints struct {
	Dietary       []string   `json:"dietary,omitempty"`
	Accessibility []string   `json:"accessibility,omitempty"`
	Budget        BudgetTier `json:"budget,omitempty"`
}

func (c TravelConstraints) IsEmpty() bool {
	return len(c.Dietary) == 0 && len(c.Accessibility) == 0 && c.Budget == BudgetUnset
}

// Describe renders the constraints as prompt lines.
func (c TravelConstraints) Describe() []string {
	var lines []string
	if len(c.Dietary) > 0 {
		lines = append(lines, "Dietary restrictions: "+strings.Join(c.Dietary, ", "))
	}
	if len(c.Accessibility) > 0 {
		lines = append(lines, "Accessibility needs: "+strings.Join(c.Accessibility, ", "))
	}
	if c.Budget != BudgetUnset {
		lines = append(lines, "Budget tier: "+string(c.Budget))
	}
	return lines
}
