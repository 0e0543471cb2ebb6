// internal/agents/validator/checks.go
package validator

import (
	"fmt"
	"sort"
	"strings"

	apperrors "travel-concierge/internal/common/errors"
	"travel-concierge/internal/models"
)

type subject struct {
	worker models.WorkerType
	rec    models.Recommendation
}

func (s subject) key() string {
	return string(s.worker) + "|" + strings.ToLower(strings.TrimSpace(s.rec.Name))
}

// collectSubjects lists every recommendation recorded by the given workers, in worker order.
func collectSubjects(actx *models.AgentContext, workers []models.WorkerType) []subject {
	var out []subject
	for _, w := range workers {
		f, ok := actx.Finding(w)
		if !ok || f.Research == nil {
			continue
		}
		for _, r := range f.Research.Recommendations {
			out = append(out, subject{worker: w, rec: r})
		}
	}
	return out
}

// deterministicItems applies the checks that need no model: incomplete entries and names
// shared across workers are flagged, catalog entries are left unverified.
func deterministicItems(subjects []subject) []models.ValidationItem {
	owners := map[string]map[models.WorkerType]bool{}
	for _, s := range subjects {
		name := strings.ToLower(strings.TrimSpace(s.rec.Name))
		if owners[name] == nil {
			owners[name] = map[models.WorkerType]bool{}
		}
		owners[name][s.worker] = true
	}

	items := make([]models.ValidationItem, 0, len(subjects))
	for _, s := range subjects {
		item := models.ValidationItem{Worker: s.worker, Name: s.rec.Name, Status: models.Unverified}
		var notes []string
		if strings.TrimSpace(s.rec.Name) == "" {
			item.Name = "(unnamed)"
			notes = append(notes, "missing name")
		}
		if strings.TrimSpace(s.rec.Description) == "" {
			notes = append(notes, "missing description")
		}
		if others := otherWorkers(owners[strings.ToLower(strings.TrimSpace(s.rec.Name))], s.worker); len(others) > 0 {
			notes = append(notes, "also recommended by "+strings.Join(others, ", "))
		}
		if len(notes) > 0 {
			item.Status = models.Flagged
			item.Notes = strings.Join(notes, "; ")
		} else if s.rec.Source == models.SourceFallback {
			item.Notes = "generic catalog entry"
		}
		items = append(items, item)
	}
	return items
}

func otherWorkers(owners map[models.WorkerType]bool, self models.WorkerType) []string {
	var out []string
	for w := range owners {
		if w != self {
			out = append(out, string(w))
		}
	}
	sort.Strings(out)
	return out
}

// coverageGaps reports dietary and accessibility needs that no recommendation mentions.
func coverageGaps(constraints models.TravelConstraints, subjects []subject, accessibilityTerms []string) []*apperrors.StandardError {
	var gaps []*apperrors.StandardError
	dining := textOf(subjects, models.WorkerDining)
	for _, d := range constraints.Dietary {
		if !strings.Contains(dining, strings.ToLower(d)) {
			gaps = append(gaps, apperrors.NewValidationGapError(fmt.Sprintf("dietary coverage gap: no dining option mentions %s", d)))
		}
	}

	if len(constraints.Accessibility) > 0 {
		lodging := textOf(subjects, models.WorkerLodging)
		covered := false
		for _, term := range accessibilityTerms {
			if containsWord(lodging, term) {
				covered = true
				break
			}
		}
		for _, need := range constraints.Accessibility {
			if covered || strings.Contains(lodging, strings.ToLower(need)) {
				continue
			}
			gaps = append(gaps, apperrors.NewValidationGapError(fmt.Sprintf("accessibility coverage gap: no lodging option mentions %s", need)))
		}
	}
	return gaps
}

func textOf(subjects []subject, worker models.WorkerType) string {
	var b strings.Builder
	for _, s := range subjects {
		if s.worker != worker {
			continue
		}
		r := s.rec
		b.WriteString(strings.ToLower(strings.Join([]string{r.Name, r.Description, r.WhyRecommended, r.Cuisine}, " ")))
		b.WriteString(" ")
		b.WriteString(strings.ToLower(strings.Join(r.Amenities, " ")))
		b.WriteString("\n")
	}
	return b.String()
}

func containsWord(text, word string) bool {
	for _, f := range strings.FieldsFunc(text, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	}) {
		if f == word {
			return true
		}
	}
	return false
}

func normalizeStatus(s string) (models.VerificationStatus, bool) {
	switch models.VerificationStatus(strings.ToLower(strings.TrimSpace(s))) {
	case models.Verified:
		return models.Verified, true
	case models.Unverified:
		return models.Unverified, true
	case models.Flagged:
		return models.Flagged, true
	}
	return "", false
}

func summarize(r *models.ValidationReport) string {
	return fmt.Sprintf("%d verified, %d unverified, %d flagged", r.Count(models.Verified), r.Count(models.Unverified), r.Count(models.Flagged))
}
