package route

import (
	"strings"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
)

// Filter selects registry objects for listing and ranking. Zero-valued
// fields match every object; set fields must all match.
type Filter struct {
	Level        domain.PriorityLevel // inspection priority level as of now
	Region       string
	ResourceType domain.ResourceType
	WaterType    domain.WaterType
	Fauna        *bool
	MinCondition int
	MaxCondition int
	PassportFrom time.Time // inclusive
	PassportTo   time.Time // inclusive
	Search       string    // case-insensitive substring of name, region or description
}

// Match reports whether o passes every set criterion.
func (f Filter) Match(o domain.WaterObject, now time.Time) bool {
	switch {
	case f.Region != "" && o.Region != f.Region:
		return false
	case f.ResourceType != "" && o.ResourceType != f.ResourceType:
		return false
	case f.WaterType != "" && o.WaterType != f.WaterType:
		return false
	case f.Fauna != nil && o.Fauna != *f.Fauna:
		return false
	case f.MinCondition > 0 && o.TechnicalCondition < f.MinCondition:
		return false
	case f.MaxCondition > 0 && o.TechnicalCondition > f.MaxCondition:
		return false
	}

	issued := passportDate(o, now)
	if !f.PassportFrom.IsZero() && issued.Before(f.PassportFrom) {
		return false
	}
	if !f.PassportTo.IsZero() && issued.After(f.PassportTo) {
		return false
	}
	if f.Search != "" && !matchesSearch(o, f.Search) {
		return false
	}
	if f.Level != "" && domain.InspectionPriority(o.TechnicalCondition, issued, now).Level != f.Level {
		return false
	}
	return true
}

// Apply returns the matching objects in input order.
func (f Filter) Apply(objs []domain.WaterObject, now time.Time) []domain.WaterObject {
	out := make([]domain.WaterObject, 0, len(objs))
	for _, o := range objs {
		if f.Match(o, now) {
			out = append(out, o)
		}
	}
	return out
}

func matchesSearch(o domain.WaterObject, term string) bool {
	term = strings.ToLower(term)
	for _, field := range []string{o.Name, o.Region, o.Description} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}
