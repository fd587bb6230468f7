package route

import (
	"cmp"
	"slices"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
)

const topPriorityCount = 5

// ObjectRef names an object in a summary without carrying the full record.
type ObjectRef struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Region    string          `json:"region"`
	Condition int             `json:"technical_condition"`
	Priority  domain.Priority `json:"priority"`
}

// Summary is a registry overview for reports and assistant prompts.
type Summary struct {
	Total           int                         `json:"total"`
	Critical        int                         `json:"critical"`
	Good            int                         `json:"good"`
	ByCondition     map[int]int                 `json:"by_condition"`
	ByRegion        map[string]int              `json:"by_region"`
	ByType          map[domain.ResourceType]int `json:"by_type"`
	CriticalObjects []ObjectRef                 `json:"critical_objects"`
	TopPriority     []ObjectRef                 `json:"top_priority"`
}

// Summarize counts objects by state, condition grade, region and type, and
// lists the five objects with the highest route priority.
func Summarize(objs []domain.WaterObject, now time.Time) Summary {
	s := Summary{
		Total:           len(objs),
		ByCondition:     make(map[int]int),
		ByRegion:        make(map[string]int),
		ByType:          make(map[domain.ResourceType]int),
		CriticalObjects: []ObjectRef{},
	}

	refs := make([]ObjectRef, len(objs))
	for i, o := range objs {
		refs[i] = ObjectRef{
			ID:        o.ID,
			Name:      o.Name,
			Region:    o.Region,
			Condition: o.TechnicalCondition,
			Priority:  domain.RoutePriority(o.TechnicalCondition, passportDate(o, now), now),
		}

		s.ByCondition[o.TechnicalCondition]++
		s.ByRegion[o.Region]++
		s.ByType[o.ResourceType]++
		switch {
		case domain.IsCritical(o.TechnicalCondition):
			s.Critical++
			s.CriticalObjects = append(s.CriticalObjects, refs[i])
		case o.TechnicalCondition <= 2:
			s.Good++
		}
	}

	slices.SortStableFunc(refs, func(a, b ObjectRef) int {
		return cmp.Compare(b.Priority.Score, a.Priority.Score)
	})
	if len(refs) > topPriorityCount {
		refs = refs[:topPriorityCount]
	}
	s.TopPriority = refs
	return s
}

// HeatPoint is one weighted point of the risk heatmap.
type HeatPoint struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Intensity float64 `json:"intensity"`
}

// Heatmap weights each object's position by condition/5, so condition 5
// renders at full intensity.
func Heatmap(objs []domain.WaterObject) []HeatPoint {
	points := make([]HeatPoint, len(objs))
	for i, o := range objs {
		points[i] = HeatPoint{
			Lat:       o.Latitude,
			Lng:       o.Longitude,
			Intensity: float64(o.TechnicalCondition) / domain.MaxCondition,
		}
	}
	return points
}
