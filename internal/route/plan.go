// Package route ranks assessed water objects and plans field inspection trips.
package route

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
)

const (
	// DefaultMaxObjects caps a planned trip when Options.MaxObjects is unset.
	DefaultMaxObjects = 10

	// minRouteCondition is the lowest condition worth a field visit.
	minRouteCondition = 3

	kmPerDegree    = 111.0
	travelSpeedKMH = 60.0
)

// Options narrows the candidates for Plan.
type Options struct {
	Region     string // exact match; empty means all regions
	MaxObjects int
}

// Stop is one visit on a planned trip.
type Stop struct {
	Order    int                `json:"order"`
	Object   domain.WaterObject `json:"object"`
	Priority domain.Priority    `json:"priority"`
}

// Route is an ordered inspection trip.
type Route struct {
	Stops           []Stop `json:"route"`
	TotalDistanceKM int    `json:"total_distance_km"`
	EstimatedHours  int    `json:"estimated_hours"`
}

// Plan selects objects in condition 3 or worse, keeps the MaxObjects worst
// (ties keep input order), and orders them by nearest-neighbour from the
// worst one. Distances are straight lines on raw degrees at 111 km per
// degree; travel time assumes 60 km/h.
func Plan(objs []domain.WaterObject, now time.Time, opts Options) Route {
	limit := opts.MaxObjects
	if limit <= 0 {
		limit = DefaultMaxObjects
	}

	candidates := make([]domain.WaterObject, 0, len(objs))
	for _, o := range objs {
		if o.TechnicalCondition < minRouteCondition {
			continue
		}
		if opts.Region != "" && o.Region != opts.Region {
			continue
		}
		candidates = append(candidates, o)
	}
	if len(candidates) == 0 {
		return Route{Stops: []Stop{}}
	}

	slices.SortStableFunc(candidates, func(a, b domain.WaterObject) int {
		return cmp.Compare(b.TechnicalCondition, a.TechnicalCondition)
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	ordered := nearestNeighbour(candidates)

	var total float64
	stops := make([]Stop, len(ordered))
	for i, o := range ordered {
		if i > 0 {
			total += distanceDegrees(ordered[i-1], o) * kmPerDegree
		}
		stops[i] = Stop{
			Order:    i + 1,
			Object:   o,
			Priority: domain.RoutePriority(o.TechnicalCondition, passportDate(o, now), now),
		}
	}

	return Route{
		Stops:           stops,
		TotalDistanceKM: roundHalfUp(total),
		EstimatedHours:  roundHalfUp(total / travelSpeedKMH),
	}
}

// nearestNeighbour stitches a path starting at the first object, always
// moving to the closest unvisited one. Ties go to the earlier candidate.
func nearestNeighbour(objs []domain.WaterObject) []domain.WaterObject {
	remaining := slices.Clone(objs)
	path := make([]domain.WaterObject, 0, len(objs))

	current := remaining[0]
	remaining = remaining[1:]
	path = append(path, current)

	for len(remaining) > 0 {
		nearest := 0
		best := math.Inf(1)
		for i, o := range remaining {
			if d := distanceDegrees(current, o); d < best {
				best = d
				nearest = i
			}
		}
		current = remaining[nearest]
		remaining = slices.Delete(remaining, nearest, nearest+1)
		path = append(path, current)
	}
	return path
}

func distanceDegrees(a, b domain.WaterObject) float64 {
	return math.Hypot(b.Latitude-a.Latitude, b.Longitude-a.Longitude)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// passportDate treats a missing passport as issued today, as enrichment does.
func passportDate(o domain.WaterObject, now time.Time) time.Time {
	if o.PassportDate.IsZero() {
		return now
	}
	return o.PassportDate.Time
}
