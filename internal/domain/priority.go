package domain

import (
	"fmt"
	"math"
	"time"
)

// PriorityLevel buckets a priority score for filtering and display.
type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
)

// Priority is a scored urgency for re-inspecting an object.
type Priority struct {
	Score float64       `json:"score"`
	Level PriorityLevel `json:"level"`
}

const (
	MinCondition      = 1
	MaxCondition      = 5
	CriticalCondition = 4

	daysPerYear   = 365
	secondsPerDay = 86400
)

// Inspection priority thresholds.
const (
	inspectionHighThreshold   = 15.0
	inspectionMediumThreshold = 9.0
)

// Route priority thresholds.
const (
	routeHighThreshold   = 12.0
	routeMediumThreshold = 6.0
)

// PassportAgeYears returns the time elapsed from passportDate to now in
// 365-day years. Future passport dates produce a negative age. The difference
// is taken in seconds since time.Duration saturates near 292 years.
func PassportAgeYears(passportDate, now time.Time) float64 {
	secs := float64(now.Unix() - passportDate.Unix())
	secs += float64(now.Nanosecond()-passportDate.Nanosecond()) / 1e9
	return secs / secondsPerDay / daysPerYear
}

// InspectionPriority scores an object for the record listing and detail views:
// worse condition and an older passport both raise the score.
//
//	score = condition*3 + ageYears
//
// It panics if condition is outside 1..5; callers validate records first.
func InspectionPriority(condition int, passportDate, now time.Time) Priority {
	mustCondition(condition)

	score := float64(condition)*3 + PassportAgeYears(passportDate, now)
	return Priority{
		Score: round2(score),
		Level: bucket(score, inspectionHighThreshold, inspectionMediumThreshold),
	}
}

// RoutePriority scores an object for route building and summary context.
//
//	score = (6-condition)*3 + ageYears
//
// This weights condition in the opposite direction to InspectionPriority and
// uses lower thresholds (12/6). The two are not interchangeable.
//
// It panics if condition is outside 1..5.
func RoutePriority(condition int, passportDate, now time.Time) Priority {
	mustCondition(condition)

	score := float64(6-condition)*3 + PassportAgeYears(passportDate, now)
	return Priority{
		Score: round2(score),
		Level: bucket(score, routeHighThreshold, routeMediumThreshold),
	}
}

// bucket compares the unrounded score so a value just below a threshold is not
// promoted by rounding.
func bucket(score, high, medium float64) PriorityLevel {
	switch {
	case score >= high:
		return PriorityHigh
	case score >= medium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// IsCritical reports whether a condition grade needs immediate attention.
func IsCritical(condition int) bool {
	return condition >= CriticalCondition
}

func mustCondition(condition int) {
	if condition < MinCondition || condition > MaxCondition {
		panic(fmt.Sprintf("domain: technical condition %d outside %d..%d", condition, MinCondition, MaxCondition))
	}
}

// round2 rounds half up to two decimal places.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
