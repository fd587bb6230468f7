package domain

import (
	"fmt"
	"math"
	"time"
)

// InspectionRecord is the subset of a water object the assessment model reads.
type InspectionRecord struct {
	TechnicalCondition int
	PassportDate       time.Time
	ResourceType       ResourceType
	WaterType          WaterType
	HasFauna           bool
}

// Confidence is a qualitative trust level for a forecast.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// RiskFactorKind tags a contributing reason so consumers need not parse text.
type RiskFactorKind string

const (
	FactorAggressiveEnvironment    RiskFactorKind = "aggressive_environment"
	FactorEcosystemLoad            RiskFactorKind = "ecosystem_load"
	FactorStructuralSusceptibility RiskFactorKind = "structural_susceptibility"
	FactorStaleData                RiskFactorKind = "stale_data"
	FactorAlreadyCritical          RiskFactorKind = "already_critical"
)

// RiskFactor is one reason contributing to a forecast.
type RiskFactor struct {
	Kind RiskFactorKind `json:"kind"`
	Text string         `json:"text"`
}

// DegradationModel exposes the coefficients behind a forecast, rounded to two
// decimals.
type DegradationModel struct {
	BaseDegradationRate      float64 `json:"base_degradation_rate"`
	WaterFactor              float64 `json:"water_factor"`
	FaunaFactor              float64 `json:"fauna_factor"`
	EffectiveDegradationRate float64 `json:"effective_degradation_rate"`
}

// Prediction is either a critical verdict (Critical set, Message filled) or a
// forecast of when the object reaches grade 4.
type Prediction struct {
	Critical              bool              `json:"critical"`
	Message               string            `json:"message,omitempty"`
	PredictedCriticalDate *Date             `json:"predicted_critical_date,omitempty"`
	MonthsRemaining       int               `json:"months_remaining,omitempty"`
	Confidence            Confidence        `json:"confidence"`
	ConfidencePercent     float64           `json:"confidence_percent,omitempty"`
	Factors               []RiskFactor      `json:"factors"`
	Model                 *DegradationModel `json:"model,omitempty"`
}

// Assessment bundles both model outputs for one record at one instant.
type Assessment struct {
	Priority   Priority   `json:"priority"`
	Prediction Prediction `json:"prediction"`
}

const (
	defaultDegradationRate = 0.4
	defaultWaterFactor     = 1.0
	faunaLoadFactor        = 1.15

	// Base rates at or above this mark the resource type as wear-prone.
	susceptibleRate = 0.5
	// Passports older than this many years are reported as stale.
	staleAfterYears = 2.0

	criticalMessage = "requires immediate attention"
)

// degradationRates holds condition categories lost per year by resource type.
var degradationRates = map[ResourceType]float64{
	Dam:          0.25,
	Lock:         0.6,
	HydroComplex: 0.5,
	Canal:        0.4,
	Reservoir:    0.2,
	Lake:         0.15,
}

// waterFactors scales degradation by how aggressive the water is.
var waterFactors = map[WaterType]float64{
	WaterSaline: 1.3,
	WaterFresh:  1.0,
	WaterNone:   0.8,
}

func baseDegradationRate(t ResourceType) float64 {
	if r, ok := degradationRates[t]; ok {
		return r
	}
	return defaultDegradationRate
}

func waterFactor(w WaterType) float64 {
	if f, ok := waterFactors[w]; ok {
		return f
	}
	return defaultWaterFactor
}

func faunaFactor(hasFauna bool) float64 {
	if hasFauna {
		return faunaLoadFactor
	}
	return 1.0
}

// PredictCriticalDate forecasts when a record reaches critical condition.
// Records already at grade 4 or worse short-circuit to a critical verdict.
//
// It panics if the condition is outside 1..5.
func PredictCriticalDate(rec InspectionRecord, now time.Time) Prediction {
	mustCondition(rec.TechnicalCondition)

	if IsCritical(rec.TechnicalCondition) {
		return Prediction{
			Critical:   true,
			Message:    criticalMessage,
			Confidence: ConfidenceHigh,
			Factors: []RiskFactor{
				{Kind: FactorAlreadyCritical, Text: "current condition is already critical"},
			},
		}
	}

	base := baseDegradationRate(rec.ResourceType)
	water := waterFactor(rec.WaterType)
	fauna := faunaFactor(rec.HasFauna)
	effective := base * water * fauna

	ageYears := PassportAgeYears(rec.PassportDate, now)
	categoriesToCritical := CriticalCondition - rec.TechnicalCondition
	yearsToCritical := float64(categoriesToCritical) / effective
	months := int(math.Floor(yearsToCritical*12 + 0.5))

	confidence, percent := forecastConfidence(ageYears)
	predicted := calendarDay(now.UTC().AddDate(0, months, 0))

	return Prediction{
		PredictedCriticalDate: &predicted,
		MonthsRemaining:       months,
		Confidence:            confidence,
		ConfidencePercent:     percent,
		Factors:               riskFactors(rec.ResourceType, base, water, fauna, ageYears),
		Model: &DegradationModel{
			BaseDegradationRate:      round2(base),
			WaterFactor:              round2(water),
			FaunaFactor:              round2(fauna),
			EffectiveDegradationRate: round2(effective),
		},
	}
}

// Assess computes the inspection priority and the degradation forecast for a
// record against the same instant.
func Assess(rec InspectionRecord, now time.Time) Assessment {
	return Assessment{
		Priority:   InspectionPriority(rec.TechnicalCondition, rec.PassportDate, now),
		Prediction: PredictCriticalDate(rec, now),
	}
}

func forecastConfidence(ageYears float64) (Confidence, float64) {
	switch {
	case ageYears < 1:
		return ConfidenceHigh, 90
	case ageYears < 3:
		return ConfidenceMedium, 70
	default:
		return ConfidenceLow, round2(math.Max(30, 70-ageYears*10))
	}
}

// riskFactors lists contributing reasons in a fixed order: environment,
// fauna, structure type, staleness.
func riskFactors(rt ResourceType, base, water, fauna, ageYears float64) []RiskFactor {
	factors := make([]RiskFactor, 0, 4)
	if water > 1 {
		factors = append(factors, RiskFactor{
			Kind: FactorAggressiveEnvironment,
			Text: "aggressive environment (non-fresh water)",
		})
	}
	if fauna > 1 {
		factors = append(factors, RiskFactor{
			Kind: FactorEcosystemLoad,
			Text: "ecosystem load (fauna present)",
		})
	}
	if base >= susceptibleRate {
		factors = append(factors, RiskFactor{
			Kind: FactorStructuralSusceptibility,
			Text: fmt.Sprintf("resource type %s is prone to wear", rt),
		})
	}
	if ageYears > staleAfterYears {
		factors = append(factors, RiskFactor{
			Kind: FactorStaleData,
			Text: fmt.Sprintf("stale data (passport issued %d years ago)", int(math.Floor(ageYears+0.5))),
		})
	}
	return factors
}
