// Package domain models inspection records for hydraulic infrastructure
// (lakes, canals, reservoirs, navigation locks, hydro-complexes, dams) and the
// maintenance-priority and degradation-prediction model computed from them.
//
// # Data Source
//
// Records originate from an upstream importer that parses spreadsheets and
// inspection documents, standardizes them through a language model, and
// publishes each object as flat JSON to the Kafka source topic. Field names
// follow the importer's snake_case convention (technical_condition,
// passport_date, resource_type, water_type, fauna).
//
// # Technical Condition
//
// An integer grade from 1 (excellent) to 5 (emergency). Grades 4 and 5 are
// critical: the object needs attention regardless of any forecast.
//
// # Inspection Priority
//
// Used to sort and filter records for re-inspection:
//
//	score = condition × 3 + passport age in years
//	score ≥ 15 high | 9 ≤ score < 15 medium | score < 9 low
//
// Passport age is days elapsed since the passport date divided by 365. A
// passport dated in the future yields a negative age and lowers the score; it
// is accepted, not rejected.
//
// # Route Priority
//
// The analytics views (inspection route, assistant context) use a different
// formula that weights condition in the opposite direction:
//
//	score = (6 − condition) × 3 + passport age in years
//	score ≥ 12 high | 6 ≤ score < 12 medium | score < 6 low
//
// The two formulas disagree and are kept apart on purpose; see
// [InspectionPriority] and [RoutePriority].
//
// # Degradation Forecast
//
// For non-critical objects the time to reach grade 4 is estimated from a base
// degradation rate per resource type (categories lost per year), scaled by
// water aggressiveness and ecosystem load:
//
//	dam 0.25 | lock 0.6 | hydro-complex 0.5 | canal 0.4 | reservoir 0.2 | lake 0.15 (default 0.4)
//	saline water × 1.3 | fresh × 1.0 | dry × 0.8 (default 1.0)
//	fauna present × 1.15
//
// Confidence drops as the passport ages: under one year high (90%), under
// three medium (70%), otherwise low (70 − 10 per year, floor 30%).
//
// # Time
//
// Every computation takes "now" explicitly. The enrichment path reads it from
// the package clock, which tests replace via [SetClock].
package domain
