package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// objectNamespace seeds name-based IDs for records the importer did not number.
var objectNamespace = uuid.MustParse("6f1c2a8e-3b7d-4c55-9a0e-1d2f7b9c4e31")

// ParseRawEvent deserializes a RawEvent's value into a WaterObject. Enum
// fields are normalized when recognized and kept verbatim otherwise, so
// ValidateWaterObject can report the offending value.
func ParseRawEvent(raw RawEvent) (WaterObject, error) {
	var rec RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return WaterObject{}, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
	}

	obj := WaterObject{
		ID:                 string(rec.ID),
		Name:               strings.TrimSpace(rec.Name),
		Region:             strings.TrimSpace(rec.Region),
		ResourceType:       normalizeResourceType(rec.ResourceType),
		WaterType:          normalizeWaterType(string(rec.WaterType)),
		Fauna:              bool(rec.Fauna),
		FaunaDescription:   rec.FaunaDescription,
		TechnicalCondition: int(rec.TechnicalCondition),
		Latitude:           float64(rec.Latitude),
		Longitude:          float64(rec.Longitude),
		Description:        rec.Description,
		PDFURL:             rec.PDFURL,
		RawPayload:         raw.Value,
	}

	if rec.PassportDate != "" {
		d, err := ParseDate(string(rec.PassportDate))
		if err != nil {
			return WaterObject{}, &ValidationError{Field: "passport_date", Value: string(rec.PassportDate), Err: ErrInvalidPassportDate}
		}
		obj.PassportDate = d
	}

	if obj.ID == "" {
		obj.ID = generateID(obj.Name, obj.Region, obj.ResourceType)
	}
	return obj, nil
}

func normalizeResourceType(s string) ResourceType {
	if t, ok := ParseResourceType(s); ok {
		return t
	}
	return ResourceType(strings.TrimSpace(s))
}

func normalizeWaterType(s string) WaterType {
	if t, ok := ParseWaterType(s); ok {
		return t
	}
	return WaterType(strings.TrimSpace(s))
}

// generateID derives a stable UUID from the object's identifying fields so a
// re-imported record maps to the same downstream row.
func generateID(name, region string, rt ResourceType) string {
	key := strings.ToLower(name) + "|" + strings.ToLower(region) + "|" + string(rt)
	return uuid.NewSHA1(objectNamespace, []byte(key)).String()
}

// ValidateWaterObject applies the field-presence and range checks required
// before a record may be assessed. All violations are joined in field order.
func ValidateWaterObject(obj WaterObject) error {
	var errs []error

	if obj.Name == "" {
		errs = append(errs, &ValidationError{Field: "name", Err: ErrMissingField})
	}
	if obj.Region == "" {
		errs = append(errs, &ValidationError{Field: "region", Err: ErrMissingField})
	}
	switch {
	case obj.ResourceType == "":
		errs = append(errs, &ValidationError{Field: "resource_type", Err: ErrMissingField})
	default:
		if _, ok := degradationRates[obj.ResourceType]; !ok {
			errs = append(errs, &ValidationError{Field: "resource_type", Value: string(obj.ResourceType), Err: ErrUnknownResourceType})
		}
	}
	if obj.WaterType != "" {
		if _, ok := waterFactors[obj.WaterType]; !ok {
			errs = append(errs, &ValidationError{Field: "water_type", Value: string(obj.WaterType), Err: ErrUnknownWaterType})
		}
	}
	switch {
	case obj.TechnicalCondition == 0:
		errs = append(errs, &ValidationError{Field: "technical_condition", Err: ErrMissingField})
	case obj.TechnicalCondition < MinCondition || obj.TechnicalCondition > MaxCondition:
		errs = append(errs, &ValidationError{Field: "technical_condition", Value: obj.TechnicalCondition, Err: ErrConditionOutOfRange})
	}
	if !finite(obj.Latitude) || obj.Latitude < -90 || obj.Latitude > 90 {
		errs = append(errs, &ValidationError{Field: "latitude", Value: obj.Latitude, Err: ErrCoordinatesOutOfBand})
	}
	if !finite(obj.Longitude) || obj.Longitude < -180 || obj.Longitude > 180 {
		errs = append(errs, &ValidationError{Field: "longitude", Value: obj.Longitude, Err: ErrCoordinatesOutOfBand})
	}

	return errors.Join(errs...)
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// EnrichWaterObject stamps the assessment time and attaches the inspection
// priority and degradation forecast. A missing passport date defaults to the
// assessment day. The object must have passed ValidateWaterObject.
func EnrichWaterObject(obj WaterObject) WaterObject {
	now := clock.Now()
	if obj.PassportDate.IsZero() {
		obj.PassportDate = NewDate(now)
	}

	a := Assess(obj.InspectionRecord(), now)
	obj.Priority = &a.Priority
	obj.Prediction = &a.Prediction
	obj.AssessedAt = now.UTC()
	return obj
}

// SerializeWaterObject marshals an assessed object into an OutputEvent keyed
// by its ID.
func SerializeWaterObject(obj WaterObject) (OutputEvent, error) {
	data, err := json.Marshal(obj)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize water object: %w", err)
	}

	headers := map[string]string{
		"resource_type": string(obj.ResourceType),
		"assessed_at":   obj.AssessedAt.Format(time.RFC3339),
		"critical":      strconv.FormatBool(IsCritical(obj.TechnicalCondition)),
	}
	if obj.Priority != nil {
		headers["priority_level"] = string(obj.Priority.Level)
	}

	return OutputEvent{
		Key:     []byte(obj.ID),
		Value:   data,
		Headers: headers,
	}, nil
}
