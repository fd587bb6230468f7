package domain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RawRecord is the flat JSON structure published by the importer. Numeric
// fields are loosely typed because spreadsheet-derived values often arrive as
// strings.
type RawRecord struct {
	ID                 flexString `json:"id"`
	Name               string     `json:"name"`
	Region             string     `json:"region"`
	ResourceType       string     `json:"resource_type"`
	WaterType          flexString `json:"water_type"`
	Fauna              flexBool   `json:"fauna"`
	FaunaDescription   string     `json:"fauna_description"`
	PassportDate       flexString `json:"passport_date"`
	TechnicalCondition flexInt    `json:"technical_condition"`
	Latitude           flexFloat  `json:"latitude"`
	Longitude          flexFloat  `json:"longitude"`
	Description        string     `json:"description"`
	PDFURL             string     `json:"pdf_url"`
}

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// WaterObject is a parsed inspection record, optionally carrying its
// assessment once enriched.
type WaterObject struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Region             string       `json:"region"`
	ResourceType       ResourceType `json:"resource_type"`
	WaterType          WaterType    `json:"water_type,omitempty"`
	Fauna              bool         `json:"fauna"`
	FaunaDescription   string       `json:"fauna_description,omitempty"`
	PassportDate       Date         `json:"passport_date"`
	TechnicalCondition int          `json:"technical_condition"`
	Latitude           float64      `json:"latitude"`
	Longitude          float64      `json:"longitude"`
	Description        string       `json:"description,omitempty"`
	PDFURL             string       `json:"pdf_url,omitempty"`

	// Geocoding enrichment fields.
	FormattedAddress string  `json:"formatted_address,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "original", "forward", "reverse", "default", "failed"

	Priority   *Priority   `json:"priority,omitempty"`
	Prediction *Prediction `json:"prediction,omitempty"`
	AssessedAt time.Time   `json:"assessed_at"`

	RawPayload []byte `json:"-"`
}

// HasCoordinates reports whether the object carries a usable position. A 0,0
// pair is treated as absent, as the importer emits zeros for blanks.
func (o WaterObject) HasCoordinates() bool {
	return o.Latitude != 0 || o.Longitude != 0
}

// InspectionRecord projects the fields the assessment model reads.
func (o WaterObject) InspectionRecord() InspectionRecord {
	return InspectionRecord{
		TechnicalCondition: o.TechnicalCondition,
		PassportDate:       o.PassportDate.Time,
		ResourceType:       o.ResourceType,
		WaterType:          o.WaterType,
		HasFauna:           o.Fauna,
	}
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// flexString accepts a JSON string, number, or boolean; null and absent
// decode to "".
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "null":
		*s = ""
		return nil
	case "true", "false":
		*s = flexString(data)
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(strings.TrimSpace(v))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("expected string or number: %w", err)
	}
	*s = flexString(n.String())
	return nil
}

// flexInt accepts a whole JSON number or a numeric string. Blank values
// decode to zero, which validation treats as missing.
type flexInt int

func (i *flexInt) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*i = 0
		return nil
	}
	f, err := strconv.ParseFloat(string(s), 64)
	if err != nil || f != math.Trunc(f) {
		return fmt.Errorf("expected whole number, got %q", string(s))
	}
	*i = flexInt(f)
	return nil
}

// flexFloat accepts a JSON number or numeric string; blanks decode to zero.
// NaN and infinities are rejected.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(string(s), ",", "."), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("expected number, got %q", string(s))
	}
	*f = flexFloat(v)
	return nil
}

// flexBool accepts true/false, 0/1, and their string forms.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(data); err != nil {
		return err
	}
	switch strings.ToLower(string(s)) {
	case "true", "1", "yes", "да":
		*b = true
	case "", "false", "0", "no", "нет":
		*b = false
	default:
		return fmt.Errorf("expected boolean, got %q", string(s))
	}
	return nil
}
