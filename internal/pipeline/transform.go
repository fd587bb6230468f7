package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/hydro-priority-service/internal/domain"
)

// AssessmentTransformer implements Transformer using the domain functions
// with optional geocoding enrichment.
type AssessmentTransformer struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an AssessmentTransformer. Pass a nil geocoder to
// disable geocoding; objects without coordinates then take the default position.
func NewTransformer(geocoder domain.Geocoder, logger *slog.Logger) *AssessmentTransformer {
	return &AssessmentTransformer{
		geocoder: geocoder,
		logger:   logger,
	}
}

// Transform parses, locates, validates and assesses one inspection record.
// Geocoding runs before validation so a reverse-geocoded region counts.
func (t *AssessmentTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.WaterObject, error) {
	obj, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.WaterObject{}, err
	}

	obj = domain.EnrichWithGeocoding(ctx, obj, t.geocoder, t.logger)

	if err := domain.ValidateWaterObject(obj); err != nil {
		return domain.WaterObject{}, err
	}

	return domain.EnrichWaterObject(obj), nil
}
