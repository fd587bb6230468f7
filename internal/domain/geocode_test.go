package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

type mockGeocoder struct {
	forwardResult GeocodingResult
	forwardErr    error
	reverseResult GeocodingResult
	reverseErr    error
	forwardCalls  int
	reverseCalls  int
}

func (m *mockGeocoder) ForwardGeocode(_ context.Context, _, _ string) (GeocodingResult, error) {
	m.forwardCalls++
	return m.forwardResult, m.forwardErr
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.reverseCalls++
	return m.reverseResult, m.reverseErr
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	t.Run("missing coordinates fall back to centroid", func(t *testing.T) {
		out := EnrichWithGeocoding(context.Background(), WaterObject{Name: "Alakol", Region: "Abai Region"}, nil, discardLogger())
		assert.Equal(t, DefaultLatitude, out.Latitude)
		assert.Equal(t, DefaultLongitude, out.Longitude)
		assert.Equal(t, "default", out.GeoSource)
	})

	t.Run("existing coordinates kept", func(t *testing.T) {
		out := EnrichWithGeocoding(context.Background(), WaterObject{Latitude: 46.1, Longitude: 81.7}, nil, discardLogger())
		assert.Equal(t, 46.1, out.Latitude)
		assert.Equal(t, "original", out.GeoSource)
	})
}

func TestEnrichWithGeocoding_Forward(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		geo := &mockGeocoder{forwardResult: GeocodingResult{
			Lat:              46.15,
			Lon:              81.75,
			FormattedAddress: "Alakol, Abai Region, Kazakhstan",
			Confidence:       0.9,
		}}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Name: "Alakol", Region: "Abai Region"}, geo, discardLogger())

		assert.Equal(t, 1, geo.forwardCalls)
		assert.Equal(t, 46.15, out.Latitude)
		assert.Equal(t, 81.75, out.Longitude)
		assert.Equal(t, "Alakol, Abai Region, Kazakhstan", out.FormattedAddress)
		assert.Equal(t, 0.9, out.GeoConfidence)
		assert.Equal(t, "forward", out.GeoSource)
	})

	t.Run("error falls back to centroid", func(t *testing.T) {
		geo := &mockGeocoder{forwardErr: errors.New("timeout")}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Name: "Alakol", Region: "Abai Region"}, geo, discardLogger())

		assert.Equal(t, DefaultLatitude, out.Latitude)
		assert.Equal(t, "failed", out.GeoSource)
	})

	t.Run("empty result falls back to centroid", func(t *testing.T) {
		geo := &mockGeocoder{}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Name: "Alakol", Region: "Abai Region"}, geo, discardLogger())

		assert.Equal(t, DefaultLongitude, out.Longitude)
		assert.Equal(t, "default", out.GeoSource)
	})

	t.Run("no name skips lookup", func(t *testing.T) {
		geo := &mockGeocoder{}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Region: "Abai Region"}, geo, discardLogger())

		assert.Zero(t, geo.forwardCalls)
		assert.Equal(t, "default", out.GeoSource)
	})
}

func TestEnrichWithGeocoding_Reverse(t *testing.T) {
	t.Run("fills missing region", func(t *testing.T) {
		geo := &mockGeocoder{reverseResult: GeocodingResult{
			FormattedAddress: "Shardara, Turkistan Region, Kazakhstan",
			Region:           "Turkistan Region",
			Confidence:       0.8,
		}}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Name: "Shardara", Latitude: 41.25, Longitude: 67.97}, geo, discardLogger())

		assert.Equal(t, 1, geo.reverseCalls)
		assert.Equal(t, "Turkistan Region", out.Region)
		assert.Equal(t, "reverse", out.GeoSource)
	})

	t.Run("region present skips lookup", func(t *testing.T) {
		geo := &mockGeocoder{}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Region: "Turkistan Region", Latitude: 41.25, Longitude: 67.97}, geo, discardLogger())

		assert.Zero(t, geo.reverseCalls)
		assert.Equal(t, "original", out.GeoSource)
	})

	t.Run("error keeps coordinates", func(t *testing.T) {
		geo := &mockGeocoder{reverseErr: errors.New("status 500")}
		out := EnrichWithGeocoding(context.Background(), WaterObject{Latitude: 41.25, Longitude: 67.97}, geo, discardLogger())

		assert.Equal(t, 41.25, out.Latitude)
		assert.Empty(t, out.Region)
		assert.Equal(t, "failed", out.GeoSource)
	})
}
