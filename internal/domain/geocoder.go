package domain

import "context"

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Region           string  // first-level administrative area, e.g. "Almaty Region"
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves positions for water objects.
type Geocoder interface {
	// ForwardGeocode converts an object name and region to coordinates.
	ForwardGeocode(ctx context.Context, name, region string) (GeocodingResult, error)

	// ReverseGeocode converts coordinates to place details.
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
