package domain

import (
	"context"
	"log/slog"
)

// Fallback position used when an object has no coordinates and geocoding
// cannot supply them: the approximate geographic centre of Kazakhstan.
const (
	DefaultLatitude  = 48.0
	DefaultLongitude = 68.0
)

// EnrichWithGeocoding fills in location data the importer could not supply.
// Objects without coordinates are forward-geocoded from name and region and
// fall back to the default centroid; objects with coordinates but no region
// are reverse-geocoded. A nil geocoder only applies the fallback.
func EnrichWithGeocoding(ctx context.Context, obj WaterObject, geocoder Geocoder, logger *slog.Logger) WaterObject {
	hasCoords := obj.HasCoordinates()

	if geocoder == nil {
		if !hasCoords {
			return withDefaultPosition(obj)
		}
		obj.GeoSource = "original"
		return obj
	}

	if !hasCoords {
		if obj.Name == "" || obj.Region == "" {
			return withDefaultPosition(obj)
		}
		result, err := geocoder.ForwardGeocode(ctx, obj.Name, obj.Region)
		if err != nil {
			logger.Warn("forward geocoding failed",
				"record_id", obj.ID,
				"name", obj.Name,
				"region", obj.Region,
				"error", err,
			)
			obj = withDefaultPosition(obj)
			obj.GeoSource = "failed"
			return obj
		}
		if result.Lat == 0 && result.Lon == 0 {
			return withDefaultPosition(obj)
		}
		obj.Latitude = result.Lat
		obj.Longitude = result.Lon
		obj.FormattedAddress = result.FormattedAddress
		obj.GeoConfidence = result.Confidence
		obj.GeoSource = "forward"
		return obj
	}

	if obj.Region == "" {
		result, err := geocoder.ReverseGeocode(ctx, obj.Latitude, obj.Longitude)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"record_id", obj.ID,
				"lat", obj.Latitude,
				"lon", obj.Longitude,
				"error", err,
			)
			obj.GeoSource = "failed"
			return obj
		}
		if result.Region != "" {
			obj.Region = result.Region
			obj.FormattedAddress = result.FormattedAddress
			obj.GeoConfidence = result.Confidence
			obj.GeoSource = "reverse"
			return obj
		}
	}

	obj.GeoSource = "original"
	return obj
}

func withDefaultPosition(obj WaterObject) WaterObject {
	obj.Latitude = DefaultLatitude
	obj.Longitude = DefaultLongitude
	obj.GeoSource = "default"
	return obj
}
