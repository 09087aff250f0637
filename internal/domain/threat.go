package domain

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidLocation is returned when a monitored location has a non-positive
	// radius or coordinates that are not finite degrees in range.
	ErrInvalidLocation = errors.New("invalid location")

	// ErrMissingThreatID is returned when a feed record has no identifier.
	ErrMissingThreatID = errors.New("threat record has no id")
)

// Point is a WGS-84 latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ThreatRecord is a single observed hazard event. The ID is stable across
// refreshes of the same underlying event.
type ThreatRecord struct {
	ID          string     `json:"id"`
	Type        ThreatType `json:"type"`
	Severity    Severity   `json:"severity"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Timestamp   int64      `json:"timestamp"` // epoch milliseconds
	Source      string     `json:"source"`
	RadiusKm    float64    `json:"radiusKm,omitempty"` // display only
}

// Point returns the threat's coordinates.
func (t ThreatRecord) Point() Point {
	return Point{Lat: t.Latitude, Lon: t.Longitude}
}

// Time returns the event time.
func (t ThreatRecord) Time() time.Time {
	return time.UnixMilli(t.Timestamp).UTC()
}

// MonitoredLocation is a user-registered point with a watch radius.
type MonitoredLocation struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	RadiusKm  float64 `json:"radiusKm"`
}

// Point returns the location's coordinates.
func (l MonitoredLocation) Point() Point {
	return Point{Lat: l.Latitude, Lon: l.Longitude}
}

// Validate checks the location at the evaluation boundary.
func (l MonitoredLocation) Validate() error {
	switch {
	case math.IsNaN(l.RadiusKm) || math.IsInf(l.RadiusKm, 0) || l.RadiusKm <= 0:
		return fmt.Errorf("%w: radius %v km must be positive", ErrInvalidLocation, l.RadiusKm)
	case !finite(l.Latitude) || l.Latitude < -90 || l.Latitude > 90:
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidLocation, l.Latitude)
	case !finite(l.Longitude) || l.Longitude < -180 || l.Longitude > 180:
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidLocation, l.Longitude)
	}
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves free-text place names for the location-add flow.
type Geocoder interface {
	// ForwardGeocode converts a free-text place name to coordinates. An empty
	// FormattedAddress with a nil error means nothing matched.
	ForwardGeocode(ctx context.Context, query string) (GeocodingResult, error)
}
