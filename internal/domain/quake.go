package domain

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// QuakeSource is the source label stamped on threats from the USGS feed.
const QuakeSource = "USGS Real-time"

// Quake is one feature of the USGS earthquake GeoJSON summary feed.
type Quake struct {
	ID         string `json:"id"`
	Properties struct {
		Mag    *float64 `json:"mag"`
		Place  string   `json:"place"`
		Time   *int64   `json:"time"`
		Status string   `json:"status"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // lon, lat, depth
	} `json:"geometry"`
}

// QuakeCollection is the top-level USGS GeoJSON document.
type QuakeCollection struct {
	Features []Quake `json:"features"`
}

// SeverityForMagnitude buckets a magnitude into a severity.
func SeverityForMagnitude(mag float64) Severity {
	switch {
	case mag >= 7:
		return SeverityCritical
	case mag >= 6:
		return SeverityHigh
	case mag >= 5:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// ImpactRadiusKm is the rough display radius of a quake, never below 25 km.
func ImpactRadiusKm(mag float64) float64 {
	return math.Max(25, mag*20)
}

// NormalizeQuake converts a USGS feature into a threat record. Missing fields
// fall back to neutral values: a random ID, magnitude 0, the current time.
func NormalizeQuake(q Quake) ThreatRecord {
	mag := 0.0
	if q.Properties.Mag != nil {
		mag = *q.Properties.Mag
	}
	place := q.Properties.Place
	if place == "" {
		place = "Unknown location"
	}
	status := q.Properties.Status
	if status == "" {
		status = "unknown"
	}

	coords := q.Geometry.Coordinates
	coord := func(i int) float64 {
		if i < len(coords) {
			return coords[i]
		}
		return 0
	}

	id := q.ID
	if id == "" {
		id = uuid.NewString()
	}
	ts := clock.Now().UnixMilli()
	if q.Properties.Time != nil {
		ts = *q.Properties.Time
	}

	return ThreatRecord{
		ID:          id,
		Type:        ThreatEarthquake,
		Severity:    SeverityForMagnitude(mag),
		Title:       fmt.Sprintf("M %.1f Earthquake - %s", mag, place),
		Description: fmt.Sprintf("Depth: %gkm. Status: %s.", coord(2), status),
		Latitude:    coord(1),
		Longitude:   coord(0),
		Timestamp:   ts,
		Source:      QuakeSource,
		RadiusKm:    ImpactRadiusKm(mag),
	}
}

// NormalizeQuakes converts every feature of a collection, keeping feed order.
func NormalizeQuakes(c QuakeCollection) []ThreatRecord {
	out := make([]ThreatRecord, 0, len(c.Features))
	for _, q := range c.Features {
		out = append(out, NormalizeQuake(q))
	}
	return out
}
