package domain

import "math"

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points using the
// haversine formula. Non-finite inputs propagate as non-finite results.
func DistanceKm(a, b Point) float64 {
	dLat := degToRad(b.Lat - a.Lat)
	dLon := degToRad(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(degToRad(a.Lat))*math.Cos(degToRad(b.Lat))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

func degToRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// Nearby returns the threats whose distance from the location is at most its
// radius, keeping input order. The boundary is inclusive and the input slice
// is never modified.
func Nearby(loc MonitoredLocation, threats []ThreatRecord) []ThreatRecord {
	center := loc.Point()
	out := make([]ThreatRecord, 0, len(threats))
	for _, t := range threats {
		if DistanceKm(center, t.Point()) <= loc.RadiusKm {
			out = append(out, t)
		}
	}
	return out
}
