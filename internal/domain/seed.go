package domain

import "time"

// SeedThreats returns the built-in baseline threats with timestamps relative
// to now, so the dashboard has data before any feed has been read.
func SeedThreats(now time.Time) []ThreatRecord {
	ago := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	return []ThreatRecord{
		{
			ID:          "t1",
			Type:        ThreatEarthquake,
			Severity:    SeverityHigh,
			Title:       "M 6.2 Earthquake - Japan Region",
			Description: "Strong seismic activity detected off the coast of Honshu.",
			Latitude:    36.2048,
			Longitude:   138.2529,
			Timestamp:   ago(30 * time.Minute),
			Source:      QuakeSource,
			RadiusKm:    150,
		},
		{
			ID:          "t2",
			Type:        ThreatWildfire,
			Severity:    SeverityCritical,
			Title:       "Canyon Fire - California",
			Description: "Rapidly spreading wildfire in dry brush. Evacuation orders in effect.",
			Latitude:    34.0522,
			Longitude:   -118.2437,
			Timestamp:   ago(2 * time.Hour),
			Source:      "NASA FIRMS",
			RadiusKm:    50,
		},
		{
			ID:          "t3",
			Type:        ThreatStorm,
			Severity:    SeverityMedium,
			Title:       "Tropical Storm Alpha",
			Description: "Developing system in the Atlantic. Heavy rains expected.",
			Latitude:    25.7617,
			Longitude:   -80.1918,
			Timestamp:   ago(5 * time.Hour),
			Source:      "NOAA Hurricane Center",
			RadiusKm:    300,
		},
		{
			ID:          "t4",
			Type:        ThreatDiseaseOutbreak,
			Severity:    SeverityLow,
			Title:       "Viral Outbreak Watch",
			Description: "Increased reports of respiratory illness in the region.",
			Latitude:    48.8566,
			Longitude:   2.3522,
			Timestamp:   ago(24 * time.Hour),
			Source:      "WHO Disease Outbreak News",
			RadiusKm:    500,
		},
		{
			ID:          "t5",
			Type:        ThreatProtest,
			Severity:    SeverityMedium,
			Title:       "Protests - Central Square",
			Description: "Large gathering expected in downtown area. Traffic disruptions.",
			Latitude:    51.5074,
			Longitude:   -0.1278,
			Timestamp:   ago(time.Hour),
			Source:      "GDELT Project",
			RadiusKm:    10,
		},
	}
}
