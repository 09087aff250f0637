package domain

import (
	"slices"
	"time"
)

// Settings holds the caller's display preferences. They are applied as a
// pre-filter before evaluation; the engine itself has no notion of "disabled".
type Settings struct {
	DisabledThreatTypes []ThreatType `json:"disabledThreatTypes"`
	DisabledSensors     []string     `json:"disabledSensors"`
}

// ThreatFilter reports whether a threat should be kept.
type ThreatFilter func(ThreatRecord) bool

// KeepAll is the filter used when no settings apply.
func KeepAll(ThreatRecord) bool { return true }

// Filter builds the pre-filter predicate for these settings. A disabled sensor
// hides every threat whose source is one of that sensor's source labels.
func (s Settings) Filter(sensors []Sensor) ThreatFilter {
	if len(s.DisabledThreatTypes) == 0 && len(s.DisabledSensors) == 0 {
		return KeepAll
	}

	types := make(map[ThreatType]struct{}, len(s.DisabledThreatTypes))
	for _, t := range s.DisabledThreatTypes {
		types[t] = struct{}{}
	}

	sources := make(map[string]struct{})
	for _, sensor := range sensors {
		if !slices.Contains(s.DisabledSensors, sensor.ID) {
			continue
		}
		for _, src := range sensor.Sources {
			sources[src] = struct{}{}
		}
	}

	return func(t ThreatRecord) bool {
		if _, off := types[t.Type]; off {
			return false
		}
		if _, off := sources[t.Source]; off {
			return false
		}
		return true
	}
}

// FilterThreats returns the threats accepted by keep, preserving order.
func FilterThreats(threats []ThreatRecord, keep ThreatFilter) []ThreatRecord {
	out := make([]ThreatRecord, 0, len(threats))
	for _, t := range threats {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// SensorStatus is the health of an upstream data source.
type SensorStatus string

const (
	SensorOnline   SensorStatus = "ONLINE"
	SensorDegraded SensorStatus = "DEGRADED"
	SensorOffline  SensorStatus = "OFFLINE"
)

// Sensor describes an upstream data source and the threat types it provides.
type Sensor struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Kind       string       `json:"type"`
	Provides   []ThreatType `json:"provides"`
	Sources    []string     `json:"sources"` // source labels stamped on its threats
	Status     SensorStatus `json:"status"`
	LastUpdate time.Time    `json:"lastUpdate"`
}

// USGSSensorID identifies the seismic feed polled by the service.
const USGSSensorID = "1"

// DefaultSensors returns the built-in sensor catalog with last-update times
// relative to now.
func DefaultSensors(now time.Time) []Sensor {
	return []Sensor{
		{
			ID: USGSSensorID, Name: "USGS Earthquake Feed", Kind: "Seismic API",
			Provides: []ThreatType{ThreatEarthquake, ThreatSeismic},
			Sources:  []string{"USGS Earthquake Feed", QuakeSource},
			Status:   SensorOnline, LastUpdate: now.Add(-5 * time.Minute),
		},
		{
			ID: "2", Name: "NASA FIRMS", Kind: "Satellite Thermal",
			Provides: []ThreatType{ThreatWildfire},
			Sources:  []string{"NASA FIRMS"},
			Status:   SensorOnline, LastUpdate: now.Add(-20 * time.Minute),
		},
		{
			ID: "3", Name: "NOAA Hurricane Center", Kind: "Meteorological",
			Provides: []ThreatType{ThreatStorm, ThreatFlood, ThreatExtremeWeather},
			Sources:  []string{"NOAA Hurricane Center"},
			Status:   SensorOnline, LastUpdate: now.Add(-10 * time.Minute),
		},
		{
			ID: "4", Name: "GDELT Project", Kind: "News Aggregator",
			Provides: []ThreatType{ThreatCivilUnrest, ThreatConflict, ThreatTerror, ThreatProtest},
			Sources:  []string{"GDELT Project"},
			Status:   SensorDegraded, LastUpdate: now.Add(-time.Hour),
		},
		{
			ID: "5", Name: "WHO Disease Outbreak News", Kind: "Health Report",
			Provides: []ThreatType{ThreatPandemic, ThreatDiseaseOutbreak},
			Sources:  []string{"WHO Disease Outbreak News"},
			Status:   SensorOnline, LastUpdate: now.Add(-24 * time.Hour),
		},
		{
			ID: "6", Name: "Local Gov Feeds", Kind: "Mixed",
			Provides: []ThreatType{ThreatOther, ThreatIndustrialAccident, ThreatTravelAlert},
			Sources:  []string{"Local Gov Feeds"},
			Status:   SensorOffline, LastUpdate: now.Add(-48 * time.Hour),
		},
	}
}
