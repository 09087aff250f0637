package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

// Watchlist is the initial set of monitored locations and display settings
// loaded at startup.
type Watchlist struct {
	Locations []domain.MonitoredLocation
	Settings  domain.Settings
}

type watchlistFile struct {
	Locations []locationEntry `koanf:"locations"`
	Settings  settingsEntry   `koanf:"settings"`
}

type locationEntry struct {
	ID        string  `koanf:"id"`
	Name      string  `koanf:"name"`
	Latitude  float64 `koanf:"latitude"`
	Longitude float64 `koanf:"longitude"`
	RadiusKm  float64 `koanf:"radius_km"`
}

type settingsEntry struct {
	DisabledThreatTypes []string `koanf:"disabled_threat_types"`
	DisabledSensors     []string `koanf:"disabled_sensors"`
}

// LoadWatchlist reads a YAML watchlist. Locations without a radius get
// defaultRadiusKm; every location must have an ID and be valid.
func LoadWatchlist(path string, defaultRadiusKm float64) (Watchlist, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return Watchlist{}, fmt.Errorf("load watchlist %s: %w", path, err)
	}

	var wf watchlistFile
	if err := k.UnmarshalWithConf("", &wf, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Watchlist{}, fmt.Errorf("decode watchlist %s: %w", path, err)
	}

	wl := Watchlist{Locations: make([]domain.MonitoredLocation, 0, len(wf.Locations))}
	seen := make(map[string]struct{}, len(wf.Locations))
	for i, e := range wf.Locations {
		if e.ID == "" {
			return Watchlist{}, fmt.Errorf("watchlist location %d: id is required", i)
		}
		if _, dup := seen[e.ID]; dup {
			return Watchlist{}, fmt.Errorf("watchlist location %q: duplicate id", e.ID)
		}
		seen[e.ID] = struct{}{}

		loc := domain.MonitoredLocation{
			ID:        e.ID,
			Name:      e.Name,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
			RadiusKm:  e.RadiusKm,
		}
		if loc.Name == "" {
			loc.Name = loc.ID
		}
		if loc.RadiusKm == 0 {
			loc.RadiusKm = defaultRadiusKm
		}
		if err := loc.Validate(); err != nil {
			return Watchlist{}, fmt.Errorf("watchlist location %q: %w", e.ID, err)
		}
		wl.Locations = append(wl.Locations, loc)
	}

	for _, t := range wf.Settings.DisabledThreatTypes {
		wl.Settings.DisabledThreatTypes = append(wl.Settings.DisabledThreatTypes, domain.ThreatType(strings.ToUpper(t)))
	}
	wl.Settings.DisabledSensors = wf.Settings.DisabledSensors

	return wl, nil
}
