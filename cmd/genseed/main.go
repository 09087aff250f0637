// Command genseed writes the built-in seed threats as a JSON fixture. With
// -usgs it also normalizes a saved USGS GeoJSON feed and appends its threats.
// A fixed clock keeps the output reproducible.
//
// Usage:
//
//	go run ./cmd/genseed -out data/seed/threats.json
//	go run ./cmd/genseed -out /tmp/threats.json -usgs 4.5_day.geojson
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/threatmap-service/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the threats JSON fixture")
	at := flag.String("at", "2026-03-14T12:00:00Z", "reference time (RFC 3339) seed timestamps are relative to")
	usgsFile := flag.String("usgs", "", "optional saved USGS GeoJSON feed to normalize and append")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	now, err := time.Parse(time.RFC3339, *at)
	if err != nil {
		return fmt.Errorf("parse -at: %w", err)
	}

	domain.SetClock(clockwork.NewFakeClockAt(now))
	defer domain.SetClock(nil)

	threats := domain.SeedThreats(now)
	if *usgsFile != "" {
		quakes, err := readQuakes(*usgsFile)
		if err != nil {
			return err
		}
		threats = append(threats, quakes...)
	}

	if err := writeJSON(*out, threats); err != nil {
		return err
	}
	fmt.Printf("Wrote %d threats to %s\n", len(threats), *out)
	return nil
}

func readQuakes(path string) ([]domain.ThreatRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var coll domain.QuakeCollection
	if err := json.Unmarshal(data, &coll); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return domain.NormalizeQuakes(coll), nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // fixture output
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
