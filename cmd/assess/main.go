// Command assess evaluates a threats JSON file against a watchlist offline and
// prints a per-location risk report. Records that fail ingestion checks are
// listed and make the command exit non-zero.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -threats data/seed/threats.json \
//	  -watchlist data/watchlist.example.yaml
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/couchcryptid/threatmap-service/internal/config"
	"github.com/couchcryptid/threatmap-service/internal/domain"
)

func main() {
	threatsPath := flag.String("threats", "", "path to a JSON array of threat records")
	watchlistPath := flag.String("watchlist", "", "path to a watchlist YAML file")
	radius := flag.Float64("radius", 200, "default radius in km for locations without one")
	flag.Parse()

	if *threatsPath == "" || *watchlistPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *threatsPath, *watchlistPath, *radius))
}

func run(w io.Writer, threatsPath, watchlistPath string, defaultRadiusKm float64) int {
	wl, err := config.LoadWatchlist(watchlistPath, defaultRadiusKm)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	threats, rejected, err := loadThreats(threatsPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: %v\n", err)
		return 1
	}

	visible := domain.FilterThreats(threats, wl.Settings.Filter(domain.DefaultSensors(time.Now())))

	fmt.Fprintln(w, "=== Threat Assessment ===")
	fmt.Fprintf(w, "Threats: %d loaded, %d visible after settings, %d rejected\n\n",
		len(threats), len(visible), len(rejected))

	for _, loc := range wl.Locations {
		a, err := domain.Evaluate(loc, visible)
		if err != nil {
			fmt.Fprintf(w, "  %-20s ERROR %v\n", loc.Name, err)
			continue
		}
		fmt.Fprintf(w, "  %-20s %3d  %-8s  nearby=%d\n", loc.Name, a.Score, a.Label, len(a.Nearby))
		fmt.Fprintf(w, "    %s\n", formatStatus(a.CategoryStatus))
	}

	if len(rejected) > 0 {
		fmt.Fprintf(w, "\n--- rejected records ---\n")
		for i, r := range rejected {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, r)
		}
		return 1
	}
	return 0
}

// loadThreats decodes each element with the same checks the ingestion
// pipeline applies, collecting the rejected ones.
func loadThreats(path string) ([]domain.ThreatRecord, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var (
		threats  []domain.ThreatRecord
		rejected []string
	)
	for i, raw := range raws {
		rec, err := domain.ParseThreatRecord(domain.RawEvent{Value: raw})
		if err != nil {
			rejected = append(rejected, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		threats = append(threats, rec)
	}
	return threats, rejected, nil
}

func formatStatus(cs domain.CategoryStatus) string {
	parts := make([]string, 0, len(cs))
	for _, c := range domain.TrackedCategories() {
		parts = append(parts, fmt.Sprintf("%s=%s", c, cs[c]))
	}
	return strings.Join(parts, " ")
}
