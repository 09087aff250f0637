// Package monitor owns the watchlist of monitored locations and the settings
// pre-filter, and re-evaluates every location whenever its inputs change.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

var (
	// ErrUnresolved is returned when the geocoder finds no match for a query.
	ErrUnresolved = errors.New("location could not be resolved")

	// ErrGeocoderUnavailable is returned for free-text adds when no geocoder is configured.
	ErrGeocoderUnavailable = errors.New("geocoding is not configured")
)

// ThreatSource supplies the current global threat list and sensor catalog.
// It is satisfied by *feed.Store.
type ThreatSource interface {
	Snapshot() []domain.ThreatRecord
	Sensors() []domain.Sensor
}

// AssessmentSink receives one event per location after each re-evaluation.
type AssessmentSink interface {
	PublishAssessments(ctx context.Context, events []domain.AssessmentEvent) error
}

// Alerter is notified when a location escalates into HIGH or CRITICAL.
type Alerter interface {
	PublishAlert(ctx context.Context, event domain.AssessmentEvent) error
}

// Deps are the registry's collaborators. Only Threats is required.
type Deps struct {
	Threats  ThreatSource
	Geocoder domain.Geocoder
	Narrator domain.Narrator
	Sink     AssessmentSink
	Alerter  Alerter
}

// Options tune location admission.
type Options struct {
	DefaultRadiusKm float64
	GuestLimit      int
}

// Registry is the concurrency-safe watchlist.
type Registry struct {
	deps Deps
	opts Options

	mu        sync.RWMutex
	locations []domain.MonitoredLocation
	settings  domain.Settings

	// evalMu serializes re-evaluations so previous labels advance in order.
	evalMu     sync.Mutex
	lastLabels map[string]domain.RiskLabel

	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an empty registry.
func New(deps Deps, opts Options, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		deps:       deps,
		opts:       opts,
		lastLabels: make(map[string]domain.RiskLabel),
		clock:      clock,
		logger:     logger,
		metrics:    metrics,
	}
}

// Seed installs an initial watchlist and settings, replacing any existing ones.
// Every location must be valid and IDs must be unique.
func (r *Registry) Seed(locations []domain.MonitoredLocation, settings domain.Settings) error {
	seen := make(map[string]bool, len(locations))
	for _, loc := range locations {
		if err := loc.Validate(); err != nil {
			return fmt.Errorf("location %q: %w", loc.ID, err)
		}
		if seen[loc.ID] {
			return fmt.Errorf("duplicate location id %q", loc.ID)
		}
		seen[loc.ID] = true
	}

	r.mu.Lock()
	r.locations = append([]domain.MonitoredLocation(nil), locations...)
	r.settings = settings
	r.mu.Unlock()
	return nil
}

// Locations returns a copy of the watchlist in insertion order.
func (r *Registry) Locations() []domain.MonitoredLocation {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.MonitoredLocation(nil), r.locations...)
}

// Location looks up one monitored location.
func (r *Registry) Location(id string) (domain.MonitoredLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, loc := range r.locations {
		if loc.ID == id {
			return loc, nil
		}
	}
	return domain.MonitoredLocation{}, fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
}

// AddLocation resolves free text through the geocoder and adds the match.
// A radius of zero means the default radius.
func (r *Registry) AddLocation(ctx context.Context, query string, radiusKm float64, role domain.Role) (domain.MonitoredLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.MonitoredLocation{}, fmt.Errorf("%w: empty query", domain.ErrInvalidLocation)
	}
	// Check the quota before spending a geocoding call.
	if err := r.checkQuota(role); err != nil {
		return domain.MonitoredLocation{}, err
	}
	if r.deps.Geocoder == nil {
		return domain.MonitoredLocation{}, ErrGeocoderUnavailable
	}

	res, err := r.deps.Geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		return domain.MonitoredLocation{}, fmt.Errorf("resolve %q: %w", query, err)
	}
	if res.FormattedAddress == "" {
		return domain.MonitoredLocation{}, fmt.Errorf("%w: %q", ErrUnresolved, query)
	}

	name := res.PlaceName
	if name == "" {
		name = res.FormattedAddress
	}
	return r.AddResolved(ctx, domain.MonitoredLocation{
		Name:      name,
		Latitude:  res.Lat,
		Longitude: res.Lon,
		RadiusKm:  radiusKm,
	}, role)
}

// AddResolved adds a location whose coordinates are already known. An empty ID
// is replaced by a random UUID and a zero radius by the default radius.
func (r *Registry) AddResolved(ctx context.Context, loc domain.MonitoredLocation, role domain.Role) (domain.MonitoredLocation, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.RadiusKm == 0 {
		loc.RadiusKm = r.opts.DefaultRadiusKm
	}
	if loc.Name == "" {
		loc.Name = fmt.Sprintf("%.4f, %.4f", loc.Latitude, loc.Longitude)
	}
	if err := loc.Validate(); err != nil {
		return domain.MonitoredLocation{}, err
	}

	r.mu.Lock()
	if err := r.checkQuotaLocked(role); err != nil {
		r.mu.Unlock()
		return domain.MonitoredLocation{}, err
	}
	for _, existing := range r.locations {
		if existing.ID == loc.ID {
			r.mu.Unlock()
			return domain.MonitoredLocation{}, fmt.Errorf("duplicate location id %q", loc.ID)
		}
	}
	r.locations = append(r.locations, loc)
	r.mu.Unlock()

	r.logger.Info("location added", "location_id", loc.ID, "name", loc.Name, "radius_km", loc.RadiusKm)
	r.Refresh(ctx)
	return loc, nil
}

func (r *Registry) checkQuota(role domain.Role) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.checkQuotaLocked(role)
}

func (r *Registry) checkQuotaLocked(role domain.Role) error {
	if role == domain.RoleGuest && r.opts.GuestLimit > 0 && len(r.locations) >= r.opts.GuestLimit {
		return fmt.Errorf("%w: guests may monitor at most %d locations", domain.ErrLocationLimit, r.opts.GuestLimit)
	}
	return nil
}

// RemoveLocation deletes a location. Threat records are unaffected.
func (r *Registry) RemoveLocation(ctx context.Context, id string) error {
	r.mu.Lock()
	idx := -1
	for i, loc := range r.locations {
		if loc.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		r.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrLocationNotFound, id)
	}
	r.locations = append(r.locations[:idx:idx], r.locations[idx+1:]...)
	r.mu.Unlock()

	r.evalMu.Lock()
	delete(r.lastLabels, id)
	r.evalMu.Unlock()
	r.metrics.LocationRiskScore.DeleteLabelValues(id)

	r.logger.Info("location removed", "location_id", id)
	r.Refresh(ctx)
	return nil
}

// Settings returns the current pre-filter settings.
func (r *Registry) Settings() domain.Settings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.settings
}

// SetSettings replaces the settings and re-evaluates every location.
func (r *Registry) SetSettings(ctx context.Context, s domain.Settings) {
	r.mu.Lock()
	r.settings = s
	r.mu.Unlock()

	r.logger.Info("settings updated",
		"disabled_threat_types", len(s.DisabledThreatTypes), "disabled_sensors", len(s.DisabledSensors))
	r.Refresh(ctx)
}

// VisibleThreats returns the global threat list after the settings filter.
func (r *Registry) VisibleThreats() []domain.ThreatRecord {
	keep := r.Settings().Filter(r.deps.Threats.Sensors())
	return domain.FilterThreats(r.deps.Threats.Snapshot(), keep)
}

// Sensors returns the sensor catalog with current statuses.
func (r *Registry) Sensors() []domain.Sensor {
	return r.deps.Threats.Sensors()
}

// Assess evaluates one location against the visible threats.
func (r *Registry) Assess(id string) (domain.Assessment, error) {
	loc, err := r.Location(id)
	if err != nil {
		return domain.Assessment{}, err
	}
	return domain.Evaluate(loc, r.VisibleThreats())
}

// Refresh re-evaluates all locations, logging instead of returning failures.
// It is the change hook for the feed store, the watchlist and settings.
func (r *Registry) Refresh(ctx context.Context) {
	if err := r.ReevaluateAll(ctx); err != nil {
		r.logger.Warn("re-evaluation incomplete", "error", err)
	}
}

// ReevaluateAll scores every location, publishes one assessment event per
// location to the sink and alerts on escalations. A location's first
// evaluation sets its baseline and never alerts.
func (r *Registry) ReevaluateAll(ctx context.Context) error {
	r.evalMu.Lock()
	defer r.evalMu.Unlock()

	threats := r.VisibleThreats()
	locations := r.Locations()
	now := r.clock.Now()

	events := make([]domain.AssessmentEvent, 0, len(locations))
	var errs []error
	for _, loc := range locations {
		start := time.Now()
		a, err := domain.Evaluate(loc, threats)
		r.metrics.EvaluationDuration.Observe(time.Since(start).Seconds())
		if err != nil {
			errs = append(errs, fmt.Errorf("evaluate %s: %w", loc.ID, err))
			continue
		}
		r.metrics.Evaluations.Inc()
		r.metrics.LocationRiskScore.WithLabelValues(loc.ID).Set(float64(a.Score))

		previous, seen := r.lastLabels[loc.ID]
		r.lastLabels[loc.ID] = a.Label
		event := domain.NewAssessmentEvent(a, previous, now)
		events = append(events, event)

		if seen && event.Escalated() {
			errs = append(errs, r.alert(ctx, event))
		}
	}

	if r.deps.Sink != nil && len(events) > 0 {
		if err := r.deps.Sink.PublishAssessments(ctx, events); err != nil {
			r.metrics.AssessmentsPublished.WithLabelValues("error").Add(float64(len(events)))
			errs = append(errs, fmt.Errorf("publish assessments: %w", err))
		} else {
			r.metrics.AssessmentsPublished.WithLabelValues("success").Add(float64(len(events)))
		}
	}

	r.logger.Debug("locations re-evaluated", "locations", len(locations), "threats", len(threats))
	return errors.Join(errs...)
}

func (r *Registry) alert(ctx context.Context, event domain.AssessmentEvent) error {
	r.logger.Info("location risk escalated",
		"location_id", event.LocationID, "label", event.Label, "previous_label", event.PreviousLabel, "score", event.Score)
	if r.deps.Alerter == nil {
		return nil
	}
	if err := r.deps.Alerter.PublishAlert(ctx, event); err != nil {
		r.metrics.AlertsPublished.WithLabelValues(string(event.Label), "error").Inc()
		return fmt.Errorf("alert %s: %w", event.LocationID, err)
	}
	r.metrics.AlertsPublished.WithLabelValues(string(event.Label), "success").Inc()
	return nil
}
