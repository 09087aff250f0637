// Package feed holds the current global threat snapshot and keeps it fresh
// from the upstream feeds.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

// Origins tag which producer contributed a record, so a full refresh from one
// producer never drops records another one owns.
const (
	OriginSeed  = "seed"
	OriginKafka = "kafka"
	OriginUSGS  = "usgs"
)

// Record is a tracked threat together with the producer that last delivered it.
type Record struct {
	Threat domain.ThreatRecord `json:"threat"`
	Origin string              `json:"origin"`
}

// Mirror persists snapshots outside the process so a restart starts warm.
// Records carry their origin so ownership survives a restart.
type Mirror interface {
	SaveSnapshot(ctx context.Context, records []Record) error
	LoadSnapshot(ctx context.Context) ([]Record, error)
}

// ChangeFunc is called after the snapshot changes, outside the store lock.
type ChangeFunc func(ctx context.Context)

// Store is a concurrency-safe in-memory threat snapshot keyed by threat ID.
// Upserts keep first-seen order so evaluation input order is stable.
//
// With a positive retention, records whose event time is older than
// retention are dropped on every write and by RunRetention. Seed records
// never expire.
type Store struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]Record
	sensors []domain.Sensor
	unsaved bool

	saveMu    sync.Mutex
	listeners []ChangeFunc
	mirror    Mirror
	retention time.Duration
	clock     clockwork.Clock
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewStore creates an empty store. Pass a nil mirror to keep the snapshot
// in memory only and a zero retention to keep records forever.
func NewStore(mirror Mirror, retention time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		entries:   make(map[string]Record),
		sensors:   domain.DefaultSensors(clock.Now()),
		mirror:    mirror,
		retention: retention,
		clock:     clock,
		logger:    logger,
		metrics:   metrics,
	}
}

// OnChange registers a listener for snapshot changes.
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current threats in first-seen order.
func (s *Store) Snapshot() []domain.ThreatRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ThreatRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].Threat)
	}
	return out
}

// Records returns the current records with their origins.
func (s *Store) Records() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id])
	}
	return out
}

// Len returns the number of threats held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

// Get returns the threat with the given ID.
func (s *Store) Get(id string) (domain.ThreatRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.entries[id]
	return r.Threat, ok
}

// Upsert inserts or replaces threats by ID. It reports whether anything changed.
func (s *Store) Upsert(ctx context.Context, origin string, threats []domain.ThreatRecord) bool {
	changed, err := s.apply(ctx, func(cutoff int64) bool {
		return s.upsertLocked(origin, threats, cutoff)
	})
	if err != nil {
		s.logger.Warn("snapshot mirror save failed", "error", err)
	}
	return changed
}

// ReplaceOrigin makes threats the complete set owned by origin: records the
// origin previously contributed that are absent from threats are removed.
func (s *Store) ReplaceOrigin(ctx context.Context, origin string, threats []domain.ThreatRecord) bool {
	keep := make(map[string]struct{}, len(threats))
	for _, t := range threats {
		keep[t.ID] = struct{}{}
	}

	changed, err := s.apply(ctx, func(cutoff int64) bool {
		removed := s.removeLocked(func(r Record) bool {
			_, ok := keep[r.Threat.ID]
			return !ok && r.Origin == origin
		})
		return s.upsertLocked(origin, threats, cutoff) || removed > 0
	})
	if err != nil {
		s.logger.Warn("snapshot mirror save failed", "error", err)
	}
	return changed
}

// LoadBatch upserts a batch of threats consumed from the ingestion topic.
// It fails when the snapshot could not be mirrored, so the caller can hold
// back offset commits until the batch is durable. A retry re-attempts the
// pending mirror write even if the batch itself is unchanged.
func (s *Store) LoadBatch(ctx context.Context, threats []domain.ThreatRecord) error {
	_, err := s.apply(ctx, func(cutoff int64) bool {
		return s.upsertLocked(OriginKafka, threats, cutoff)
	})
	if err != nil {
		return fmt.Errorf("load batch: %w", err)
	}
	return nil
}

// Prune drops records older than the retention window and reports whether
// any were removed.
func (s *Store) Prune(ctx context.Context) bool {
	changed, err := s.apply(ctx, func(int64) bool { return false })
	if err != nil {
		s.logger.Warn("snapshot mirror save failed", "error", err)
	}
	return changed
}

// RunRetention prunes on every tick until ctx is cancelled. It returns
// immediately when retention is disabled.
func (s *Store) RunRetention(ctx context.Context, every time.Duration) error {
	if s.retention <= 0 {
		return nil
	}
	ticker := s.clock.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			s.Prune(ctx)
		}
	}
}

// apply runs fn under the write lock after a retention sweep, then mirrors
// the snapshot and notifies listeners if anything changed. A previously
// failed mirror write is retried even when nothing changed.
func (s *Store) apply(ctx context.Context, fn func(cutoff int64) bool) (bool, error) {
	s.mu.Lock()
	cutoff := s.cutoff()
	expired := s.removeLocked(func(r Record) bool { return isExpired(r, cutoff) })
	changed := fn(cutoff) || expired > 0
	retry := s.unsaved
	s.mu.Unlock()

	if expired > 0 {
		s.metrics.ThreatsExpired.Add(float64(expired))
		s.logger.Info("expired threats dropped", "threats", expired, "retention", s.retention)
	}
	if !changed && !retry {
		return false, nil
	}

	err := s.persist(ctx)
	if changed {
		s.notify(ctx)
	}
	return changed, err
}

// upsertLocked stores threats under origin. Arrivals already outside the
// retention window are discarded. A record re-delivered by another producer
// changes owner.
func (s *Store) upsertLocked(origin string, threats []domain.ThreatRecord, cutoff int64) bool {
	changed := false
	for _, t := range threats {
		rec := Record{Threat: t, Origin: origin}
		if isExpired(rec, cutoff) {
			s.metrics.ThreatsExpired.Inc()
			continue
		}
		prev, exists := s.entries[t.ID]
		if exists && prev == rec {
			continue
		}
		if !exists {
			s.order = append(s.order, t.ID)
		}
		s.entries[t.ID] = rec
		changed = true
	}
	return changed
}

func (s *Store) removeLocked(drop func(Record) bool) int {
	removed := 0
	order := s.order[:0:0]
	for _, id := range s.order {
		if drop(s.entries[id]) {
			delete(s.entries, id)
			removed++
			continue
		}
		order = append(order, id)
	}
	s.order = order
	return removed
}

// cutoff is the oldest event time kept, in epoch milliseconds.
func (s *Store) cutoff() int64 {
	if s.retention <= 0 {
		return math.MinInt64
	}
	return s.clock.Now().Add(-s.retention).UnixMilli()
}

func isExpired(r Record, cutoff int64) bool {
	return r.Origin != OriginSeed && r.Threat.Timestamp < cutoff
}

// persist writes the current snapshot to the mirror. Writes are serialized
// and each one reads the snapshot under saveMu, so the last write always
// carries the latest state.
func (s *Store) persist(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	records := s.Records()
	s.metrics.ThreatsTracked.Set(float64(len(records)))
	if s.mirror == nil {
		return nil
	}

	err := s.mirror.SaveSnapshot(ctx, records)
	s.mu.Lock()
	s.unsaved = err != nil
	s.mu.Unlock()
	if err != nil {
		s.metrics.MirrorErrors.Inc()
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) notify(ctx context.Context) {
	s.mu.RLock()
	listeners := slices.Clone(s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx)
	}
}

// Restore loads the last mirrored snapshot, if any, keeping each record's
// origin. Records saved without one are treated as Kafka-owned. Expired
// records are skipped.
func (s *Store) Restore(ctx context.Context) (int, error) {
	if s.mirror == nil {
		return 0, nil
	}
	records, err := s.mirror.LoadSnapshot(ctx)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	cutoff := s.cutoff()
	changed := false
	for _, r := range records {
		origin := r.Origin
		if origin == "" {
			origin = OriginKafka
		}
		if s.upsertLocked(origin, []domain.ThreatRecord{r.Threat}, cutoff) {
			changed = true
		}
	}
	n := len(s.order)
	s.mu.Unlock()

	s.metrics.ThreatsTracked.Set(float64(n))
	if changed {
		s.logger.Info("threat snapshot restored", "threats", len(records), "kept", n)
	}
	return len(records), nil
}

// Sensors returns a copy of the sensor catalog with current statuses.
func (s *Store) Sensors() []domain.Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.sensors)
}

// SetSensorStatus records the outcome of the latest poll of a sensor.
func (s *Store) SetSensorStatus(id string, status domain.SensorStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.sensors {
		if s.sensors[i].ID == id {
			s.sensors[i].Status = status
			if status == domain.SensorOnline {
				s.sensors[i].LastUpdate = s.clock.Now()
			}
			return
		}
	}
}
