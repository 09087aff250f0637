package feed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

var fixedTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockMirror struct {
	mu      sync.Mutex
	saved   [][]Record
	stored  []Record
	saveErr error
	loadErr error
}

func (m *mockMirror) SaveSnapshot(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, records)
	return m.saveErr
}

func (m *mockMirror) LoadSnapshot(_ context.Context) ([]Record, error) {
	return m.stored, m.loadErr
}

func (m *mockMirror) setSaveErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

func (m *mockMirror) saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func threat(id string, sev domain.Severity) domain.ThreatRecord {
	return domain.ThreatRecord{ID: id, Type: domain.ThreatStorm, Severity: sev, Latitude: 10, Longitude: 10}
}

func ids(threats []domain.ThreatRecord) []string {
	out := make([]string, 0, len(threats))
	for _, t := range threats {
		out = append(out, t.ID)
	}
	return out
}

func recordIDs(records []Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Threat.ID)
	}
	return out
}

func newTestStore(mirror Mirror) (*Store, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return NewStore(mirror, 0, clockwork.NewFakeClockAt(fixedTime), testLogger(), metrics), metrics
}

// aged returns a threat whose event time is age before fixedTime.
func aged(id string, age time.Duration) domain.ThreatRecord {
	th := threat(id, domain.SeverityCritical)
	th.Timestamp = fixedTime.Add(-age).UnixMilli()
	return th
}

func TestStore_UpsertKeepsFirstSeenOrder(t *testing.T) {
	s, metrics := newTestStore(nil)
	ctx := context.Background()

	assert.True(t, s.Upsert(ctx, OriginSeed, []domain.ThreatRecord{threat("a", domain.SeverityLow), threat("b", domain.SeverityLow)}))
	assert.True(t, s.Upsert(ctx, OriginKafka, []domain.ThreatRecord{threat("c", domain.SeverityLow), threat("a", domain.SeverityHigh)}))

	snap := s.Snapshot()
	assert.Equal(t, []string{"a", "b", "c"}, ids(snap))
	assert.Equal(t, domain.SeverityHigh, snap[0].Severity, "upsert replaces by id")
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ThreatsTracked))
}

func TestStore_UpsertUnchangedIsNoop(t *testing.T) {
	s, _ := newTestStore(nil)
	ctx := context.Background()

	var calls int
	s.OnChange(func(context.Context) { calls++ })

	require.True(t, s.Upsert(ctx, OriginSeed, []domain.ThreatRecord{threat("a", domain.SeverityLow)}))
	assert.False(t, s.Upsert(ctx, OriginSeed, []domain.ThreatRecord{threat("a", domain.SeverityLow)}))
	assert.Equal(t, 1, calls)
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s, _ := newTestStore(nil)
	s.Upsert(context.Background(), OriginSeed, []domain.ThreatRecord{threat("a", domain.SeverityLow)})

	snap := s.Snapshot()
	snap[0].Severity = domain.SeverityCritical

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, domain.SeverityLow, got.Severity)
}

func TestStore_ReplaceOrigin(t *testing.T) {
	s, _ := newTestStore(nil)
	ctx := context.Background()

	s.Upsert(ctx, OriginSeed, []domain.ThreatRecord{threat("seed", domain.SeverityLow)})
	s.ReplaceOrigin(ctx, OriginUSGS, []domain.ThreatRecord{threat("q1", domain.SeverityMedium), threat("q2", domain.SeverityHigh)})
	s.Upsert(ctx, OriginKafka, []domain.ThreatRecord{threat("k", domain.SeverityLow)})

	changed := s.ReplaceOrigin(ctx, OriginUSGS, []domain.ThreatRecord{threat("q2", domain.SeverityHigh), threat("q3", domain.SeverityLow)})

	assert.True(t, changed)
	assert.Equal(t, []string{"seed", "q2", "k", "q3"}, ids(s.Snapshot()))
	assert.Equal(t, 4, s.Len())
}

func TestStore_ReplaceOriginUnchanged(t *testing.T) {
	s, _ := newTestStore(nil)
	ctx := context.Background()
	quakes := []domain.ThreatRecord{threat("q1", domain.SeverityMedium)}

	require.True(t, s.ReplaceOrigin(ctx, OriginUSGS, quakes))
	assert.False(t, s.ReplaceOrigin(ctx, OriginUSGS, quakes))
}

func TestStore_LoadBatch(t *testing.T) {
	mirror := &mockMirror{}
	s, _ := newTestStore(mirror)

	var notified atomic.Int32
	s.OnChange(func(context.Context) { notified.Add(1) })

	err := s.LoadBatch(context.Background(), []domain.ThreatRecord{threat("a", domain.SeverityLow), threat("b", domain.SeverityHigh)})
	require.NoError(t, err)

	assert.Equal(t, int32(1), notified.Load())
	require.Len(t, mirror.saved, 1)
	assert.Equal(t, []string{"a", "b"}, recordIDs(mirror.saved[0]))
	assert.Equal(t, OriginKafka, mirror.saved[0][0].Origin)
}

func TestStore_LoadBatchReportsMirrorFailure(t *testing.T) {
	mirror := &mockMirror{saveErr: errors.New("redis down")}
	s, metrics := newTestStore(mirror)
	ctx := context.Background()

	var notified int
	s.OnChange(func(context.Context) { notified++ })
	batch := []domain.ThreatRecord{threat("a", domain.SeverityLow)}

	err := s.LoadBatch(ctx, batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis down")
	assert.Equal(t, 1, notified, "in-memory change is still visible")
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MirrorErrors))

	t.Run("redelivered batch retries the pending write", func(t *testing.T) {
		mirror.setSaveErr(nil)

		require.NoError(t, s.LoadBatch(ctx, batch))
		assert.Equal(t, 2, mirror.saves())
		assert.Equal(t, 1, notified, "unchanged batch does not re-notify")

		require.NoError(t, s.LoadBatch(ctx, batch))
		assert.Equal(t, 2, mirror.saves(), "nothing pending, nothing written")
	})
}

func TestStore_UpsertLogsMirrorFailure(t *testing.T) {
	s, _ := newTestStore(&mockMirror{saveErr: errors.New("redis down")})

	assert.True(t, s.Upsert(context.Background(), OriginSeed, []domain.ThreatRecord{threat("a", domain.SeverityLow)}))
	assert.Equal(t, 1, s.Len())
}

func TestStore_Restore(t *testing.T) {
	t.Run("loads mirrored snapshot", func(t *testing.T) {
		mirror := &mockMirror{stored: []Record{
			{Threat: threat("x", domain.SeverityLow), Origin: OriginKafka},
			{Threat: threat("y", domain.SeverityMedium), Origin: OriginUSGS},
		}}
		s, metrics := newTestStore(mirror)

		n, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, []string{"x", "y"}, ids(s.Snapshot()))
		assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ThreatsTracked))
		assert.Empty(t, mirror.saved, "restore does not write back")
	})

	t.Run("no mirror", func(t *testing.T) {
		s, _ := newTestStore(nil)
		n, err := s.Restore(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("mirror error", func(t *testing.T) {
		s, _ := newTestStore(&mockMirror{loadErr: errors.New("boom")})
		_, err := s.Restore(context.Background())
		assert.Error(t, err)
	})
}

func TestStore_RestoredQuakeLeavesWithTheFeed(t *testing.T) {
	ctx := context.Background()
	old := threat("us7000old", domain.SeverityCritical)

	t.Run("origin kept in the mirror", func(t *testing.T) {
		s, _ := newTestStore(&mockMirror{stored: []Record{{Threat: old, Origin: OriginUSGS}}})
		_, err := s.Restore(ctx)
		require.NoError(t, err)

		assert.False(t, s.ReplaceOrigin(ctx, OriginUSGS, []domain.ThreatRecord{old}))
		assert.True(t, s.ReplaceOrigin(ctx, OriginUSGS, nil))
		assert.Empty(t, s.Snapshot())
	})

	t.Run("record saved without origin is claimed on redelivery", func(t *testing.T) {
		s, _ := newTestStore(&mockMirror{stored: []Record{{Threat: old}}})
		_, err := s.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, OriginKafka, s.Records()[0].Origin)

		assert.True(t, s.ReplaceOrigin(ctx, OriginUSGS, []domain.ThreatRecord{old}))
		assert.Equal(t, OriginUSGS, s.Records()[0].Origin)

		assert.True(t, s.ReplaceOrigin(ctx, OriginUSGS, nil))
		assert.Empty(t, s.Snapshot())
	})

	t.Run("poller drives the same lifecycle", func(t *testing.T) {
		s, metrics := newTestStore(&mockMirror{stored: []Record{{Threat: old}}})
		_, err := s.Restore(ctx)
		require.NoError(t, err)

		fetcher := &mockFetcher{}
		p := NewPoller(fetcher, s, time.Minute, clockwork.NewFakeClockAt(fixedTime), testLogger(), metrics)

		fetcher.set([]domain.ThreatRecord{old}, nil)
		require.True(t, p.PollOnce(ctx))
		fetcher.set([]domain.ThreatRecord{threat("us7000new", domain.SeverityLow)}, nil)
		require.True(t, p.PollOnce(ctx))

		assert.Equal(t, []string{"us7000new"}, ids(s.Snapshot()))
	})
}

func TestStore_Retention(t *testing.T) {
	ctx := context.Background()
	clock := clockwork.NewFakeClockAt(fixedTime)
	metrics := observability.NewMetricsForTesting()
	mirror := &mockMirror{}
	s := NewStore(mirror, 24*time.Hour, clock, testLogger(), metrics)

	var notified int
	s.OnChange(func(context.Context) { notified++ })

	s.Upsert(ctx, OriginSeed, []domain.ThreatRecord{aged("seed", 30*24*time.Hour)})
	require.NoError(t, s.LoadBatch(ctx, []domain.ThreatRecord{aged("fresh", time.Hour), aged("stale", 48*time.Hour)}))

	assert.Equal(t, []string{"seed", "fresh"}, ids(s.Snapshot()), "stale arrival discarded, seed never expires")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ThreatsExpired))

	assert.False(t, s.Prune(ctx), "nothing aged out yet")

	clock.Advance(24 * time.Hour)
	before := notified
	assert.True(t, s.Prune(ctx))
	assert.Equal(t, []string{"seed"}, ids(s.Snapshot()))
	assert.Equal(t, before+1, notified)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.ThreatsExpired))
	assert.Equal(t, []string{"seed"}, recordIDs(mirror.saved[len(mirror.saved)-1]))

	t.Run("restore skips expired records", func(t *testing.T) {
		restoring := NewStore(&mockMirror{stored: []Record{
			{Threat: aged("old", 72*time.Hour), Origin: OriginKafka},
			{Threat: aged("recent", time.Hour), Origin: OriginUSGS},
		}}, 24*time.Hour, clockwork.NewFakeClockAt(fixedTime), testLogger(), observability.NewMetricsForTesting())

		_, err := restoring.Restore(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"recent"}, ids(restoring.Snapshot()))
	})
}

func TestStore_RunRetention(t *testing.T) {
	clock := clockwork.NewFakeClockAt(fixedTime)
	s := NewStore(nil, time.Hour, clock, testLogger(), observability.NewMetricsForTesting())
	s.Upsert(context.Background(), OriginKafka, []domain.ThreatRecord{aged("k", 30*time.Minute)})
	require.Equal(t, 1, s.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.RunRetention(ctx, time.Minute) }()

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(45 * time.Minute)

	require.Eventually(t, func() bool { return s.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("retention loop did not stop")
	}

	t.Run("disabled retention returns immediately", func(t *testing.T) {
		s, _ := newTestStore(nil)
		assert.NoError(t, s.RunRetention(context.Background(), time.Minute))
	})
}

func TestStore_SetSensorStatus(t *testing.T) {
	s, _ := newTestStore(nil)

	s.SetSensorStatus(domain.USGSSensorID, domain.SensorDegraded)
	s.SetSensorStatus("missing", domain.SensorOffline)

	sensors := s.Sensors()
	require.Len(t, sensors, 6)
	assert.Equal(t, domain.SensorDegraded, sensors[0].Status)
	assert.Equal(t, fixedTime.Add(-5*time.Minute), sensors[0].LastUpdate)

	s.SetSensorStatus(domain.USGSSensorID, domain.SensorOnline)
	sensors = s.Sensors()
	assert.Equal(t, domain.SensorOnline, sensors[0].Status)
	assert.Equal(t, fixedTime, sensors[0].LastUpdate)
}

type mockFetcher struct {
	calls   atomic.Int32
	mu      sync.Mutex
	threats []domain.ThreatRecord
	err     error
}

func (m *mockFetcher) FetchQuakes(_ context.Context) ([]domain.ThreatRecord, error) {
	m.calls.Add(1)
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.threats, m.err
}

func (m *mockFetcher) set(threats []domain.ThreatRecord, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.threats, m.err = threats, err
}

func TestPoller_PollOnce(t *testing.T) {
	s, metrics := newTestStore(nil)
	fetcher := &mockFetcher{}
	p := NewPoller(fetcher, s, time.Minute, clockwork.NewFakeClockAt(fixedTime), testLogger(), metrics)
	ctx := context.Background()

	fetcher.set([]domain.ThreatRecord{threat("q1", domain.SeverityHigh)}, nil)
	assert.True(t, p.PollOnce(ctx))
	assert.Equal(t, []string{"q1"}, ids(s.Snapshot()))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedFetches.WithLabelValues(OriginUSGS, "success")))

	t.Run("failure keeps previous data", func(t *testing.T) {
		fetcher.set(nil, errors.New("503"))

		assert.False(t, p.PollOnce(ctx))
		assert.Equal(t, []string{"q1"}, ids(s.Snapshot()))
		assert.Equal(t, domain.SensorDegraded, s.Sensors()[0].Status)
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FeedFetches.WithLabelValues(OriginUSGS, "error")))
	})

	t.Run("recovery replaces stale quakes", func(t *testing.T) {
		fetcher.set([]domain.ThreatRecord{threat("q2", domain.SeverityLow)}, nil)

		assert.True(t, p.PollOnce(ctx))
		assert.Equal(t, []string{"q2"}, ids(s.Snapshot()))
		assert.Equal(t, domain.SensorOnline, s.Sensors()[0].Status)
	})
}

func TestPoller_Run(t *testing.T) {
	s, metrics := newTestStore(nil)
	clock := clockwork.NewFakeClockAt(fixedTime)
	fetcher := &mockFetcher{}
	fetcher.set([]domain.ThreatRecord{threat("q1", domain.SeverityHigh)}, nil)
	p := NewPoller(fetcher, s, time.Minute, clock, testLogger(), metrics)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	waitCtx, waitCancel := context.WithTimeout(ctx, time.Second)
	defer waitCancel()
	require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
	clock.Advance(time.Minute)

	require.Eventually(t, func() bool { return fetcher.calls.Load() == 2 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
