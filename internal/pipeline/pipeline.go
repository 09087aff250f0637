package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/threatmap-service/internal/domain"
	"github.com/couchcryptid/threatmap-service/internal/observability"
)

const (
	minRetryDelay = 200 * time.Millisecond
	maxRetryDelay = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer converts a raw event into a validated threat record.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.ThreatRecord, error)
}

// BatchLoader stores a batch of threat records. An error means the batch is
// not durable yet; loading the same batch again must be safe.
type BatchLoader interface {
	LoadBatch(ctx context.Context, threats []domain.ThreatRecord) error
}

// Pipeline moves threat records from the source topic into the feed store.
// Offsets are committed only for records the store accepted; a batch the
// store refuses is retried in place, so the consumer never runs ahead of
// what has been stored.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	batchSize   int
	loaded      atomic.Bool
}

func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness passes once a batch has been stored.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.loaded.Load() {
		return errors.New("pipeline has not stored any threats yet")
	}
	return nil
}

// Run consumes batches until ctx is cancelled. Source and store failures are
// retried with capped exponential delay; Run itself only returns nil.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	retry := newBackoff(minRetryDelay, maxRetryDelay)
	for {
		raws, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			p.logger.Error("extract batch failed", "error", err)
			if !retry.wait(ctx) {
				break
			}
			continue
		}
		retry.reset()
		if len(raws) == 0 {
			continue
		}

		start := time.Now()
		p.metrics.MessagesConsumed.Add(float64(len(raws)))
		p.metrics.BatchSize.Observe(float64(len(raws)))

		threats, accepted := p.parse(ctx, raws)
		if len(threats) == 0 {
			continue
		}
		if !p.store(ctx, threats, retry) {
			break
		}
		for _, raw := range accepted {
			p.commit(ctx, raw)
		}

		p.metrics.ThreatsLoaded.Add(float64(len(threats)))
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
		p.loaded.Store(true)
	}

	p.logger.Info("pipeline stopping", "reason", ctx.Err())
	return nil
}

// parse validates every message. Rejected messages are committed right away
// since redelivery would not make them valid.
func (p *Pipeline) parse(ctx context.Context, raws []domain.RawEvent) ([]domain.ThreatRecord, []domain.RawEvent) {
	threats := make([]domain.ThreatRecord, 0, len(raws))
	accepted := make([]domain.RawEvent, 0, len(raws))

	for _, raw := range raws {
		threat, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("threat record rejected, skipping message",
				"error", err, "topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
			p.metrics.ParseErrors.Inc()
			p.commit(ctx, raw)
			continue
		}
		threats = append(threats, threat)
		accepted = append(accepted, raw)
	}
	return threats, accepted
}

// store hands the batch to the loader until it is accepted. It reports false
// when ctx ends first.
func (p *Pipeline) store(ctx context.Context, threats []domain.ThreatRecord, retry *backoff) bool {
	for {
		err := p.loader.LoadBatch(ctx, threats)
		if err == nil {
			retry.reset()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.metrics.LoadErrors.Inc()
		p.logger.Error("load batch failed, retrying", "error", err, "batch_size", len(threats))
		if !retry.wait(ctx) {
			return false
		}
	}
}

func (p *Pipeline) commit(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

// backoff doubles its delay after every wait, up to max.
type backoff struct {
	next, min, max time.Duration
}

func newBackoff(lo, hi time.Duration) *backoff {
	return &backoff{next: lo, min: lo, max: hi}
}

func (b *backoff) reset() { b.next = b.min }

// wait sleeps for the current delay and reports false if ctx ended first.
func (b *backoff) wait(ctx context.Context) bool {
	timer := time.NewTimer(b.next)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	b.next = min(b.next*2, b.max)
	return true
}
