package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/diary-location-service/internal/domain"
	"github.com/couchcryptid/diary-location-service/internal/observability"
)

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// BatchExtractor reads up to batchSize raw events from the source.
type BatchExtractor interface {
	ExtractBatch(ctx context.Context, batchSize int) ([]domain.RawEvent, error)
}

// Transformer turns a raw diary message into a titled entry.
type Transformer interface {
	Transform(ctx context.Context, raw domain.RawEvent) (domain.TitledEntry, error)
}

// BatchLoader writes titled entries to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, entries []domain.TitledEntry) error
}

// Pipeline reads diary messages, resolves their location and title, and
// publishes the titled entries.
type Pipeline struct {
	extractor   BatchExtractor
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	ready       atomic.Bool
	batchSize   int
}

// New creates a Pipeline with the given stages and observability.
func New(e BatchExtractor, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, batchSize int) *Pipeline {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Pipeline{
		extractor:   e,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		batchSize:   batchSize,
	}
}

// CheckReadiness returns nil once a fetch from the source has succeeded, or
// an error describing why the pipeline is not ready yet.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not fetched from the source topic yet")
	}
	return nil
}

// Run executes the batch loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "batch_size", p.batchSize)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for ctx.Err() == nil {
		start := time.Now()

		rawBatch, err := p.extractor.ExtractBatch(ctx, p.batchSize)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			p.logger.Error("extract batch failed", "error", err, "retry_in", backoff)
			if !sleepWithContext(ctx, backoff) {
				break
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = initialBackoff
		p.ready.Store(true)

		if len(rawBatch) == 0 {
			continue
		}
		p.metrics.MessagesConsumed.Add(float64(len(rawBatch)))
		p.metrics.BatchSize.Observe(float64(len(rawBatch)))

		if !p.processBatch(ctx, rawBatch) {
			break
		}
		p.metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	}

	p.logger.Info("pipeline stopping", "reason", context.Cause(ctx))
	return nil
}

// processBatch transforms the batch, loads the entries, and commits every
// offset. Messages that cannot be parsed are committed and dropped so one bad
// message cannot stall its partition. Returns false if the context ended
// before the batch was loaded.
func (p *Pipeline) processBatch(ctx context.Context, rawBatch []domain.RawEvent) bool {
	entries := make([]domain.TitledEntry, 0, len(rawBatch))
	loaded := make([]domain.RawEvent, 0, len(rawBatch))

	for _, raw := range rawBatch {
		entry, err := p.transformer.Transform(ctx, raw)
		if err != nil {
			p.logger.Warn("transform failed, skipping message",
				"error", err,
				"topic", raw.Topic,
				"partition", raw.Partition,
				"offset", raw.Offset,
			)
			p.metrics.TransformErrors.Inc()
			p.commitOffset(ctx, raw)
			continue
		}
		entries = append(entries, entry)
		loaded = append(loaded, raw)
	}

	if len(entries) == 0 {
		return true
	}
	if !p.loadWithRetry(ctx, entries) {
		return false
	}
	p.metrics.MessagesProduced.Add(float64(len(entries)))

	for _, raw := range loaded {
		p.commitOffset(ctx, raw)
	}
	return true
}

// loadWithRetry retries the same batch with exponential backoff until it is
// written or the context ends. Offsets stay uncommitted meanwhile.
func (p *Pipeline) loadWithRetry(ctx context.Context, entries []domain.TitledEntry) bool {
	backoff := initialBackoff
	for {
		err := p.loader.LoadBatch(ctx, entries)
		if err == nil {
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.logger.Error("load batch failed", "error", err, "batch_size", len(entries), "retry_in", backoff)
		if !sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = nextBackoff(backoff)
	}
}

// commitOffset commits the message offset if a commit function is available.
func (p *Pipeline) commitOffset(ctx context.Context, raw domain.RawEvent) {
	if raw.Commit == nil {
		return
	}
	if err := raw.Commit(ctx); err != nil {
		p.logger.Warn("commit offset failed", "error", err,
			"topic", raw.Topic, "partition", raw.Partition, "offset", raw.Offset)
	}
}

func nextBackoff(current time.Duration) time.Duration {
	return min(current*2, maxBackoff)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
