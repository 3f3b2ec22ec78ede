package extraction

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/IBM07/HireWire/internal/types"
)

// DefaultBatchSize is used when the worker is given a non-positive batch size.
const DefaultBatchSize = 25

// Queue is the slice of the store the worker needs.
type Queue interface {
	ListPendingExtraction(ctx context.Context, limit int) ([]types.PendingPosting, error)
	SaveExtraction(ctx context.Context, id uuid.UUID, fields *types.ExtractedFields) error
}

// Invalidator drops cached responses that depend on extracted postings.
type Invalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}

// Result summarizes one pass over the pending queue.
type Result struct {
	Pending  int           `json:"pending"`
	Updated  int           `json:"updated"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}

func (r Result) String() string {
	return fmt.Sprintf("pending=%d updated=%d skipped=%d failed=%d", r.Pending, r.Updated, r.Skipped, r.Failed)
}

// Worker drains pending postings through an Extractor.
type Worker struct {
	queue       Queue
	extractor   Extractor
	batchSize   int
	invalidator Invalidator
	prefixes    []string
	logger      *zap.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithBatchSize sets how many postings one RunOnce processes.
func WithBatchSize(n int) WorkerOption {
	return func(w *Worker) {
		if n > 0 {
			w.batchSize = n
		}
	}
}

// WithInvalidation clears the given cache prefixes after a pass that updated
// at least one posting.
func WithInvalidation(inv Invalidator, prefixes ...string) WorkerOption {
	return func(w *Worker) {
		w.invalidator = inv
		w.prefixes = prefixes
	}
}

// WithWorkerLogger sets the worker's logger.
func WithWorkerLogger(logger *zap.Logger) WorkerOption {
	return func(w *Worker) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorker creates a Worker.
func NewWorker(queue Queue, extractor Extractor, opts ...WorkerOption) *Worker {
	w := &Worker{
		queue:     queue,
		extractor: extractor,
		batchSize: DefaultBatchSize,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// RunOnce processes up to one batch of pending postings. A posting whose
// extraction fails stays pending; a failed save is counted and the pass continues.
// The only error returned is a failure to read the queue or a cancelled context.
func (w *Worker) RunOnce(ctx context.Context) (Result, error) {
	start := time.Now()
	var res Result

	pending, err := w.queue.ListPendingExtraction(ctx, w.batchSize)
	if err != nil {
		return res, fmt.Errorf("failed to list pending postings: %w", err)
	}
	res.Pending = len(pending)

	for _, p := range pending {
		if err := ctx.Err(); err != nil {
			w.finish(ctx, &res, start)
			return res, err
		}

		log := w.logger.With(zap.String("posting_id", p.ID.String()), zap.String("job_url", p.JobURL))

		fields, err := w.extractor.Extract(ctx, p.RawDescription)
		if err != nil {
			res.Skipped++
			log.Warn("extraction failed, posting left pending", zap.Error(err))
			continue
		}

		if err := w.queue.SaveExtraction(ctx, p.ID, fields); err != nil {
			res.Failed++
			log.Error("failed to save extraction", zap.Error(err))
			continue
		}
		res.Updated++
		log.Info("posting extracted",
			zap.String("company", fields.Company),
			zap.Int("skills", len(fields.RequiredSkills)))
	}

	w.finish(ctx, &res, start)
	return res, nil
}

func (w *Worker) finish(ctx context.Context, res *Result, start time.Time) {
	if res.Updated > 0 && w.invalidator != nil {
		// Invalidation must still run when ctx was cancelled mid-batch.
		ictx := context.WithoutCancel(ctx)
		for _, prefix := range w.prefixes {
			if _, err := w.invalidator.InvalidatePrefix(ictx, prefix); err != nil {
				w.logger.Warn("failed to invalidate cache", zap.String("prefix", prefix), zap.Error(err))
			}
		}
	}
	res.Duration = time.Since(start)
	if res.Pending > 0 {
		w.logger.Info("extraction pass complete",
			zap.Int("pending", res.Pending),
			zap.Int("updated", res.Updated),
			zap.Int("skipped", res.Skipped),
			zap.Int("failed", res.Failed),
			zap.Duration("duration", res.Duration))
	}
}
