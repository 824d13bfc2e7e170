package resolver

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"qbank/logging"
	"qbank/models"
)

// HealRequest asks for a question's slug to be assigned or corrected after
// it was found by a fallback strategy.
type HealRequest struct {
	CategoryID string
	QuestionID string
	Text       string
	// Slug is the slug the question carried when it was resolved.
	Slug string
	// Preferred is the identifier the caller used, when it is a valid slug.
	Preferred string
	Strategy  string
}

// Heal applies req synchronously and returns the slug the question now has.
func (g *Guard) Heal(ctx context.Context, req HealRequest) (string, error) {
	q := &models.Question{ID: req.QuestionID, CategoryID: req.CategoryID, Text: req.Text, Slug: req.Slug}
	return g.AssignSlug(ctx, q, req.Preferred)
}

// Healer accepts heal requests. Implementations must not block the caller
// for long and must not report failures back to it.
type Healer interface {
	Heal(req HealRequest)
}

// HealerFunc adapts a function to Healer.
type HealerFunc func(HealRequest)

func (f HealerFunc) Heal(req HealRequest) { f(req) }

type nopHealer struct{}

func (nopHealer) Heal(HealRequest) {}

// HealQueueOptions sizes a HealQueue.
type HealQueueOptions struct {
	Size         int
	Workers      int
	DrainTimeout time.Duration
}

// HealQueue applies heal requests in the background. Enqueueing never
// blocks: when the buffer is full the request is dropped and logged, since
// the next resolution of the same identifier will ask again.
type HealQueue struct {
	guard   *Guard
	jobs    chan HealRequest
	workers int
	drain   time.Duration
	logger  *slog.Logger

	// mu orders sends against shutdown: once stopped is set under the write
	// lock no send is in flight, so the drain sees every accepted request.
	mu      sync.RWMutex
	stopped bool

	applied atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

func NewHealQueue(guard *Guard, opts HealQueueOptions, logger *slog.Logger) *HealQueue {
	if opts.Size < 1 {
		opts.Size = 256
	}
	if opts.Workers < 1 {
		opts.Workers = 2
	}
	if opts.DrainTimeout <= 0 {
		opts.DrainTimeout = 10 * time.Second
	}
	return &HealQueue{
		guard:   guard,
		jobs:    make(chan HealRequest, opts.Size),
		workers: opts.Workers,
		drain:   opts.DrainTimeout,
		logger:  logging.OrNop(logger).With("component", "heal_queue"),
	}
}

func (q *HealQueue) Heal(req HealRequest) {
	reason := ""
	q.mu.RLock()
	switch {
	case q.stopped:
		reason = "queue stopped"
	default:
		select {
		case q.jobs <- req:
		default:
			reason = "queue full"
		}
	}
	q.mu.RUnlock()

	if reason != "" {
		q.drop(req, reason)
	}
}

// Run processes requests until ctx is cancelled, then drains what is
// already queued within the drain timeout.
func (q *HealQueue) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < q.workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case req := <-q.jobs:
					q.apply(gctx, req)
				}
			}
		})
	}
	err := g.Wait()
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), q.drain)
	defer cancel()
	for {
		select {
		case req := <-q.jobs:
			q.apply(drainCtx, req)
		default:
			return err
		}
	}
}

// Stats reports applied, failed and dropped heal counts.
func (q *HealQueue) Stats() (applied, failed, dropped int64) {
	return q.applied.Load(), q.failed.Load(), q.dropped.Load()
}

func (q *HealQueue) apply(ctx context.Context, req HealRequest) {
	assigned, err := q.guard.Heal(ctx, req)
	if err != nil {
		q.failed.Add(1)
		q.logger.Warn("slug self-heal failed",
			"event_type", "slug_heal_failed",
			"question_id", req.QuestionID,
			"category_id", req.CategoryID,
			"strategy", req.Strategy,
			"error", err)
		return
	}
	q.applied.Add(1)
	q.logger.Info("slug self-healed",
		"event_type", "slug_healed",
		"question_id", req.QuestionID,
		"category_id", req.CategoryID,
		"strategy", req.Strategy,
		"previous_slug", req.Slug,
		"slug", assigned)
}

func (q *HealQueue) drop(req HealRequest, reason string) {
	q.dropped.Add(1)
	q.logger.Warn("slug self-heal dropped",
		"event_type", "slug_heal_dropped",
		"question_id", req.QuestionID,
		"reason", reason)
}
