package service

import (
	"context"
	"time"

	"fraudshield/internal/platform/logger"
	checkdom "fraudshield/internal/services/check/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// QueueConfig sizes the background worker pool
type QueueConfig struct {
	Size    int
	Workers int
	// JobTimeout bounds one check end to end
	JobTimeout time.Duration
}

// Queue runs checks in the background after the webhook has been acked.
// It is a bounded channel: when full, Enqueue drops the job and reports
// false rather than blocking the webhook response path
type Queue struct {
	checker checkdom.CheckerPort
	jobs    chan checkdom.Job
	cfg     QueueConfig
	log     logger.Logger
}

// NewQueue constructs a queue with sane defaults
func NewQueue(checker checkdom.CheckerPort, cfg QueueConfig) *Queue {
	if cfg.Size <= 0 {
		cfg.Size = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = time.Minute
	}
	return &Queue{
		checker: checker,
		jobs:    make(chan checkdom.Job, cfg.Size),
		cfg:     cfg,
		log:     *logger.Named("checkqueue"),
	}
}

// Enqueue implements domain.EnqueuerPort
func (q *Queue) Enqueue(job checkdom.Job) bool {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	select {
	case q.jobs <- job:
		q.log.Debug().
			Str("job", job.ID).
			Str("shop", job.Shop).
			Int64("order", job.OrderID).
			Msg("job queued")
		return true
	default:
		q.log.Error().
			Str("shop", job.Shop).
			Int64("order", job.OrderID).
			Msg("queue full, job dropped")
		return false
	}
}

// Depth reports how many jobs are waiting
func (q *Queue) Depth() int { return len(q.jobs) }

// Run processes jobs until ctx is cancelled, then drains nothing and
// returns. Call it once from main
func (q *Queue) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case job := <-q.jobs:
					q.process(gctx, job)
				}
			}
		})
	}
	return g.Wait()
}

// process runs one job with a deadline and panic isolation so a single
// poisoned order cannot take a worker down
func (q *Queue) process(ctx context.Context, job checkdom.Job) {
	defer func() {
		if rec := recover(); rec != nil {
			q.log.Error().
				Str("job", job.ID).
				Str("shop", job.Shop).
				Int64("order", job.OrderID).
				Any("panic", rec).
				Msg("job panicked")
		}
	}()

	jctx, cancel := context.WithTimeout(ctx, q.cfg.JobTimeout)
	defer cancel()

	res, err := q.checker.Check(jctx, job.Shop, job.OrderID, job.Trigger)
	if err != nil {
		q.log.Warn().
			Err(err).
			Str("job", job.ID).
			Str("shop", job.Shop).
			Int64("order", job.OrderID).
			Str("outcome", res.Outcome.String()).
			Msg("job failed")
		return
	}
	q.log.Info().
		Str("job", job.ID).
		Str("shop", job.Shop).
		Int64("order", job.OrderID).
		Str("trigger", job.Trigger.String()).
		Str("outcome", res.Outcome.String()).
		Msg("job done")
}
