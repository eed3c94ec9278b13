// Package worker runs the evaluation loop that drains the intake queue
// and publishes results to the prospect board.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/openscout/gridiron/internal/adapters/repository"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/pkg/logger"
	"github.com/openscout/gridiron/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 4 // multiplier for runtime.NumCPU()
	poolShutdownTimeout     = 30 * time.Second
)

// Submission is what workers read off the queue.
type Submission = model.Submission

// Evaluator produces a full evaluation for one athlete.
type Evaluator interface {
	Evaluate(ctx context.Context, athlete model.Athlete) (model.Evaluation, error)
}

// Board records an evaluation as the athlete's best showing when it
// improves on the stored one.
type Board interface {
	UpdateBest(ctx context.Context, e repository.Entry) (bool, error)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is cancelled.
	Run(ctx context.Context)

	// Shutdown stops the worker, letting the in-flight submission finish.
	Shutdown(ctx context.Context) error
}

// EvalWorker implements Worker for processing submissions.
type EvalWorker struct {
	queue     Queue
	evaluator Evaluator
	board     Board
	name      string

	// Shutdown control
	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewEvalWorker creates a new worker with configuration options.
func NewEvalWorker(queue Queue, evaluator Evaluator, board Board, opts ...Option) *EvalWorker {
	w := &EvalWorker{
		queue:     queue,
		evaluator: evaluator,
		board:     board,
		name:      "worker",
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *EvalWorker) Run(ctx context.Context) {
	defer close(w.done)

	submissions := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case s, ok := <-submissions:
			if !ok {
				// Queue closed, nothing more to do.
				return
			}
			if err := w.processSubmission(ctx, s); err != nil {
				w.logger.Error(ctx, "submission processing failed", logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *EvalWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processSubmission evaluates one athlete and publishes the result.
func (w *EvalWorker) processSubmission(ctx context.Context, s Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	eval, err := w.evaluator.Evaluate(ctx, s.Athlete)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "evaluation_error")
		w.logger.Error(ctx, "evaluation failed",
			logger.String("submission_id", s.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("evaluate submission %s: %w", s.SubmissionID, err)
	}

	updated, err := w.board.UpdateBest(ctx, repository.Entry{
		AthleteID: eval.AthleteID,
		Name:      eval.Name,
		Position:  eval.Position,
		Tier:      eval.Prediction.Tier,
		Score:     eval.Scores.Overall,
		EvalID:    eval.EvaluationID,
	})
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "board_error")
		w.logger.Error(ctx, "board update failed",
			logger.String("submission_id", s.SubmissionID),
			logger.Error(err),
		)
		return fmt.Errorf("publish submission %s: %w", s.SubmissionID, err)
	}

	if updated {
		w.logger.Debug(ctx, "board updated",
			logger.String("athlete_id", eval.AthleteID),
			logger.Float64("overall", eval.Scores.Overall),
		)
	}

	return nil
}

// Pool manages multiple workers draining the same queue.
type Pool struct {
	workers []*EvalWorker

	// Queue shared by all workers; closed first on shutdown so the
	// workers drain the backlog.
	queue Queue

	logger logger.Logger
}

// NewPool creates a worker pool. A non-positive workerCount picks a
// default from the CPU count.
func NewPool(workerCount int, queue Queue, evaluator Evaluator, board Board) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers: make([]*EvalWorker, workerCount),
		queue:   queue,
		logger:  logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewEvalWorker(
			queue,
			evaluator,
			board,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers in the pool.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Shutdown closes the queue and waits for the workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	metrics.UpdateWorkerActiveCount(0)

	return nil
}
