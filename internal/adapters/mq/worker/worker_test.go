package worker_test

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/openscout/gridiron/internal/adapters/mq/queue"
	"github.com/openscout/gridiron/internal/adapters/mq/worker"
	"github.com/openscout/gridiron/internal/adapters/repository"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/pkg/logger"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type stubEvaluator struct {
	mu    sync.Mutex
	calls int
	fail  bool
	block chan struct{}
}

func (s *stubEvaluator) Evaluate(ctx context.Context, athlete model.Athlete) (model.Evaluation, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	fail := s.fail
	s.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail {
		return model.Evaluation{}, errors.New("model offline")
	}

	return model.Evaluation{
		EvaluationID: "eval-" + athlete.ID,
		AthleteID:    athlete.ID,
		Name:         athlete.Name,
		Position:     athlete.Position,
		Prediction:   model.TierPrediction{Tier: types.TierFCS, Label: types.TierFCS.Label()},
		Scores:       model.Scores{Overall: 61.8},
		EvaluatedAt:  time.Now(),
	}, nil
}

func (s *stubEvaluator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubBoard struct {
	mu      sync.Mutex
	entries map[string]repository.Entry
	fail    bool
}

func (s *stubBoard) UpdateBest(ctx context.Context, e repository.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return false, errors.New("board offline")
	}
	if s.entries == nil {
		s.entries = make(map[string]repository.Entry)
	}
	if old, ok := s.entries[e.AthleteID]; ok && old.Score >= e.Score {
		return false, nil
	}
	s.entries[e.AthleteID] = e
	return true, nil
}

func (s *stubBoard) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *stubBoard) entry(id string) (repository.Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	return e, ok
}

func submission(n int) worker.Submission {
	return worker.Submission{
		SubmissionID: fmt.Sprintf("sub-%03d", n),
		Athlete: model.Athlete{
			ID:       fmt.Sprintf("ath-%03d", n),
			Name:     fmt.Sprintf("Athlete %03d", n),
			Position: types.RB,
		},
	}
}

func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestWorkerProcessing(t *testing.T) {
	Convey("Given a worker draining a queue", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		evaluator := &stubEvaluator{}
		board := &stubBoard{}
		w := worker.NewEvalWorker(q, evaluator, board, worker.WithName("worker-under-test"))

		Convey("When submissions arrive", func() {
			for i := 0; i < 3; i++ {
				So(q.Enqueue(ctx, submission(i)), ShouldBeTrue)
			}
			go w.Run(ctx)

			Convey("Then every submission lands on the board", func() {
				So(eventually(2*time.Second, func() bool { return board.size() == 3 }), ShouldBeTrue)
				So(evaluator.callCount(), ShouldEqual, 3)

				e, ok := board.entry("ath-001")
				So(ok, ShouldBeTrue)
				So(e.EvalID, ShouldEqual, "eval-ath-001")
				So(e.Tier, ShouldEqual, types.TierFCS)
				So(e.Score, ShouldAlmostEqual, 61.8)

				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the evaluator fails", func() {
			evaluator.fail = true
			So(q.Enqueue(ctx, submission(0)), ShouldBeTrue)
			So(q.Enqueue(ctx, submission(1)), ShouldBeTrue)
			go w.Run(ctx)

			Convey("Then nothing reaches the board and the worker keeps going", func() {
				So(eventually(2*time.Second, func() bool { return evaluator.callCount() == 2 }), ShouldBeTrue)
				So(board.size(), ShouldEqual, 0)
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the board rejects updates", func() {
			board.fail = true
			So(q.Enqueue(ctx, submission(0)), ShouldBeTrue)
			go w.Run(ctx)

			Convey("Then the worker logs and survives", func() {
				So(eventually(2*time.Second, func() bool { return evaluator.callCount() == 1 }), ShouldBeTrue)
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})

		Convey("When the queue closes", func() {
			So(q.Enqueue(ctx, submission(0)), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			go w.Run(ctx)

			Convey("Then the worker drains the backlog and exits on its own", func() {
				So(eventually(2*time.Second, func() bool { return board.size() == 1 }), ShouldBeTrue)
				// Run returns once the dequeue channel closes, so Shutdown
				// sees a finished worker.
				So(w.Shutdown(ctx), ShouldBeNil)
			})
		})
	})
}

func TestWorkerShutdownTimeout(t *testing.T) {
	Convey("Given a worker stuck on a slow evaluation", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		release := make(chan struct{})
		evaluator := &stubEvaluator{block: release}
		board := &stubBoard{}
		w := worker.NewEvalWorker(q, evaluator, board)

		So(q.Enqueue(ctx, submission(0)), ShouldBeTrue)
		go w.Run(ctx)
		So(eventually(2*time.Second, func() bool { return evaluator.callCount() == 1 }), ShouldBeTrue)

		Convey("When shutdown has a short deadline", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 20*time.Millisecond)
			defer shutdownCancel()
			err := w.Shutdown(shutdownCtx)

			Convey("Then it reports the timeout", func() {
				So(err, ShouldWrap, context.DeadlineExceeded)
				close(release)
			})
		})
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool of workers", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		q := queue.NewInMemoryQueue()
		evaluator := &stubEvaluator{}
		board := &stubBoard{}

		Convey("When sized explicitly", func() {
			pool := worker.NewPool(3, q, evaluator, board)
			So(pool.Size(), ShouldEqual, 3)

			Convey("Then it drains the queue in parallel", func() {
				pool.Start(ctx)
				for i := 0; i < 20; i++ {
					So(q.Enqueue(ctx, submission(i)), ShouldBeTrue)
				}
				So(eventually(3*time.Second, func() bool { return board.size() == 20 }), ShouldBeTrue)

				Convey("And shutdown closes the queue", func() {
					So(pool.Shutdown(ctx), ShouldBeNil)
					So(q.IsClosed(), ShouldBeTrue)
				})
			})
		})

		Convey("When sized non-positively it falls back to the CPU count", func() {
			pool := worker.NewPool(0, q, evaluator, board)
			So(pool.Size(), ShouldEqual, runtime.NumCPU()*4)
			pool.Start(ctx)
			So(pool.Shutdown(ctx), ShouldBeNil)
		})
	})
}
