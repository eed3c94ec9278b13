package service

import (
	"time"

	"github.com/openscout/gridiron/internal/adapters/repository"
	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/impute"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/internal/domain/whatif"
	"github.com/openscout/gridiron/pkg/logger"
)

// Option configures the evaluation service.
type Option func(*Service)

// WithClassifier replaces the default rule-based backend with a custom
// classifier, typically the remote model adapter.
func WithClassifier(c classify.Classifier) Option {
	return func(s *Service) {
		if c != nil {
			s.classifier = c
		}
	}
}

// WithClassifierBackend names the classifier backend for logs and stats.
func WithClassifierBackend(name string) Option {
	return func(s *Service) {
		if name != "" {
			s.classifierName = name
		}
	}
}

// WithClassifierTries sets how many attempts a classification gets before
// the request fails. Values below one are ignored.
func WithClassifierTries(tries int) Option {
	return func(s *Service) {
		if tries > 0 {
			s.classifierTries = tries
		}
	}
}

// WithClassifierPause sets the base delay between classification retries.
func WithClassifierPause(pause time.Duration) Option {
	return func(s *Service) {
		if pause > 0 {
			s.classifierPause = pause
		}
	}
}

// WithWorkerCount sets the number of evaluation workers draining the
// intake queue.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueCapacity bounds the intake queue.
func WithQueueCapacity(capacity int) Option {
	return func(s *Service) {
		if capacity > 0 {
			s.queueCapacity = capacity
		}
	}
}

// WithDedupeSize bounds the submission dedupe index.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithImputeSeed pins the imputation RNG for reproducible runs.
func WithImputeSeed(seed uint64) Option {
	return func(s *Service) {
		s.imputeSeed = seed
		s.hasSeed = true
	}
}

// WithBenchmarks replaces the built-in combine benchmark table. The
// table must already be validated.
func WithBenchmarks(t impute.Table) Option {
	return func(s *Service) {
		if len(t) > 0 {
			s.benchmarks = t
		}
	}
}

// WithWhatIfThreshold sets the default probability a what-if candidate must
// reach at the target tier. Values outside (0, 1] are ignored.
func WithWhatIfThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.whatIfThreshold = threshold
		}
	}
}

// WithCandidates overrides the per-position what-if candidate sets.
func WithCandidates(candidates map[types.Position][]whatif.Candidate) Option {
	return func(s *Service) {
		if len(candidates) > 0 {
			s.candidates = candidates
		}
	}
}

// WithSolverOptions forwards options to the what-if solver.
func WithSolverOptions(opts ...whatif.Option) Option {
	return func(s *Service) {
		s.solverOpts = append(s.solverOpts, opts...)
	}
}

// WithBoardOptions forwards options to the prospect board.
func WithBoardOptions(opts ...repository.Option) Option {
	return func(s *Service) {
		s.boardOpts = append(s.boardOpts, opts...)
	}
}

// WithLogger sets the service logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}
