// Package service wires the evaluation pipeline together and implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	submissionqueue "github.com/openscout/gridiron/internal/adapters/mq/queue"
	workerpool "github.com/openscout/gridiron/internal/adapters/mq/worker"
	"github.com/openscout/gridiron/internal/adapters/repository"
	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/dedupe"
	"github.com/openscout/gridiron/internal/domain/derive"
	"github.com/openscout/gridiron/internal/domain/impute"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/scores"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/internal/domain/whatif"
	"github.com/openscout/gridiron/pkg/logger"
	"github.com/openscout/gridiron/pkg/metrics"
)

// Default service configuration constants.
const (
	defaultQueueCapacity    = 10000
	defaultDedupeSize       = 50000
	defaultClassifierTries  = 3
	defaultClassifierPause  = 200 * time.Millisecond
	reasonTopTier           = "already at the highest tier"
	backendRules            = "rules"
)

// Service runs the evaluation pipeline: imputation, feature derivation,
// classification, scoring, and optional what-if guidance. It also owns
// the async intake path (dedupe, queue, workers, board).
type Service struct {
	mu sync.RWMutex

	// Core components
	classifier classify.Classifier
	deriver    *derive.Deriver
	imputer    *impute.Engine
	solver     *whatif.Solver
	board      *repository.TreapBoard
	deduper    dedupe.Deduper
	queue      submissionqueue.Queue
	pool       *workerpool.Pool

	// Configuration
	workerCount      int
	queueCapacity    int
	dedupeSize       int
	classifierName   string
	classifierTries  int
	classifierPause  time.Duration
	whatIfThreshold  float64
	imputeSeed       uint64
	hasSeed          bool
	benchmarks       impute.Table
	candidates       map[types.Position][]whatif.Candidate
	solverOpts       []whatif.Option
	boardOpts        []repository.Option

	// State
	started bool

	logger logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		queueCapacity:   defaultQueueCapacity,
		dedupeSize:      defaultDedupeSize,
		classifierName:  backendRules,
		classifierTries: defaultClassifierTries,
		classifierPause: defaultClassifierPause,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.deriver = derive.New()

	var imputeOpts []impute.Option
	if s.hasSeed {
		imputeOpts = append(imputeOpts, impute.WithSeed(s.imputeSeed))
	}
	if len(s.benchmarks) > 0 {
		imputeOpts = append(imputeOpts, impute.WithTable(s.benchmarks))
	}
	s.imputer = impute.New(imputeOpts...)

	if s.classifier == nil {
		s.classifier = classify.NewRuleBased()
		s.classifierName = backendRules
	}

	solverOpts := append([]whatif.Option{whatif.WithDeriver(s.deriver)}, s.solverOpts...)
	if s.whatIfThreshold > 0 {
		solverOpts = append(solverOpts, whatif.WithDefaultThreshold(s.whatIfThreshold))
	}
	s.solver = whatif.New(s.classifier, solverOpts...)

	s.board = repository.NewTreapBoard(ctx, s.boardOpts...)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.queue = submissionqueue.NewInMemoryQueue(
		submissionqueue.WithCapacity(s.queueCapacity),
		submissionqueue.WithBufferSize(s.queueCapacity),
	)

	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.board)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "evaluation service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_capacity", s.queueCapacity),
		logger.String("classifier", s.classifierName),
	)

	return nil
}

// Stop drains the workers and shuts the components down.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	s.logger.Info(ctx, "stopping evaluation service")

	// Pool shutdown closes the queue first so the backlog drains.
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	_ = s.board.Close()

	s.started = false
	s.logger.Info(ctx, "evaluation service stopped")

	return nil
}

// EvaluateRequest carries the per-request knobs for one evaluation.
// The zero value runs the default pipeline: mid-table imputation prior,
// no what-if guidance.
type EvaluateRequest struct {
	Athlete model.Athlete

	// TierHint steers imputation toward that tier's benchmark ranges.
	TierHint *types.Tier

	// IncludeWhatIf attaches progress guidance to the evaluation.
	IncludeWhatIf bool

	// Target overrides the what-if target tier. Nil means one tier above
	// the predicted one.
	Target *types.Tier

	// Threshold overrides the success probability threshold for this
	// request only. Non-positive falls back to the configured default.
	Threshold float64

	// Candidates override the per-position default search set.
	Candidates []whatif.Candidate
}

// Evaluate runs the default pipeline for one athlete. This is the
// worker-facing entry point; the sync API goes through EvaluateAthlete.
func (s *Service) Evaluate(ctx context.Context, athlete model.Athlete) (model.Evaluation, error) {
	return s.EvaluateAthlete(ctx, EvaluateRequest{Athlete: athlete})
}

// EvaluateAthlete runs the full pipeline for one request.
func (s *Service) EvaluateAthlete(ctx context.Context, req EvaluateRequest) (model.Evaluation, error) {
	start := time.Now()
	defer func() {
		metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
	}()

	p, err := s.prepare(req.Athlete, req.TierHint)
	if err != nil {
		return model.Evaluation{}, err
	}

	pred, err := s.classifyWithRetry(ctx, p.vector)
	if err != nil {
		metrics.RecordEvaluationError()
		metrics.RecordErrorByComponent("service", "classification")
		return model.Evaluation{}, fmt.Errorf("classify athlete: %w", err)
	}

	eval := model.Evaluation{
		EvaluationID:            uuid.New().String(),
		AthleteID:               req.Athlete.Key(),
		Name:                    req.Athlete.Name,
		Position:                req.Athlete.Position,
		Prediction:              pred,
		Imputation:              p.flags,
		DataCompletenessWarning: p.flags.Any(),
		Scores:                  scores.Compute(pred, p.confidence),
		EvaluatedAt:             time.Now().UTC(),
	}

	if req.IncludeWhatIf {
		w, err := s.solve(ctx, p.athlete, pred.Tier, req)
		if err != nil {
			metrics.RecordEvaluationError()
			metrics.RecordErrorByComponent("service", "whatif")
			return model.Evaluation{}, fmt.Errorf("what-if search: %w", err)
		}
		eval.WhatIf = w
	}

	metrics.RecordEvaluation(string(eval.Position), eval.Prediction.Label)

	s.logger.Debug(ctx, "athlete evaluated",
		logger.String("athlete_id", eval.AthleteID),
		logger.String("tier", eval.Prediction.Label),
		logger.Float64("overall", eval.Scores.Overall),
		logger.Int("imputed", p.flags.Count()),
	)

	return eval, nil
}

// WhatIf runs the solver for one athlete without publishing anything.
// IncludeWhatIf on the request is ignored. When no explicit target is
// given the athlete is classified first and the next tier up is used.
func (s *Service) WhatIf(ctx context.Context, req EvaluateRequest) (model.WhatIf, error) {
	p, err := s.prepare(req.Athlete, req.TierHint)
	if err != nil {
		return model.WhatIf{}, err
	}

	predicted := types.Tier(-1)
	if req.Target == nil {
		pred, err := s.classifyWithRetry(ctx, p.vector)
		if err != nil {
			metrics.RecordErrorByComponent("service", "classification")
			return model.WhatIf{}, fmt.Errorf("classify athlete: %w", err)
		}
		predicted = pred.Tier
	}

	w, err := s.solve(ctx, p.athlete, predicted, req)
	if err != nil {
		metrics.RecordErrorByComponent("service", "whatif")
		return model.WhatIf{}, fmt.Errorf("what-if search: %w", err)
	}
	return *w, nil
}

// prepared carries the imputed athlete and its feature vector.
type prepared struct {
	athlete    model.Athlete
	flags      model.ImputationFlags
	confidence float64
	vector     map[string]float64
}

// prepare validates, imputes, and derives the classifier input.
func (s *Service) prepare(athlete model.Athlete, hint *types.Tier) (prepared, error) {
	if err := athlete.Validate(); err != nil {
		metrics.RecordEvaluationError()
		metrics.RecordErrorByComponent("service", "validation")
		return prepared{}, fmt.Errorf("validate athlete: %w", err)
	}

	var divisions []types.Division
	if hint != nil {
		if !hint.Valid() {
			metrics.RecordEvaluationError()
			metrics.RecordErrorByComponent("service", "validation")
			return prepared{}, fmt.Errorf("%w: %d", ErrBadTierHint, *hint)
		}
		divisions = types.DivisionsForTier(*hint)
	}

	filled, flags, confidence, err := s.imputer.Impute(athlete, divisions)
	if err != nil {
		metrics.RecordEvaluationError()
		metrics.RecordErrorByComponent("service", "imputation")
		return prepared{}, fmt.Errorf("impute combine metrics: %w", err)
	}
	if n := flags.Count(); n > 0 {
		metrics.RecordImputedFields(n)
	}

	feats := s.deriver.Derive(filled)

	return prepared{
		athlete:    filled,
		flags:      flags,
		confidence: confidence,
		vector:     derive.Vector(filled, feats),
	}, nil
}

// classifyWithRetry asks the classifier, retrying transient outages a
// bounded number of times with a linear pause.
func (s *Service) classifyWithRetry(ctx context.Context, vector map[string]float64) (model.TierPrediction, error) {
	var pred model.TierPrediction
	var err error

	for attempt := 1; attempt <= s.classifierTries; attempt++ {
		if attempt > 1 {
			metrics.RecordClassifierRetry()
			select {
			case <-ctx.Done():
				return model.TierPrediction{}, err
			case <-time.After(time.Duration(attempt-1) * s.classifierPause):
			}
		}

		pred, err = s.classifier.Classify(ctx, vector)
		if err == nil {
			return pred, nil
		}
		if !errors.Is(err, classify.ErrUnavailable) {
			return model.TierPrediction{}, err
		}
		s.logger.Warn(ctx, "classifier attempt failed",
			logger.Int("attempt", attempt),
			logger.Error(err),
		)
	}

	return model.TierPrediction{}, err
}

// solve resolves the target and candidate set, then runs the solver on
// the already-imputed athlete.
func (s *Service) solve(ctx context.Context, athlete model.Athlete, predicted types.Tier, req EvaluateRequest) (*model.WhatIf, error) {
	target, ok := resolveTarget(req.Target, predicted)
	if !ok {
		return &model.WhatIf{
			TargetTier:  predicted,
			TargetLabel: predicted.Label(),
			Reason:      reasonTopTier,
		}, nil
	}

	candidates := req.Candidates
	if len(candidates) == 0 {
		candidates = s.candidatesFor(athlete.Position)
	}

	metrics.RecordWhatIfSearch()
	result, err := s.solver.Solve(ctx, athlete, target, candidates, req.Threshold)
	if err != nil {
		return nil, err
	}

	probes := 0
	for _, c := range result.Candidates {
		probes += c.Probes
	}
	metrics.RecordWhatIfProbes(probes)
	if result.Best != nil {
		metrics.RecordWhatIfOutcome(metrics.OutcomeFound)
	} else {
		metrics.RecordWhatIfOutcome(metrics.OutcomeExhausted)
	}

	return &result, nil
}

// resolveTarget picks the explicit target or the next tier above the
// prediction. ok is false when the athlete already sits at the top and
// no explicit target was given.
func resolveTarget(explicit *types.Tier, predicted types.Tier) (types.Tier, bool) {
	if explicit != nil {
		return *explicit, true
	}
	return predicted.Next()
}

// candidatesFor returns the configured candidate set for a position,
// falling back to the built-in defaults.
func (s *Service) candidatesFor(pos types.Position) []whatif.Candidate {
	if c, ok := s.candidates[pos]; ok && len(c) > 0 {
		return c
	}
	return whatif.DefaultCandidates(pos)
}

// SeenAndRecord atomically checks whether a submission id was seen and
// records it if not. Returns true if it was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordDuplicateSubmission()
	}
	return seen
}

// Unrecord removes a submission id from the seen set, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the number of submission ids the deduper tracks.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue hands a submission to the evaluation workers.
// Returns false when the queue is full or closed.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	return s.queue.Enqueue(ctx, sub)
}

// TopN returns the best n board entries.
func (s *Service) TopN(ctx context.Context, n int) ([]repository.Entry, error) {
	return s.board.TopN(ctx, n)
}

// Rank returns the board entry for one athlete.
func (s *Service) Rank(ctx context.Context, athleteID string) (repository.Entry, error) {
	return s.board.Rank(ctx, athleteID)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":        s.started,
		"classifier":     s.classifierName,
		"queue_capacity": s.queueCapacity,
		"dedupe_size":    s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		stats["workers"] = s.pool.Size()
		stats["queue_length"] = s.queue.Len(ctx)
		stats["board_athletes"] = s.board.Count(ctx)
		stats["dedupe_entries"] = s.deduper.Size()
	}

	return stats
}
