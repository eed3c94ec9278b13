package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openscout/gridiron/internal/adapters/http/api"
	"github.com/openscout/gridiron/internal/adapters/repository"
	service "github.com/openscout/gridiron/internal/app"
	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/internal/domain/whatif"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing
type mockDeduper struct {
	seen map[string]bool
}

func (m *mockDeduper) SeenAndRecord(ctx context.Context, id string) bool {
	if m.seen == nil {
		m.seen = make(map[string]bool)
	}
	if m.seen[id] {
		return true
	}
	m.seen[id] = true
	return false
}

func (m *mockDeduper) Unrecord(ctx context.Context, id string) {
	if m.seen != nil {
		delete(m.seen, id)
	}
}

func (m *mockDeduper) Size() int64 {
	return int64(len(m.seen))
}

type mockQueue struct {
	failAfter int // accept this many, then refuse; negative means accept all
	enqueued  []model.Submission
}

func (m *mockQueue) Enqueue(ctx context.Context, sub model.Submission) bool {
	if m.failAfter >= 0 && len(m.enqueued) >= m.failAfter {
		return false
	}
	m.enqueued = append(m.enqueued, sub)
	return true
}

type mockEvaluator struct {
	lastReq    *service.EvaluateRequest
	eval       model.Evaluation
	evalErr    error
	whatIf     model.WhatIf
	whatIfErr  error
	evalCalls  int
	whatIfCall int
}

func (m *mockEvaluator) EvaluateAthlete(ctx context.Context, req service.EvaluateRequest) (model.Evaluation, error) {
	m.lastReq = &req
	m.evalCalls++
	if m.evalErr != nil {
		return model.Evaluation{}, m.evalErr
	}
	return m.eval, nil
}

func (m *mockEvaluator) WhatIf(ctx context.Context, req service.EvaluateRequest) (model.WhatIf, error) {
	m.lastReq = &req
	m.whatIfCall++
	if m.whatIfErr != nil {
		return model.WhatIf{}, m.whatIfErr
	}
	return m.whatIf, nil
}

type mockBoard struct {
	topN    []api.Entry
	rank    api.Entry
	rankErr error
	topNErr error
}

func (m *mockBoard) TopN(ctx context.Context, n int) ([]api.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockBoard) Rank(ctx context.Context, athleteID string) (api.Entry, error) {
	if m.rankErr != nil {
		return api.Entry{}, m.rankErr
	}
	return m.rank, nil
}

type mockStatsProvider struct {
	stats map[string]any
}

func (m *mockStatsProvider) GetStats() map[string]any {
	return m.stats
}

func newMockDeps() *mockDependencies {
	return &mockDependencies{
		dedupe:    &mockDeduper{},
		queue:     &mockQueue{failAfter: -1},
		evaluator: &mockEvaluator{},
		board:     &mockBoard{},
	}
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := newMockDeps()
		deps.evaluator.eval = model.Evaluation{EvaluationID: "eval-1", AthleteID: "qb-1"}
		statsProvider := &mockStatsProvider{stats: map[string]any{"started": true}}
		server := api.NewServer(deps, statsProvider, 100)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"ok"`)
			})

			Convey("And metrics endpoint should serve the Prometheus registry", func() {
				req := httptest.NewRequest("GET", "/metrics", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.Len(), ShouldBeGreaterThan, 0)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And evaluations endpoint should be accessible", func() {
				body := `{"athlete_id": "qb-1", "position": "qb"}`
				req := httptest.NewRequest("POST", "/api/v1/evaluations", strings.NewReader(body))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And batch endpoint should be accessible", func() {
				body := `{"submissions": [{"submission_id": "s-1", "athlete": {"athlete_id": "qb-1", "position": "qb"}}]}`
				req := httptest.NewRequest("POST", "/api/v1/evaluations/batch", strings.NewReader(body))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusAccepted)
			})

			Convey("And whatif endpoint should be accessible", func() {
				body := `{"athlete_id": "qb-1", "position": "qb", "target_division": "Power 5"}`
				req := httptest.NewRequest("POST", "/api/v1/whatif", strings.NewReader(body))
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And board endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/api/v1/board?limit=10", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And rank endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/api/v1/rank/test-id", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And unregistered paths should 404", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})

			Convey("And dashboard endpoint should serve HTML with refresh control", func() {
				req := httptest.NewRequest("GET", "/dashboard", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, "id=\"refresh-interval\"")
				So(body, ShouldContainSubstring, "id=\"refresh-control\"")
			})
		})
	})
}

func TestEvaluationsHandler_HandlePostEvaluation(t *testing.T) {
	Convey("Given an evaluations handler", t, func() {
		deps := newMockDeps()
		handler := api.NewEvaluationsHandler(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/api/v1/evaluations", strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.HandlePostEvaluation(w, req)
			return w
		}

		Convey("When handling a request with every knob set", func() {
			deps.evaluator.eval = model.Evaluation{
				EvaluationID: "eval-42",
				AthleteID:    "qb-1",
				Position:     types.QB,
			}
			w := post(`{
				"athlete_id": "qb-1",
				"name": "Sam Deluca",
				"position": "qb",
				"senior_ypg": 120,
				"tier_hint": "FCS",
				"target_division": "Power 5",
				"include_what_if": true,
				"probability_threshold": 0.7,
				"candidates": [
					{"field": "senior_ypg", "min": 50, "max": 500, "step": 5, "direction": "higher_better"}
				]
			}`)

			Convey("Then it should return the evaluation", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var eval model.Evaluation
				So(json.NewDecoder(w.Body).Decode(&eval), ShouldBeNil)
				So(eval.EvaluationID, ShouldEqual, "eval-42")
			})

			Convey("And the service request should carry the resolved knobs", func() {
				So(deps.evaluator.lastReq, ShouldNotBeNil)
				got := *deps.evaluator.lastReq
				So(got.Athlete.ID, ShouldEqual, "qb-1")
				So(got.Athlete.SeniorYPG, ShouldNotBeNil)
				So(*got.Athlete.SeniorYPG, ShouldEqual, 120)
				So(got.TierHint, ShouldNotBeNil)
				So(*got.TierHint, ShouldEqual, types.TierFCS)
				So(got.Target, ShouldNotBeNil)
				So(*got.Target, ShouldEqual, types.TierPowerFive)
				So(got.IncludeWhatIf, ShouldBeTrue)
				So(got.Threshold, ShouldEqual, 0.7)
				So(got.Candidates, ShouldHaveLength, 1)
				So(got.Candidates[0].Field, ShouldEqual, "senior_ypg")
			})
		})

		Convey("When the tier hint label is unknown", func() {
			w := post(`{"athlete_id": "qb-1", "position": "qb", "tier_hint": "D7"}`)

			Convey("Then it should reject the request before the pipeline runs", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "bad_request")
				So(resp.Detail, ShouldContainSubstring, "tier_hint")
				So(deps.evaluator.evalCalls, ShouldEqual, 0)
			})
		})

		Convey("When the target division label is unknown", func() {
			w := post(`{"athlete_id": "qb-1", "position": "qb", "target_division": "SEC"}`)

			Convey("Then it should reject the request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Detail, ShouldContainSubstring, "target_division")
			})
		})

		Convey("When the body is not JSON", func() {
			w := post(`{invalid json`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the pipeline rejects the athlete", func() {
			deps.evaluator.evalErr = fmt.Errorf("validate athlete: %w", model.ErrInvalidPosition)
			w := post(`{"athlete_id": "k-1", "position": "kicker"}`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "bad_request")
			})
		})

		Convey("When the classifier is unavailable", func() {
			deps.evaluator.evalErr = fmt.Errorf("classify athlete: %w", classify.ErrUnavailable)
			w := post(`{"athlete_id": "qb-1", "position": "qb"}`)

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "classifier_unavailable")
			})
		})

		Convey("When the pipeline fails for an unknown reason", func() {
			deps.evaluator.evalErr = errors.New("board write failed")
			w := post(`{"athlete_id": "qb-1", "position": "qb"}`)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "internal_error")
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/api/v1/evaluations", nil)
			w := httptest.NewRecorder()
			handler.HandlePostEvaluation(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestBatchHandler_HandlePostBatch(t *testing.T) {
	Convey("Given a batch intake handler", t, func() {
		deps := newMockDeps()
		handler := api.NewBatchHandler(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/api/v1/evaluations/batch", strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.HandlePostBatch(w, req)
			return w
		}

		Convey("When submitting two fresh athletes", func() {
			w := post(`{"submissions": [
				{"submission_id": "s-1", "athlete": {"athlete_id": "qb-1", "position": "qb"}},
				{"submission_id": "s-2", "athlete": {"athlete_id": "wr-1", "position": "wr"}}
			]}`)

			Convey("Then both should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp batchResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Accepted, ShouldEqual, 2)
				So(resp.Results, ShouldHaveLength, 2)
				So(resp.Results[0].Status, ShouldEqual, "accepted")
				So(resp.Results[0].SubmissionID, ShouldEqual, "s-1")
				So(resp.Results[0].AthleteID, ShouldEqual, "qb-1")
				So(resp.Results[1].Status, ShouldEqual, "accepted")
			})

			Convey("And both should reach the queue", func() {
				So(deps.queue.enqueued, ShouldHaveLength, 2)
				So(deps.queue.enqueued[0].SubmissionID, ShouldEqual, "s-1")
				So(deps.queue.enqueued[1].Athlete.ID, ShouldEqual, "wr-1")
			})
		})

		Convey("When the same submission id appears twice", func() {
			w := post(`{"submissions": [
				{"submission_id": "s-1", "athlete": {"athlete_id": "qb-1", "position": "qb"}},
				{"submission_id": "s-1", "athlete": {"athlete_id": "qb-1", "position": "qb"}}
			]}`)

			Convey("Then the second should be a duplicate", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp batchResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Accepted, ShouldEqual, 1)
				So(resp.Results[0].Status, ShouldEqual, "accepted")
				So(resp.Results[1].Status, ShouldEqual, "duplicate")
				So(deps.queue.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When a submission arrives without an id", func() {
			w := post(`{"submissions": [
				{"athlete": {"athlete_id": "rb-1", "position": "rb"}}
			]}`)

			Convey("Then the server should mint one and echo it back", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp batchResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Results[0].Status, ShouldEqual, "accepted")
				So(resp.Results[0].SubmissionID, ShouldHaveLength, 36)
				So(deps.queue.enqueued[0].SubmissionID, ShouldEqual, resp.Results[0].SubmissionID)
			})
		})

		Convey("When one athlete is invalid", func() {
			w := post(`{"submissions": [
				{"submission_id": "s-1", "athlete": {"athlete_id": "k-1", "position": "kicker"}},
				{"submission_id": "s-2", "athlete": {"athlete_id": "qb-1", "position": "qb"}}
			]}`)

			Convey("Then only the valid one should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp batchResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Accepted, ShouldEqual, 1)
				So(resp.Results[0].Status, ShouldEqual, "invalid")
				So(resp.Results[0].Detail, ShouldContainSubstring, "unsupported position")
				So(resp.Results[1].Status, ShouldEqual, "accepted")
				So(deps.queue.enqueued, ShouldHaveLength, 1)
			})
		})

		Convey("When the queue refuses the whole batch", func() {
			deps.queue.failAfter = 0
			w := post(`{"submissions": [
				{"submission_id": "s-1", "athlete": {"athlete_id": "qb-1", "position": "qb"}}
			]}`)

			Convey("Then it should surface backpressure", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "backpressure")
			})

			Convey("And the submission id should be free for a retry", func() {
				So(deps.dedupe.seen["s-1"], ShouldBeFalse)
			})
		})

		Convey("When the queue fills mid-batch", func() {
			deps.queue.failAfter = 1
			w := post(`{"submissions": [
				{"submission_id": "s-1", "athlete": {"athlete_id": "qb-1", "position": "qb"}},
				{"submission_id": "s-2", "athlete": {"athlete_id": "wr-1", "position": "wr"}}
			]}`)

			Convey("Then the tail should be backpressured but the batch acknowledged", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				var resp batchResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Accepted, ShouldEqual, 1)
				So(resp.Results[0].Status, ShouldEqual, "accepted")
				So(resp.Results[1].Status, ShouldEqual, "backpressure")
				So(deps.dedupe.seen["s-2"], ShouldBeFalse)
			})
		})

		Convey("When the batch is empty", func() {
			w := post(`{"submissions": []}`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			w := post(`{invalid`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/api/v1/evaluations/batch", nil)
			w := httptest.NewRecorder()
			handler.HandlePostBatch(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestWhatIfHandler_HandlePostWhatIf(t *testing.T) {
	Convey("Given a what-if handler", t, func() {
		deps := newMockDeps()
		handler := api.NewWhatIfHandler(deps)

		post := func(body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", "/api/v1/whatif", strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.HandlePostWhatIf(w, req)
			return w
		}

		Convey("When asking for a specific target division", func() {
			deps.evaluator.whatIf = model.WhatIf{
				TargetTier:  types.TierPowerFive,
				TargetLabel: "Power 5",
			}
			w := post(`{"athlete_id": "qb-1", "position": "qb", "target_division": "Power 5"}`)

			Convey("Then it should return the solver result", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var result model.WhatIf
				So(json.NewDecoder(w.Body).Decode(&result), ShouldBeNil)
				So(result.TargetLabel, ShouldEqual, "Power 5")
			})

			Convey("And the target should be resolved from the label", func() {
				So(deps.evaluator.lastReq, ShouldNotBeNil)
				So(deps.evaluator.lastReq.Target, ShouldNotBeNil)
				So(*deps.evaluator.lastReq.Target, ShouldEqual, types.TierPowerFive)
				So(deps.evaluator.whatIfCall, ShouldEqual, 1)
			})
		})

		Convey("When no target is given", func() {
			w := post(`{"athlete_id": "qb-1", "position": "qb"}`)

			Convey("Then the service should pick the target itself", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.evaluator.lastReq, ShouldNotBeNil)
				So(deps.evaluator.lastReq.Target, ShouldBeNil)
			})
		})

		Convey("When the candidate configuration is malformed", func() {
			deps.evaluator.whatIfErr = fmt.Errorf("what-if search: %w", whatif.ErrBadCandidate)
			w := post(`{"athlete_id": "qb-1", "position": "qb", "candidates": [{"field": "senior_ypg", "min": 500, "max": 50, "step": 5, "direction": "higher_better"}]}`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is not JSON", func() {
			w := post(`not json`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When handling a non-POST request", func() {
			req := httptest.NewRequest("GET", "/api/v1/whatif", nil)
			w := httptest.NewRecorder()
			handler.HandlePostWhatIf(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestBoardHandler_HandleGetBoard(t *testing.T) {
	Convey("Given a board handler", t, func() {
		board := &mockBoard{
			topN: []api.Entry{
				{Rank: 1, AthleteID: "qb-1", Position: types.QB, Tier: types.TierPowerFive, Score: 97.5, EvalID: "eval-1"},
				{Rank: 2, AthleteID: "wr-1", Position: types.WR, Tier: types.TierFCS, Score: 88.0, EvalID: "eval-2"},
				{Rank: 3, AthleteID: "rb-1", Position: types.RB, Tier: types.TierD2, Score: 71.2, EvalID: "eval-3"},
			},
		}
		handler := api.NewBoardHandler(board, 100)

		get := func(target string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("GET", target, nil)
			w := httptest.NewRecorder()
			handler.HandleGetBoard(w, req)
			return w
		}

		Convey("When requesting the top two", func() {
			w := get("/api/v1/board?limit=2")

			Convey("Then it should return the first two entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var entries []api.Entry
				So(json.NewDecoder(w.Body).Decode(&entries), ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].AthleteID, ShouldEqual, "qb-1")
				So(entries[1].AthleteID, ShouldEqual, "wr-1")
			})

			Convey("And the rows should use wire field names", func() {
				body := w.Body.String()
				So(body, ShouldContainSubstring, `"athlete_id":"qb-1"`)
				So(body, ShouldContainSubstring, `"evaluation_id":"eval-1"`)
			})
		})

		Convey("When no limit is specified", func() {
			w := get("/api/v1/board")

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit is not positive", func() {
			w := get("/api/v1/board?limit=0")

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the configured maximum", func() {
			w := get("/api/v1/board?limit=101")

			Convey("Then it should return limit exceeded", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the board rejects the limit", func() {
			board.topNErr = fmt.Errorf("top 0: %w", repository.ErrInvalidLimit)
			w := get("/api/v1/board?limit=10")

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the board fails", func() {
			board.topNErr = errors.New("treap poisoned")
			w := get("/api/v1/board?limit=10")

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When handling a non-GET request", func() {
			req := httptest.NewRequest("POST", "/api/v1/board?limit=10", nil)
			w := httptest.NewRecorder()
			handler.HandleGetBoard(w, req)

			Convey("Then it should return not found status", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRankHandler_HandleGetRank(t *testing.T) {
	Convey("Given a rank handler", t, func() {
		board := &mockBoard{
			rank: api.Entry{Rank: 5, AthleteID: "qb-1", Position: types.QB, Tier: types.TierFCS, Score: 85.0, EvalID: "eval-9"},
		}
		handler := api.NewRankHandler(board)

		Convey("When requesting rank for an evaluated athlete", func() {
			req := httptest.NewRequest("GET", "/api/v1/rank/qb-1", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, req)

			Convey("Then it should return the board entry", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "application/json")

				var entry api.Entry
				So(json.NewDecoder(w.Body).Decode(&entry), ShouldBeNil)
				So(entry.AthleteID, ShouldEqual, "qb-1")
				So(entry.Rank, ShouldEqual, 5)
				So(entry.Score, ShouldEqual, 85.0)
			})
		})

		Convey("When the athlete has never been evaluated", func() {
			board.rankErr = repository.ErrNotFound
			req := httptest.NewRequest("GET", "/api/v1/rank/ghost", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, req)

			Convey("Then it should return not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Error, ShouldEqual, "not_found")
			})
		})

		Convey("When the board fails", func() {
			board.rankErr = errors.New("treap poisoned")
			req := httptest.NewRequest("GET", "/api/v1/rank/qb-1", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, req)

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})

		Convey("When the athlete id is missing from the path", func() {
			req := httptest.NewRequest("GET", "/api/v1/rank/", nil)
			w := httptest.NewRecorder()
			handler.HandleGetRank(w, req)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		mockStats := &mockStatsProvider{
			stats: map[string]any{
				"board_athletes": 42,
				"queue_length":   7,
			},
		}
		handler := api.NewStatsHandler(mockStats)

		Convey("When handling stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()
			handler.HandleStats(w, req)

			Convey("Then it should return stats", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]any
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["board_athletes"], ShouldEqual, 42)
				So(response["queue_length"], ShouldEqual, 7)
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()
			handler.HandleHealth(w, req)

			Convey("Then it should report ok", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})
	})
}

// Mock dependencies that implements the Dependencies interface
type mockDependencies struct {
	dedupe    *mockDeduper
	queue     *mockQueue
	evaluator *mockEvaluator
	board     *mockBoard
}

func (m *mockDependencies) SeenAndRecord(ctx context.Context, id string) bool {
	return m.dedupe.SeenAndRecord(ctx, id)
}

func (m *mockDependencies) Unrecord(ctx context.Context, id string) {
	m.dedupe.Unrecord(ctx, id)
}

func (m *mockDependencies) Size() int64 {
	return m.dedupe.Size()
}

func (m *mockDependencies) EvaluateAthlete(ctx context.Context, req service.EvaluateRequest) (model.Evaluation, error) {
	return m.evaluator.EvaluateAthlete(ctx, req)
}

func (m *mockDependencies) WhatIf(ctx context.Context, req service.EvaluateRequest) (model.WhatIf, error) {
	return m.evaluator.WhatIf(ctx, req)
}

func (m *mockDependencies) Enqueue(ctx context.Context, sub model.Submission) bool {
	return m.queue.Enqueue(ctx, sub)
}

func (m *mockDependencies) TopN(ctx context.Context, n int) ([]api.Entry, error) {
	return m.board.TopN(ctx, n)
}

func (m *mockDependencies) Rank(ctx context.Context, athleteID string) (api.Entry, error) {
	return m.board.Rank(ctx, athleteID)
}

// Local types for testing
type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

type batchItemResult struct {
	SubmissionID string `json:"submission_id"`
	AthleteID    string `json:"athlete_id"`
	Status       string `json:"status"`
	Detail       string `json:"detail"`
}

type batchResponse struct {
	Accepted int               `json:"accepted"`
	Results  []batchItemResult `json:"results"`
}
