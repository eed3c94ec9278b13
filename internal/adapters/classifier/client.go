// Package classifier provides the HTTP adapter for a remote
// model-serving endpoint.
//
// The wire contract mirrors the serving API: POST /predict with a
// feature map returns a discrete tier or a probability vector over the
// four tiers; GET /schema declares the feature columns the deployed
// model expects. Vectors are reshaped to that schema before every
// query so the adapter survives model redeployments with drifted
// feature sets.
package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openscout/gridiron/internal/domain/classify"
	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/internal/domain/types"
	"github.com/openscout/gridiron/pkg/logger"
	"github.com/openscout/gridiron/pkg/metrics"
)

// Default client configuration constants.
const (
	defaultTimeout   = 10 * time.Second
	defaultSchemaTTL = 5 * time.Minute
	defaultNullValue = 0.0

	predictPath = "/predict"
	schemaPath  = "/schema"
)

// Client queries a remote model service over HTTP. It implements
// classify.Classifier.
type Client struct {
	baseURL string
	client  *http.Client
	log     logger.Logger

	schemaTTL     time.Duration
	nullValue     float64
	staticColumns []string

	cache schemaCache
}

// New creates a client for the model service at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: defaultTimeout},
		log:       logger.Named("classifier"),
		schemaTTL: defaultSchemaTTL,
		nullValue: defaultNullValue,
	}

	for _, opt := range opts {
		opt(c)
	}

	if len(c.staticColumns) > 0 {
		c.setStaticSchema(c.staticColumns, c.nullValue)
	}

	return c
}

// Wire types (mirror the serving API).

type predictRequest struct {
	Features map[string]float64 `json:"features"`
}

// envelope is the standard response wrapper of the serving API.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *string         `json:"error"`
}

type predictPayload struct {
	Tier          *int      `json:"tier"`
	Probabilities []float64 `json:"probabilities"`
}

type schemaPayload struct {
	Columns   []string `json:"columns"`
	NullValue *float64 `json:"null_value"`
}

// Classify sends the padded feature vector to the model service.
// Every failure mode maps to classify.ErrUnavailable; the caller owns
// the retry policy.
func (c *Client) Classify(ctx context.Context, features map[string]float64) (model.TierPrediction, error) {
	start := time.Now()
	padded := c.pad(ctx, features)

	var payload predictPayload
	err := c.post(ctx, predictPath, predictRequest{Features: padded}, &payload)
	metrics.RecordClassifierLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordClassifierQuery(metrics.BackendRemote, metrics.OutcomeError)
		metrics.RecordErrorByComponent("classifier", "query")
		return model.TierPrediction{}, err
	}

	pred, err := payload.prediction()
	if err != nil {
		metrics.RecordClassifierQuery(metrics.BackendRemote, metrics.OutcomeError)
		metrics.RecordErrorByComponent("classifier", "malformed")
		return model.TierPrediction{}, err
	}

	metrics.RecordClassifierQuery(metrics.BackendRemote, metrics.OutcomeOK)
	return pred, nil
}

// prediction converts the wire payload to the domain type. The
// canonical tier labels are applied here; the service never sends
// label strings.
func (p predictPayload) prediction() (model.TierPrediction, error) {
	if len(p.Probabilities) > 0 {
		if len(p.Probabilities) != types.NumTiers {
			return model.TierPrediction{}, fmt.Errorf("%w: got %d probabilities, want %d",
				classify.ErrUnavailable, len(p.Probabilities), types.NumTiers)
		}
		tier := argmax(p.Probabilities)
		if p.Tier != nil && types.Tier(*p.Tier).Valid() {
			tier = types.Tier(*p.Tier)
		}
		return model.TierPrediction{Tier: tier, Label: tier.Label(), Probabilities: p.Probabilities}, nil
	}

	if p.Tier == nil || !types.Tier(*p.Tier).Valid() {
		return model.TierPrediction{}, fmt.Errorf("%w: response carried neither tier nor probabilities",
			classify.ErrUnavailable)
	}
	tier := types.Tier(*p.Tier)
	return model.TierPrediction{Tier: tier, Label: tier.Label()}, nil
}

func argmax(probs []float64) types.Tier {
	best := 0
	for i, p := range probs {
		if p >= probs[best] {
			best = i
		}
	}
	return types.Tier(best)
}

// post sends a JSON request and decodes the enveloped payload.
func (c *Client) post(ctx context.Context, path string, request, out interface{}) error {
	body, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// get fetches and decodes the enveloped payload.
func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", classify.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", classify.ErrUnavailable, resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: decode response: %v", classify.ErrUnavailable, err)
	}
	if !env.Success {
		msg := "unknown error"
		if env.Error != nil {
			msg = *env.Error
		}
		return fmt.Errorf("%w: %s", classify.ErrUnavailable, msg)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: decode payload: %v", classify.ErrUnavailable, err)
	}
	return nil
}
