package testathletes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openscout/gridiron/internal/domain/model"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := marshalJSON(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// marshalJSON marshals a struct to JSON
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// unmarshalJSON unmarshals JSON to a struct
func unmarshalJSON(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// batchRequest wraps submissions for the batch intake endpoint.
type batchRequest struct {
	Submissions []model.Submission `json:"submissions"`
}

// batchTally is the per-batch outcome breakdown. Every counter is an
// item count; a refused or unparseable batch charges all of its items.
type batchTally struct {
	accepted      int64
	duplicate     int64
	invalid       int64
	backpressured int64
	failed        int64
}

// submitBatches slices the submissions into batches and posts them
// concurrently through the intake endpoint.
func submitBatches(ctx context.Context, config *Config, submissions []model.Submission, stats *Stats) error {
	numBatches := (len(submissions) + config.BatchSize - 1) / config.BatchSize
	log.Printf("📤 Submitting %d athletes in %d batches with %d workers...", len(submissions), numBatches, config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/api/v1/evaluations/batch"

	// Counters for statistics
	var (
		accepted      int64
		duplicate     int64
		invalid       int64
		backpressured int64
		failed        int64
		batches       int64
	)

	// Progress reporting reads the shared counters on a ticker so the
	// workers never touch the clock.
	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	go func() {
		ticker := time.NewTicker(ProgressInterval)
		defer ticker.Stop()
		for {
			select {
			case <-progressCtx.Done():
				return
			case <-ticker.C:
				done := atomic.LoadInt64(&batches)
				acc := atomic.LoadInt64(&accepted)
				bp := atomic.LoadInt64(&backpressured)
				fail := atomic.LoadInt64(&failed)

				if config.Verbose {
					log.Printf("📊 Progress: %d/%d batches (accepted: %d, duplicate: %d, invalid: %d, backpressure: %d, failed: %d)",
						done, numBatches, acc, atomic.LoadInt64(&duplicate), atomic.LoadInt64(&invalid), bp, fail)
				} else {
					fmt.Printf("\r📤 Batches: %d/%d (accepted: %d, backpressure: %d, failed: %d)",
						done, numBatches, acc, bp, fail)
				}
			}
		}
	}()

	// Create worker pool
	batchChan := make(chan []model.Submission, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for batch := range batchChan {
				select {
				case <-ctx.Done():
					return
				default:
					tally := submitSingleBatch(ctx, client, url, batch)

					atomic.AddInt64(&batches, 1)
					atomic.AddInt64(&accepted, tally.accepted)
					atomic.AddInt64(&duplicate, tally.duplicate)
					atomic.AddInt64(&invalid, tally.invalid)
					atomic.AddInt64(&backpressured, tally.backpressured)
					atomic.AddInt64(&failed, tally.failed)
				}
			}
		}()
	}

	// Send batches to workers
	go func() {
		defer close(batchChan)
		for start := 0; start < len(submissions); start += config.BatchSize {
			end := min(start+config.BatchSize, len(submissions))
			select {
			case <-ctx.Done():
				return
			case batchChan <- submissions[start:end]:
			}
		}
	}()

	// Wait for all workers to complete
	wg.Wait()
	stopProgress()

	// Final progress report
	if !config.Verbose {
		fmt.Println() // New line after progress indicator
	}

	// Update stats
	stats.BatchesSubmitted = int(atomic.LoadInt64(&batches))
	stats.Accepted = int(atomic.LoadInt64(&accepted))
	stats.Duplicate = int(atomic.LoadInt64(&duplicate))
	stats.Invalid = int(atomic.LoadInt64(&invalid))
	stats.Backpressured = int(atomic.LoadInt64(&backpressured))
	stats.Failed = int(atomic.LoadInt64(&failed))

	log.Printf(`✅ Batch submission completed:
   Accepted: %d
   Duplicate: %d
   Invalid: %d
   Backpressured: %d
   Failed: %d
`, stats.Accepted, stats.Duplicate, stats.Invalid, stats.Backpressured, stats.Failed)

	return nil
}

// submitSingleBatch posts one batch and tallies the per-item outcomes.
func submitSingleBatch(ctx context.Context, client *HTTPClient, url string, batch []model.Submission) batchTally {
	var tally batchTally

	resp, err := client.Post(ctx, url, batchRequest{Submissions: batch})
	if err != nil {
		tally.failed = int64(len(batch))
		return tally
	}

	body, err := readResponseBody(resp)
	if err != nil {
		tally.failed = int64(len(batch))
		return tally
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack BatchResponse
		if err := unmarshalJSON(body, &ack); err != nil {
			tally.failed = int64(len(batch))
			return tally
		}
		for _, item := range ack.Results {
			switch item.Status {
			case "accepted":
				tally.accepted++
			case "duplicate":
				tally.duplicate++
			case "invalid":
				tally.invalid++
			case "backpressure":
				tally.backpressured++
			default:
				tally.failed++
			}
		}
	case StatusServiceUnavailable:
		// The whole batch was refused under load.
		tally.backpressured = int64(len(batch))
	default:
		tally.failed = int64(len(batch))
	}

	return tally
}
