package testathletes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/openscout/gridiron/internal/domain/model"
	"github.com/openscout/gridiron/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete athlete load test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting gridiron athlete test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("athletes", config.NumAthletes),
		logger.Int("batchSize", config.BatchSize),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate athletes
	submissions, err := generateAthletes(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("athlete generation failed: %w", err)
	}

	// Step 3: Submit batches concurrently
	if err := submitBatches(ctx, config, submissions, stats); err != nil {
		return fmt.Errorf("batch submission failed: %w", err)
	}

	// Step 4: Wait for the intake queue to drain
	if err := waitForDrain(ctx, config); err != nil {
		return fmt.Errorf("queue drain failed: %w", err)
	}

	// Step 5: Retrieve ranks concurrently
	ranks, err := retrieveRanks(ctx, config, submissions, stats)
	if err != nil {
		return fmt.Errorf("rank retrieval failed: %w", err)
	}

	// Step 6: Get the prospect board
	board, err := getBoard(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("board retrieval failed: %w", err)
	}

	// Step 7: Verify results
	if err := verifyResults(ctx, config, ranks, board, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 8: Save submissions to file
	if err := saveSubmissionsToFile(ctx, config, submissions); err != nil {
		logger.Get().Warn(ctx, "failed to save submissions to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("failed to read health response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status %d: %s", resp.StatusCode, string(body))
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// waitForDrain polls the stats endpoint until the intake queue is
// empty, then waits a short settle period for in-flight evaluations
// to land on the board.
func waitForDrain(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "waiting for the intake queue to drain")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/stats"
	deadline := time.Now().Add(DrainTimeout)

	for {
		if time.Now().After(deadline) {
			return fmt.Errorf("queue did not drain within %s", DrainTimeout)
		}

		length, err := queueLength(ctx, client, url)
		if err != nil {
			return fmt.Errorf("stats poll failed: %w", err)
		}
		if length == 0 {
			break
		}

		if config.Verbose {
			logger.Get().Info(ctx, "queue draining", logger.Int("queueLength", length))
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled while draining: %w", ctx.Err())
		case <-time.After(DrainPollInterval):
		}
	}

	logger.Get().Info(ctx, "intake queue drained")

	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled while settling: %w", ctx.Err())
	case <-time.After(SettleDelay):
	}

	return nil
}

// queueLength reads queue_length from the stats payload.
func queueLength(ctx context.Context, client *HTTPClient, url string) (int, error) {
	resp, err := client.Get(ctx, url)
	if err != nil {
		return 0, err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return 0, err
	}

	if resp.StatusCode != StatusOK {
		return 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var payload map[string]any
	if err := unmarshalJSON(body, &payload); err != nil {
		return 0, err
	}

	length, ok := payload["queue_length"].(float64)
	if !ok {
		return 0, fmt.Errorf("stats payload missing queue_length")
	}

	return int(length), nil
}

// saveSubmissionsToFile saves the generated submissions to a JSON file.
func saveSubmissionsToFile(ctx context.Context, config *Config, submissions []model.Submission) error {
	if len(submissions) == 0 {
		return fmt.Errorf("no submissions to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_athletes_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Write submissions to file
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, sub := range submissions {
		jsonData, err := marshalJSON(sub)
		if err != nil {
			return fmt.Errorf("failed to marshal submission %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write submission %d: %w", i, err)
		}

		// Add comma except for last submission
		if i < len(submissions)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var acceptRate, athletesPerSecond float64

	submitted := stats.Accepted + stats.Duplicate + stats.Invalid + stats.Backpressured + stats.Failed
	if submitted > 0 {
		acceptRate = float64(stats.Accepted) / float64(submitted) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		athletesPerSecond = float64(submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("athletesGenerated", stats.AthletesGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("invalid", stats.Invalid),
		logger.Int("backpressured", stats.Backpressured),
		logger.Int("failed", stats.Failed),
		logger.Int("ranksRetrieved", stats.RanksRetrieved),
		logger.Int("boardEntries", stats.BoardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("athletesPerSecond", athletesPerSecond))
}
