package testathletes

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/openscout/gridiron/internal/domain/model"
)

// retrieveRanks retrieves board positions for the submitted athletes
// concurrently.
func retrieveRanks(ctx context.Context, config *Config, submissions []model.Submission, stats *Stats) ([]Entry, error) {
	log.Printf("🏆 Retrieving ranks for %d athletes with %d workers...", len(submissions), config.Workers)

	client := newHTTPClient(config.Timeout)

	athleteIDs := make([]string, len(submissions))
	for i, sub := range submissions {
		athleteIDs[i] = sub.Athlete.Key()
	}

	// Results storage
	ranks := make([]Entry, len(athleteIDs))
	var (
		retrieved int64
		failed    int64
	)

	// Progress reporting off the shared counters
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
				ret := atomic.LoadInt64(&retrieved)
				fail := atomic.LoadInt64(&failed)
				if config.Verbose {
					log.Printf("📊 Rank progress: %d/%d retrieved (success: %d, failed: %d)",
						ret+fail, len(athleteIDs), ret, fail)
				} else {
					fmt.Printf("\r🏆 Ranks: %d/%d retrieved (success: %d, failed: %d)",
						ret+fail, len(athleteIDs), ret, fail)
				}
			}
		}
	}()

	// Create worker pool
	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	// Start workers
	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					athleteID := athleteIDs[index]
					entry, err := retrieveSingleRank(ctx, client, config.BaseURL, athleteID)

					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("⚠️  Failed to get rank for %s: %v", athleteID, err)
						}
					} else {
						ranks[index] = entry
						atomic.AddInt64(&retrieved, 1)
					}
				}
			}
		}()
	}

	// Send athlete indices to workers
	go func() {
		defer close(indexChan)
		for i := range athleteIDs {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
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

	// Filter out empty entries (failed retrievals)
	validRanks := make([]Entry, 0, len(ranks))
	for _, entry := range ranks {
		if entry.AthleteID != "" { // Empty AthleteID indicates failed retrieval
			validRanks = append(validRanks, entry)
		}
	}

	// Update stats
	stats.RanksRetrieved = len(validRanks)

	log.Printf(`✅ Rank retrieval completed:
   Retrieved: %d
   Failed: %d
`, len(validRanks), int(atomic.LoadInt64(&failed)))

	return validRanks, nil
}

// retrieveSingleRank retrieves the board entry for a single athlete.
func retrieveSingleRank(ctx context.Context, client *HTTPClient, baseURL, athleteID string) (Entry, error) {
	url := fmt.Sprintf("%s/api/v1/rank/%s", baseURL, athleteID)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return Entry{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return Entry{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var entry Entry
	if err := unmarshalJSON(body, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to parse response: %w", err)
	}

	return entry, nil
}

// getBoard retrieves the top N prospect board entries.
func getBoard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("🥇 Getting top %d board entries...", config.TopN)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/api/v1/board?limit=%d", config.BaseURL, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var board []Entry
	if err := unmarshalJSON(body, &board); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.BoardEntries = len(board)
	log.Printf("✅ Retrieved %d board entries", len(board))

	return board, nil
}
