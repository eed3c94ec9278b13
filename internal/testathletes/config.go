package testathletes

import "time"

// Config holds configuration for the athlete load test.
type Config struct {
	BaseURL     string        // Base URL of the service
	NumAthletes int           // Number of athletes to generate
	BatchSize   int           // Submissions per batch request
	TopN        int           // Number of board entries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	OutputFile  string        // Output file for generated submissions
	LogFile     string        // Log file for test output
	Verbose     bool          // Enable verbose logging
}

// Entry mirrors one prospect board row as it appears on the wire.
type Entry struct {
	Rank      int     `json:"rank"`
	AthleteID string  `json:"athlete_id"`
	Name      string  `json:"name,omitempty"`
	Position  string  `json:"position"`
	Tier      int     `json:"tier"`
	Score     float64 `json:"score"`
	EvalID    string  `json:"evaluation_id"`
}

// BatchItemResult mirrors the per-submission outcome in a batch response.
type BatchItemResult struct {
	SubmissionID string `json:"submission_id"`
	AthleteID    string `json:"athlete_id,omitempty"`
	Status       string `json:"status"`
	Detail       string `json:"detail,omitempty"`
}

// BatchResponse mirrors the intake acknowledgement for one batch.
type BatchResponse struct {
	Accepted int               `json:"accepted"`
	Results  []BatchItemResult `json:"results"`
}

// Stats holds test statistics.
type Stats struct {
	AthletesGenerated int
	BatchesSubmitted  int
	Accepted          int
	Duplicate         int
	Invalid           int
	Backpressured     int
	Failed            int
	RanksRetrieved    int
	BoardEntries      int
	StartTime         time.Time
	EndTime           time.Time
	Duration          time.Duration
}
