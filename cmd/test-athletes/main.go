package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/openscout/gridiron/internal/testathletes"
)

// Default configuration constants.
const (
	defaultNumAthletes = 5000
	defaultBatchSize   = 50
	defaultTopN        = 25
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Base URL of the service")
		numAthletes = flag.Int("athletes", defaultNumAthletes, "Number of athletes to generate and submit")
		batchSize   = flag.Int("batch", defaultBatchSize, "Submissions per batch request")
		topN        = flag.Int("top", defaultTopN, "Number of top entries to fetch from the board")
		workers     = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile  = flag.String("output", "", "Output file for generated submissions (default: generated_athletes_TIMESTAMP.json)")
		logFile     = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose     = flag.Bool("verbose", false, "Enable verbose logging")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testathletes.ShowHelp()
		return
	}

	// Setup logging
	if err := testathletes.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testathletes.Config{
		BaseURL:     *baseURL,
		NumAthletes: *numAthletes,
		BatchSize:   *batchSize,
		TopN:        *topN,
		Workers:     *workers,
		Timeout:     *timeout,
		OutputFile:  *outputFile,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	// Run the test
	if err := testathletes.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
