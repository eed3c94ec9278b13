package testathletes

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/openscout/gridiron/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the athlete test tool.
func ShowHelp() {
	os.Stdout.WriteString(`Gridiron Athlete Test Tool
==========================

A concurrent tool for load-testing the Gridiron evaluation pipeline.
Generates randomized high-school athletes, submits them through the
batch intake endpoint, waits for the queue to drain, then checks the
prospect board and per-athlete ranks against what was submitted.

Usage:
  go run cmd/test-athletes/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:8080")
  -athletes int
        Number of athletes to generate and submit (default 5000)
  -batch int
        Submissions per batch request (default 50)
  -top int
        Number of top entries to fetch from the board (default 25)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated submissions (default: generated_athletes_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-athletes/main.go

  # Test with custom parameters
  go run cmd/test-athletes/main.go -athletes 20000 -workers 16 -url http://localhost:8080

  # Test with verbose output
  go run cmd/test-athletes/main.go -verbose -athletes 1000

  # Test with custom log file
  go run cmd/test-athletes/main.go -athletes 20000 -log my_test.log
`)
}
