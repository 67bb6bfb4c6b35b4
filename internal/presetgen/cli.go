package presetgen

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/gatekeeper/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "presetgen_" + timestamp + ".log"
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

// ShowHelp prints usage information for the preset generator.
func ShowHelp() {
	os.Stdout.WriteString(`Gatekeeper Preset Generator
===========================

Generates style-consistent fingerprint presets and optionally feeds
them to a running gatekeeper service.

Usage:
  go run cmd/preset-gen/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9090")
  -style string
        Sound style to synthesize: techno, ambient, rock, jazz (default "techno")
  -tracks int
        Number of fingerprints to generate (default 10)
  -workers int
        Number of concurrent workers (default CPU cores)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for the preset (default: <style>-reference_TIMESTAMP.json)
  -log string
        Log file for run output (default: presetgen_TIMESTAMP.log)
  -submit
        Submit the generated preset to the service
  -evaluate
        Evaluate a held-out track against the built profile (implies -submit)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Generate a techno preset file only
  go run cmd/preset-gen/main.go -style techno -tracks 12

  # Build a profile on a local service and score a held-out track
  go run cmd/preset-gen/main.go -style ambient -tracks 10 -submit -evaluate

  # Target a remote service
  go run cmd/preset-gen/main.go -submit -url http://device.local:9090
`)
}
