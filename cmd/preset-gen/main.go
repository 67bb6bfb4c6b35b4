package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/gatekeeper/internal/presetgen"
)

// Default configuration constants.
const (
	defaultNumTracks  = 10
	defaultTimeout    = 30 * time.Second
	defaultRunTimeout = 5 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9090", "Base URL of the service")
		style      = flag.String("style", "techno", "Sound style to synthesize")
		numTracks  = flag.Int("tracks", defaultNumTracks, "Number of fingerprints to generate")
		workers    = flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile = flag.String("output", "", "Output file for the preset (default: <style>-reference_TIMESTAMP.json)")
		logFile    = flag.String("log", "", "Log file for run output (default: presetgen_TIMESTAMP.log)")
		submit     = flag.Bool("submit", false, "Submit the generated preset to the service")
		evaluate   = flag.Bool("evaluate", false, "Evaluate a held-out track against the built profile (implies -submit)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		presetgen.ShowHelp()
		return
	}

	// Setup logging
	if err := presetgen.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	// Create run configuration
	config := &presetgen.Config{
		BaseURL:    *baseURL,
		Style:      *style,
		NumTracks:  *numTracks,
		Workers:    *workers,
		Timeout:    *timeout,
		OutputFile: *outputFile,
		LogFile:    *logFile,
		Submit:     *submit || *evaluate,
		Evaluate:   *evaluate,
		Verbose:    *verbose,
	}

	// Run the generator
	if err := presetgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Run failed: " + err.Error() + "\n")
		return
	}
}
