package presetgen

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/gatekeeper/internal/domain/preset"
	"github.com/okian/gatekeeper/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
	presetFilePermission = 0600
)

// Run executes the complete preset generation flow.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting preset generation",
		logger.String("style", config.Style),
		logger.Int("tracks", config.NumTracks),
		logger.Int("workers", config.Workers),
		logger.Any("submit", config.Submit),
		logger.Any("evaluate", config.Evaluate))

	// Generate one extra entry when a held-out evaluation is requested.
	total := config.NumTracks
	if config.Evaluate {
		config.NumTracks++
	}

	entries, err := generateEntries(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("fingerprint generation failed: %w", err)
	}

	var holdout preset.Entry
	if config.Evaluate {
		holdout = entries[len(entries)-1]
		entries = entries[:total]
	}

	p := preset.Preset{
		Name:    config.Style + "-reference",
		Entries: entries,
	}

	if err := savePresetToFile(ctx, config, p); err != nil {
		logger.Get().Warn(ctx, "failed to save preset to file", logger.Error(err))
	}

	if config.Submit {
		if err := checkServiceHealth(ctx, config); err != nil {
			return fmt.Errorf("service health check failed: %w", err)
		}

		report, err := submitPreset(ctx, config, p)
		if err != nil {
			return fmt.Errorf("preset submission failed: %w", err)
		}
		stats.ProfileID = report.ProfileID
		stats.Accepted = len(report.Accepted)
		stats.Rejected = len(report.Rejected)

		if config.Evaluate {
			score, err := evaluateHoldout(ctx, config, report.ProfileID, holdout)
			if err != nil {
				return fmt.Errorf("holdout evaluation failed: %w", err)
			}
			stats.HoldoutScore = score
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "preset generation completed successfully")
	return nil
}

// savePresetToFile writes the preset as indented JSON.
func savePresetToFile(ctx context.Context, config *Config, p preset.Preset) error {
	if len(p.Entries) == 0 {
		return fmt.Errorf("no entries to save")
	}

	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = p.Name + "_" + timestamp + ".json"
	}

	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}
	if err := os.WriteFile(filename, data, presetFilePermission); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	logger.Get().Info(ctx, "preset saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final run statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("tracksGenerated", stats.TracksGenerated),
		logger.Int("accepted", stats.Accepted),
		logger.Int("rejected", stats.Rejected),
		logger.String("profileID", stats.ProfileID),
		logger.Float64("holdoutScore", stats.HoldoutScore),
		logger.String("duration", stats.Duration.String()))
}
