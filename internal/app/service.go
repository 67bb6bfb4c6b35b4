// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/gatekeeper/internal/adapters/extraction"
	"github.com/okian/gatekeeper/internal/adapters/repository"
	"github.com/okian/gatekeeper/internal/domain/evaluate"
	"github.com/okian/gatekeeper/internal/domain/extract"
	"github.com/okian/gatekeeper/internal/domain/feature"
	"github.com/okian/gatekeeper/internal/domain/narrative"
	"github.com/okian/gatekeeper/internal/domain/profile"
	"github.com/okian/gatekeeper/internal/domain/types"
	"github.com/okian/gatekeeper/pkg/logger"
	"github.com/okian/gatekeeper/pkg/metrics"
)

// BuildResult reports the outcome of a profile build.
type BuildResult = types.BuildReport

// ProfileInfo summarizes a stored profile without exposing its members.
type ProfileInfo = types.ProfileInfo

// Stats reports runtime counters for monitoring.
type Stats = types.ServiceStats

// Service implements the API dependencies for the gatekeeper system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store     repository.Store
	extractor *extract.Extractor
	pool      *extraction.Pool

	// Configuration
	workerCount   int
	profileTTL    time.Duration
	sweepInterval time.Duration
	maxProfiles   int

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of extraction workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithProfileTTL sets how long a built profile stays available.
func WithProfileTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.profileTTL = ttl
		}
	}
}

// WithSweepInterval sets how often expired profiles are reclaimed.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// WithMaxProfiles caps the number of live profiles.
func WithMaxProfiles(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxProfiles = n
		}
	}
}

// WithStore sets a custom profile store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:   runtime.NumCPU(),
		profileTTL:    time.Hour,
		sweepInterval: time.Minute,
		maxProfiles:   1000,
		stopCh:        make(chan struct{}),
		logger:        nil, // Will be replaced when service starts
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting gatekeeper service...")

	if s.store == nil {
		s.store = repository.NewMemoryStore(ctx,
			repository.WithTTL(s.profileTTL),
			repository.WithSweepInterval(s.sweepInterval),
			repository.WithCapacity(s.maxProfiles),
		)
	}
	s.extractor = extract.New()
	s.pool = extraction.NewPool(s.extractor,
		extraction.WithWorkers(s.workerCount),
		extraction.WithLogger(s.logger.Named("extraction")),
	)

	s.started = true
	s.logger.Info(ctx, "gatekeeper service started",
		logger.Int("workers", s.workerCount),
		logger.Duration("profileTTL", s.profileTTL),
		logger.Int("maxProfiles", s.maxProfiles),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping gatekeeper service...")

	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "gatekeeper service stopped")
}

// BuildProfile analyzes every source, fits a reference profile from the
// usable ones, and stores it under a fresh id.
//
// Sources that fail analysis are dropped, not fatal; they come back in
// BuildResult.Rejected. The build itself fails only when the batch is
// over the track limit or fewer than the minimum number of sources
// survive analysis.
func (s *Service) BuildProfile(ctx context.Context, sources []extraction.Source) (BuildResult, error) {
	if len(sources) > profile.MaxTracks {
		metrics.RecordBuildFailure("too_many_tracks")
		return BuildResult{}, fmt.Errorf("%w: got %d, limit %d", profile.ErrTooManyTracks, len(sources), profile.MaxTracks)
	}

	accepted, rejected := s.pool.Run(ctx, sources)
	if len(accepted) < profile.MinTracks {
		metrics.RecordBuildFailure("insufficient_data")
		s.logger.Warn(ctx, "not enough usable tracks to build a profile",
			logger.Int("submitted", len(sources)),
			logger.Int("usable", len(accepted)),
		)
		return BuildResult{Rejected: rejected},
			fmt.Errorf("%w: %d usable of %d submitted", profile.ErrInsufficientData, len(accepted), len(sources))
	}

	p, err := profile.Fit(accepted)
	if err != nil {
		metrics.RecordBuildFailure("fit")
		return BuildResult{Rejected: rejected}, err
	}

	id := uuid.NewString()
	if err := s.store.Put(ctx, id, p); err != nil {
		metrics.RecordBuildFailure("store")
		return BuildResult{Rejected: rejected}, fmt.Errorf("store profile: %w", err)
	}

	metrics.RecordProfileBuilt()
	s.logger.Info(ctx, "profile built",
		logger.String("profileID", id),
		logger.Int("tracks", len(accepted)),
		logger.Int("rejected", len(rejected)),
	)

	return BuildResult{ProfileID: id, Accepted: accepted, Rejected: rejected}, nil
}

// EvaluateCandidate scores one candidate track against a stored
// profile and renders the evaluation narrative.
func (s *Service) EvaluateCandidate(ctx context.Context, profileID string, src extraction.Source) (evaluate.Result, error) {
	start := time.Now()

	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return evaluate.Result{}, err
	}

	candidate, err := s.resolveCandidate(ctx, src)
	if err != nil {
		return evaluate.Result{}, err
	}

	res, err := evaluate.Evaluate(p, candidate)
	if err != nil {
		return evaluate.Result{}, err
	}
	res.Narrative = narrative.Render(res)

	metrics.RecordEvaluation()
	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))
	for _, a := range res.Alerts {
		metrics.RecordAlert(string(a.Severity))
	}

	s.logger.Info(ctx, "candidate evaluated",
		logger.String("profileID", profileID),
		logger.String("source", candidate.Source),
		logger.Float64("matchScore", res.MatchScore),
		logger.Int("alerts", len(res.Alerts)),
	)

	return res, nil
}

// resolveCandidate turns a submitted source into a validated
// fingerprint, extracting from audio when no fingerprint was supplied.
func (s *Service) resolveCandidate(ctx context.Context, src extraction.Source) (feature.Vector, error) {
	switch {
	case src.Reject != nil:
		metrics.RecordDecodeFailure()
		return feature.Vector{}, src.Reject

	case src.Vector != nil:
		if err := src.Vector.Validate(); err != nil {
			metrics.RecordDecodeFailure()
			return feature.Vector{}, fmt.Errorf("candidate fingerprint: %w", err)
		}
		v := *src.Vector
		if v.Source == "" {
			v.Source = src.Label
		}
		metrics.RecordTrackAnalyzed()
		return v, nil

	case src.Clip != nil:
		start := time.Now()
		v, err := s.extractor.Extract(ctx, *src.Clip)
		metrics.RecordExtractionLatency(float64(time.Since(start).Milliseconds()))
		if err != nil {
			metrics.RecordDecodeFailure()
			return feature.Vector{}, err
		}
		if v.Source == "" {
			v.Source = src.Label
		}
		metrics.RecordTrackAnalyzed()
		return v, nil

	default:
		metrics.RecordDecodeFailure()
		return feature.Vector{}, fmt.Errorf("%w: no audio or fingerprint provided", extract.ErrDecode)
	}
}

// ProfileSummary returns per-feature statistics for a stored profile.
func (s *Service) ProfileSummary(ctx context.Context, profileID string) (ProfileInfo, error) {
	p, err := s.store.Get(ctx, profileID)
	if err != nil {
		return ProfileInfo{}, err
	}

	return ProfileInfo{
		ProfileID:  profileID,
		TrackCount: p.Size(),
		Features:   p.Summary(),
	}, nil
}

// DeleteProfile removes a stored profile.
func (s *Service) DeleteProfile(ctx context.Context, profileID string) error {
	if err := s.store.Delete(ctx, profileID); err != nil {
		return err
	}
	s.logger.Info(ctx, "profile deleted", logger.String("profileID", profileID))
	return nil
}

// GetStats returns service statistics for monitoring. While the service
// is running it also refreshes the live-profile gauge.
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{
		Started:     s.started,
		WorkerCount: s.workerCount,
		MaxProfiles: s.maxProfiles,
		ProfileTTL:  s.profileTTL.String(),
	}

	if s.started {
		stats.ProfilesLive = s.store.Len(context.Background())
		metrics.UpdateProfilesLive(stats.ProfilesLive)
	}

	return stats
}
