// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/gatekeeper/internal/adapters/extraction"
	"github.com/okian/gatekeeper/internal/adapters/repository"
	"github.com/okian/gatekeeper/internal/domain/evaluate"
	"github.com/okian/gatekeeper/internal/domain/extract"
	"github.com/okian/gatekeeper/internal/domain/preset"
	"github.com/okian/gatekeeper/internal/domain/profile"
	"github.com/okian/gatekeeper/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// BuildProfile analyzes a batch of tracks and stores the resulting profile.
	BuildProfile(ctx context.Context, sources []extraction.Source) (types.BuildReport, error)

	// EvaluateCandidate scores one candidate against a stored profile.
	EvaluateCandidate(ctx context.Context, profileID string, src extraction.Source) (evaluate.Result, error)

	// Read and lifecycle operations on stored profiles.
	ProfileSummary(ctx context.Context, profileID string) (types.ProfileInfo, error)
	DeleteProfile(ctx context.Context, profileID string) error
}

// BuildReport mirrors the response shape for profile builds.
type BuildReport = types.BuildReport

// ProfileInfo mirrors the response shape for profile summaries.
type ProfileInfo = types.ProfileInfo

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	profilesHandler *ProfilesHandler
	evaluateHandler *EvaluateHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		profilesHandler: NewProfilesHandler(deps),
		evaluateHandler: NewEvaluateHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/profiles", MetricsMiddleware(s.profilesHandler.HandlePostProfiles, "profiles"))
	mux.HandleFunc("/profiles/", MetricsMiddleware(s.routeProfile, "profile"))
}

// routeProfile dispatches /profiles/{id} and /profiles/{id}/evaluate.
func (s *Server) routeProfile(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/profiles/")
	if rest == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	if id, ok := strings.CutSuffix(rest, "/evaluate"); ok && id != "" && !strings.Contains(id, "/") {
		s.evaluateHandler.HandlePostEvaluate(w, r, id)
		return
	}
	if strings.Contains(rest, "/") {
		http.NotFound(w, r)
		return
	}
	s.profilesHandler.HandleProfileByID(w, r, rest)
}

// trackRequest mirrors the request schema for one submitted track.
// Either decoded audio (sample_rate + samples) or a precomputed
// fingerprint must be supplied.
type trackRequest struct {
	Label       string        `json:"label"`
	SampleRate  int           `json:"sample_rate,omitempty"`
	Samples     []float64     `json:"samples,omitempty"`
	Fingerprint *preset.Entry `json:"fingerprint,omitempty"`
}

// source converts the request into an extraction source. A malformed
// fingerprint still produces a source so the pool can account for it
// as a rejection rather than failing the whole request.
func (t trackRequest) source() extraction.Source {
	label := strings.TrimSpace(t.Label)

	if t.Fingerprint != nil {
		fp := *t.Fingerprint
		if fp.Source == "" {
			fp.Source = label
		}
		v, err := fp.Vector()
		if err != nil {
			// Carry the validation error so the rejection names the
			// malformed field instead of a missing payload.
			return extraction.Source{Label: labelOr(label, fp.Source), Reject: err}
		}
		return extraction.Source{Label: labelOr(label, v.Source), Vector: &v}
	}

	if len(t.Samples) > 0 {
		return extraction.Source{
			Label: label,
			Clip:  &extract.Clip{Source: label, SampleRate: t.SampleRate, Samples: t.Samples},
		}
	}

	return extraction.Source{Label: label}
}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service errors into HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, profile.ErrInsufficientData):
		writeError(w, http.StatusUnprocessableEntity, "insufficient_data", err)
	case errors.Is(err, profile.ErrTooManyTracks):
		writeError(w, http.StatusUnprocessableEntity, "too_many_tracks", err)
	case errors.Is(err, extract.ErrDecode), errors.Is(err, preset.ErrMalformedFingerprint):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
