// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/okian/gatekeeper/internal/adapters/extraction"
	"github.com/okian/gatekeeper/internal/domain/preset"
)

// ProfilesHandler handles profile build and lifecycle requests.
type ProfilesHandler struct {
	deps Dependencies
}

// NewProfilesHandler creates a new profiles handler.
func NewProfilesHandler(deps Dependencies) *ProfilesHandler {
	return &ProfilesHandler{deps: deps}
}

// buildRequest mirrors the request schema for POST /profiles. A batch
// is supplied either inline as tracks or as a stored preset.
type buildRequest struct {
	Tracks []trackRequest `json:"tracks,omitempty"`
	Preset *preset.Preset `json:"preset,omitempty"`
}

// HandlePostProfiles handles POST /profiles requests.
func (h *ProfilesHandler) HandlePostProfiles(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_profiles"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req buildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sources := req.sources()
	if len(sources) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	report, err := h.deps.BuildProfile(r.Context(), sources)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, report)
}

// sources flattens the request into extraction sources. Preset entries
// go through the same path as inline fingerprints.
func (req buildRequest) sources() []extraction.Source {
	sources := make([]extraction.Source, 0, len(req.Tracks))
	for _, t := range req.Tracks {
		sources = append(sources, t.source())
	}
	if req.Preset != nil {
		for _, e := range req.Preset.Entries {
			entry := e
			sources = append(sources, trackRequest{Label: e.Source, Fingerprint: &entry}.source())
		}
	}
	return sources
}

// HandleProfileByID handles GET and DELETE /profiles/{id} requests.
func (h *ProfilesHandler) HandleProfileByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		info, err := h.deps.ProfileSummary(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, info)

	case http.MethodDelete:
		if err := h.deps.DeleteProfile(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}
