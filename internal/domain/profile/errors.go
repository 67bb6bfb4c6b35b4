package profile

import "errors"

// Sentinel kinds for profile fitting errors.
var (
	// ErrInsufficientData means fewer than MinTracks usable fingerprints
	// remained; fatal to the whole build call.
	ErrInsufficientData = errors.New("not enough fingerprints to fit a profile")

	// ErrTooManyTracks means more than MaxTracks fingerprints were supplied;
	// rejected before any computation.
	ErrTooManyTracks = errors.New("too many fingerprints supplied")
)
