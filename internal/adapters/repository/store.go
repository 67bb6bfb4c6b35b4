// Package repository defines the profile store interface and errors.
package repository

import (
	"context"

	"github.com/okian/gatekeeper/internal/domain/profile"
)

// Store provides read/write access to built reference profiles.
type Store interface {
	// Put stores a profile under id, replacing any existing entry and
	// resetting its expiry.
	Put(ctx context.Context, id string, p *profile.Profile) error

	// Get returns the profile stored under id.
	// Returns ErrNotFound if the id is unknown or the entry has expired.
	Get(ctx context.Context, id string) (*profile.Profile, error)

	// Delete removes the profile stored under id.
	// Returns ErrNotFound if the id is unknown.
	Delete(ctx context.Context, id string) error

	// Len returns the number of live profiles.
	Len(ctx context.Context) int
}
