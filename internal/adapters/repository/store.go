// Package repository holds the activity registry: the in-memory store of
// activities and the only path to read or change their rosters.
package repository

import (
	"context"

	"github.com/okian/activities/internal/domain/model"
)

// Store provides read/write access to the activity registry.
type Store interface {
	// List returns a snapshot of every activity keyed by name.
	List(ctx context.Context) map[string]model.Activity

	// Get returns a snapshot of one activity.
	// Returns ErrNotFound if the activity is unknown.
	Get(ctx context.Context, name string) (model.Activity, error)

	// Signup appends email to the activity's roster.
	// Returns ErrInvalidInput, ErrNotFound, ErrAlreadyRegistered or ErrActivityFull.
	Signup(ctx context.Context, name, email string) (model.Activity, error)

	// Unregister removes email from the activity's roster, keeping the order of the rest.
	// Returns ErrInvalidInput, ErrNotFound or ErrNotRegistered.
	Unregister(ctx context.Context, name, email string) (model.Activity, error)

	// Count returns the number of activities.
	Count(ctx context.Context) int
}
