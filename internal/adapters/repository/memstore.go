package repository

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/okian/activities/internal/domain/model"
	"github.com/okian/activities/internal/domain/seed"
)

// In-memory Store implementation.
//
// Locking: mu guards the name -> entry map, and each entry carries its own
// mutex so that the check-then-mutate of one roster never interleaves with
// another request on the same activity. Requests on different activities
// proceed in parallel. Lock order is always store.mu before entry.mu.

// entry is one activity plus the lock that serializes changes to its roster.
type entry struct {
	mu       sync.Mutex
	activity model.Activity
}

// snapshot copies the activity under the entry lock.
func (e *entry) snapshot() model.Activity {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.Clone()
}

// MemStore is the process-local activity registry.
type MemStore struct {
	mu              sync.RWMutex
	activities      map[string]*entry
	enforceCapacity bool
	seed            []model.Activity
}

var _ Store = (*MemStore)(nil)

// NewMemStore builds a registry from the configured seed (the built-in set by
// default). The seed is validated: names must be unique and non-empty,
// capacity positive, and rosters free of blanks and duplicates.
func NewMemStore(_ context.Context, opts ...Option) (*MemStore, error) {
	s := &MemStore{
		enforceCapacity: true,
		seed:            seed.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.activities = make(map[string]*entry, len(s.seed))
	for _, a := range s.seed {
		a.Name = strings.TrimSpace(a.Name)
		a.Participants = trimAll(a.Participants)
		if err := s.validateSeed(a); err != nil {
			return nil, err
		}
		if _, exists := s.activities[a.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateActivity, a.Name)
		}
		s.activities[a.Name] = &entry{activity: a.Clone()}
	}
	s.seed = nil
	return s, nil
}

func (s *MemStore) validateSeed(a model.Activity) error {
	if a.Name == "" {
		return fmt.Errorf("%w: activity name must not be empty", ErrInvalidSeed)
	}
	if a.MaxParticipants <= 0 {
		return fmt.Errorf("%w: %q: max_participants must be positive", ErrInvalidSeed, a.Name)
	}
	seen := make(map[string]struct{}, len(a.Participants))
	for _, p := range a.Participants {
		if p == "" {
			return fmt.Errorf("%w: %q: empty participant", ErrInvalidSeed, a.Name)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %q: duplicate participant %q", ErrInvalidSeed, a.Name, p)
		}
		seen[p] = struct{}{}
	}
	if s.enforceCapacity && len(a.Participants) > a.MaxParticipants {
		return fmt.Errorf("%w: %q: %d participants exceed capacity %d",
			ErrInvalidSeed, a.Name, len(a.Participants), a.MaxParticipants)
	}
	return nil
}

// trimAll returns a trimmed copy so seeded emails compare like request input.
func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = strings.TrimSpace(p)
	}
	return out
}

// List returns a deep copy of every activity keyed by name.
func (s *MemStore) List(_ context.Context) map[string]model.Activity {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]model.Activity, len(s.activities))
	for name, e := range s.activities {
		out[name] = e.snapshot()
	}
	return out
}

// Get returns a copy of a single activity.
func (s *MemStore) Get(_ context.Context, name string) (model.Activity, error) {
	e, err := s.lookup(name)
	if err != nil {
		return model.Activity{}, err
	}
	return e.snapshot(), nil
}

// Signup appends email to the roster of the named activity.
func (s *MemStore) Signup(_ context.Context, name, email string) (model.Activity, error) {
	name, email, err := normalize(name, email)
	if err != nil {
		return model.Activity{}, err
	}
	e, err := s.lookup(name)
	if err != nil {
		return model.Activity{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.activity.Has(email) {
		return e.activity.Clone(), fmt.Errorf("%w: %s in %s", ErrAlreadyRegistered, email, name)
	}
	if s.enforceCapacity && e.activity.Full() {
		return e.activity.Clone(), fmt.Errorf("%w: %s has %d of %d spots taken",
			ErrActivityFull, name, len(e.activity.Participants), e.activity.MaxParticipants)
	}
	e.activity.Participants = append(e.activity.Participants, email)
	return e.activity.Clone(), nil
}

// Unregister removes email from the roster of the named activity.
func (s *MemStore) Unregister(_ context.Context, name, email string) (model.Activity, error) {
	name, email, err := normalize(name, email)
	if err != nil {
		return model.Activity{}, err
	}
	e, err := s.lookup(name)
	if err != nil {
		return model.Activity{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.Index(e.activity.Participants, email)
	if i < 0 {
		return e.activity.Clone(), fmt.Errorf("%w: %s in %s", ErrNotRegistered, email, name)
	}
	e.activity.Participants = slices.Delete(e.activity.Participants, i, i+1)
	return e.activity.Clone(), nil
}

// Count returns the number of activities.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.activities)
}

// CapacityEnforced reports whether signups are capped at max_participants.
func (s *MemStore) CapacityEnforced() bool {
	return s.enforceCapacity
}

func (s *MemStore) lookup(name string) (*entry, error) {
	name = strings.TrimSpace(name)
	s.mu.RLock()
	e, ok := s.activities[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e, nil
}

// normalize trims both inputs and enforces presence. Format is not checked.
func normalize(name, email string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	switch {
	case name == "":
		return "", "", fmt.Errorf("%w: activity name is required", ErrInvalidInput)
	case email == "":
		return "", "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return name, email, nil
}
