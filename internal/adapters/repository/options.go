package repository

import "github.com/okian/activities/internal/domain/model"

// Option applies a configuration option to the MemStore.
type Option func(*MemStore)

// WithCapacityEnforcement rejects signups with ErrActivityFull once a roster
// reaches max_participants. Enabled by default.
func WithCapacityEnforcement(enabled bool) Option {
	return func(s *MemStore) {
		s.enforceCapacity = enabled
	}
}

// WithSeed replaces the activities the store starts with.
func WithSeed(activities []model.Activity) Option {
	return func(s *MemStore) {
		if activities != nil {
			s.seed = activities
		}
	}
}
