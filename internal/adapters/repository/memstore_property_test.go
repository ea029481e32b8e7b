package repository_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	repository "github.com/okian/activities/internal/adapters/repository"
	"github.com/okian/activities/internal/domain/seed"
)

var activityNames = func() []string {
	names := make([]string, 0, len(seed.Default()))
	for _, a := range seed.Default() {
		names = append(names, a.Name)
	}
	return names
}()

// TestMemStore_SignupUnregisterRoundTrip checks that a signup followed by an
// unregister of a fresh email leaves the roster exactly as it was.
func TestMemStore_SignupUnregisterRoundTrip(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		ctx := context.Background()
		store, err := repository.NewMemStore(ctx, repository.WithCapacityEnforcement(false))
		require.NoError(r, err)

		name := rapid.SampledFrom(activityNames).Draw(r, "activity")
		email := rapid.StringMatching(`[a-z]{1,10}@[a-z]{2,8}\.edu`).Draw(r, "email")

		before, err := store.Get(ctx, name)
		require.NoError(r, err)
		if before.Has(email) {
			r.Skip("email already seeded")
		}

		_, err = store.Signup(ctx, name, email)
		require.NoError(r, err)
		_, err = store.Unregister(ctx, name, email)
		require.NoError(r, err)

		after, err := store.Get(ctx, name)
		require.NoError(r, err)
		require.Equal(r, before.Participants, after.Participants)
	})
}

// TestMemStore_MatchesReferenceModel drives the store with random operations
// and compares every outcome against a plain map of rosters.
func TestMemStore_MatchesReferenceModel(t *testing.T) {
	rapid.Check(t, func(r *rapid.T) {
		ctx := context.Background()
		enforce := rapid.Bool().Draw(r, "enforce")
		store, err := repository.NewMemStore(ctx, repository.WithCapacityEnforcement(enforce))
		require.NoError(r, err)

		rosters := map[string][]string{}
		capacity := map[string]int{}
		for _, a := range seed.Default() {
			rosters[a.Name] = slices.Clone(a.Participants)
			capacity[a.Name] = a.MaxParticipants
		}

		names := append(slices.Clone(activityNames), "Nonexistent Club")
		emails := []string{"a@m.edu", "b@m.edu", "c@m.edu", "emma@mergington.edu", "liam@mergington.edu"}

		steps := rapid.IntRange(1, 60).Draw(r, "steps")
		for i := 0; i < steps; i++ {
			name := rapid.SampledFrom(names).Draw(r, "name")
			email := rapid.SampledFrom(emails).Draw(r, "email")
			roster, known := rosters[name]

			if rapid.Bool().Draw(r, "signup") {
				_, err := store.Signup(ctx, name, email)
				switch {
				case !known:
					require.True(r, errors.Is(err, repository.ErrNotFound), "signup %q: %v", name, err)
				case slices.Contains(roster, email):
					require.True(r, errors.Is(err, repository.ErrAlreadyRegistered), "signup %q/%q: %v", name, email, err)
				case enforce && len(roster) >= capacity[name]:
					require.True(r, errors.Is(err, repository.ErrActivityFull), "signup %q/%q: %v", name, email, err)
				default:
					require.NoError(r, err)
					rosters[name] = append(roster, email)
				}
				continue
			}

			_, err := store.Unregister(ctx, name, email)
			switch {
			case !known:
				require.True(r, errors.Is(err, repository.ErrNotFound), "unregister %q: %v", name, err)
			case !slices.Contains(roster, email):
				require.True(r, errors.Is(err, repository.ErrNotRegistered), "unregister %q/%q: %v", name, email, err)
			default:
				require.NoError(r, err)
				idx := slices.Index(roster, email)
				rosters[name] = slices.Delete(roster, idx, idx+1)
			}
		}

		got := store.List(ctx)
		require.Len(r, got, len(rosters))
		for name, want := range rosters {
			require.Equal(r, want, got[name].Participants, "roster of %q", name)
			if enforce {
				require.LessOrEqual(r, len(got[name].Participants), got[name].MaxParticipants)
			}
		}
	})
}
