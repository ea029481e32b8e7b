// Package model contains domain models passed between layers.
package model

import "slices"

// Activity is a named extracurricular offering with a schedule, a capacity and a roster.
// Participants are student emails in signup order.
type Activity struct {
	Name            string   `json:"-" koanf:"name"`
	Description     string   `json:"description" koanf:"description"`
	Schedule        string   `json:"schedule" koanf:"schedule"`
	MaxParticipants int      `json:"max_participants" koanf:"max_participants"`
	Participants    []string `json:"participants" koanf:"participants"`
}

// Clone returns a deep copy. The roster is never nil so it encodes as [].
func (a Activity) Clone() Activity {
	out := a
	out.Participants = make([]string, len(a.Participants))
	copy(out.Participants, a.Participants)
	return out
}

// Has reports whether email is on the roster.
func (a Activity) Has(email string) bool {
	return slices.Contains(a.Participants, email)
}

// Full reports whether the roster has reached capacity.
func (a Activity) Full() bool {
	return len(a.Participants) >= a.MaxParticipants
}

// SpotsLeft is the remaining capacity, never negative.
func (a Activity) SpotsLeft() int {
	return max(a.MaxParticipants-len(a.Participants), 0)
}
