// Package accounts stores per-owner analyzer preferences and enforces the
// cloud analyzer capacity when an owner opts in.
package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Preference is an owner's requested analyzer backend.
type Preference string

const (
	PreferenceLocal  Preference = "local"
	PreferenceCloud  Preference = "cloud"
	PreferenceHybrid Preference = "hybrid"
)

var legacyPreferences = map[string]Preference{
	"tensorflow": PreferenceLocal,
	"google":     PreferenceCloud,
}

// ParsePreference accepts the current names and the legacy aliases
// "tensorflow" and "google".
func ParsePreference(s string) (Preference, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch p := Preference(s); p {
	case PreferenceLocal, PreferenceCloud, PreferenceHybrid:
		return p, nil
	}
	if p, ok := legacyPreferences[s]; ok {
		return p, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPreference, s)
}

// Account is an owner's analyzer settings.
type Account struct {
	ID         uuid.UUID  `json:"id"`
	Preference Preference `json:"preference"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
