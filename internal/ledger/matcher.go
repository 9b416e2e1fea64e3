package ledger

import (
	"slices"
	"strings"

	"github.com/nimasrn/split-ledger/internal/model"
)

// ParticipantMatcher decides whether user takes part in an expense based on
// its participant list. It is only consulted on the fallback path, when the
// user has no explicit split rows.
type ParticipantMatcher interface {
	Matches(user model.Profile, participants []string) bool
}

// NameMatcher reconciles free-text participant names against the user's full
// name: exact name, the self sentinel, or a substring either way.
// An empty full name is contained in every participant name and so matches
// any non-empty list. DefaultMatcher tries IDMatcher before it, so replacing
// the matcher through WithMatcher drops the id comparison unless the
// replacement chains IDMatcher itself.
type NameMatcher struct{}

func (NameMatcher) Matches(user model.Profile, participants []string) bool {
	if len(participants) == 0 {
		return false
	}
	fullName := user.FullName
	if slices.Contains(participants, fullName) || slices.Contains(participants, model.SelfName) {
		return true
	}
	for _, name := range participants {
		if strings.Contains(fullName, name) {
			return true
		}
		if name != model.SelfName && strings.Contains(name, fullName) {
			return true
		}
	}
	return false
}

// IDMatcher matches on the durable user id only.
type IDMatcher struct{}

func (IDMatcher) Matches(user model.Profile, participants []string) bool {
	return user.ID != "" && slices.Contains(participants, user.ID)
}

// ChainMatcher matches when any of its matchers does.
type ChainMatcher []ParticipantMatcher

func (c ChainMatcher) Matches(user model.Profile, participants []string) bool {
	for _, m := range c {
		if m.Matches(user, participants) {
			return true
		}
	}
	return false
}
