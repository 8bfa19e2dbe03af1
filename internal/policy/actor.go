package policy

import "github.com/calebdee/dndwiki/internal/models"

// Actor is the identity attempting an operation: either anonymous or a
// concrete user. Callers must go through Identity(), so every decision point
// handles the anonymous branch explicitly instead of testing a nullable
// pointer ad hoc.
type Actor struct {
	user *models.User
}

// Anonymous returns the actor for an unauthenticated request.
func Anonymous() Actor { return Actor{} }

// Identify wraps a user as an actor. A nil user yields the anonymous actor.
func Identify(u *models.User) Actor { return Actor{user: u} }

// Identity returns the acting user and whether one is present.
func (a Actor) Identity() (*models.User, bool) {
	return a.user, a.user != nil
}

// IsAnonymous reports whether no identity is present.
func (a Actor) IsAnonymous() bool { return a.user == nil }
