// Package policy decides, for a (page, actor) pair, whether viewing or
// editing is permitted. The decision functions are pure and stateless; they
// read only the page value (with its allow-list loaded) and the actor, so
// they are safe to call concurrently and trivial to test.
package policy

import "github.com/calebdee/dndwiki/internal/models"

// CanView permits a view when the page is public, the actor owns it, or the
// actor is on its allow-list. Allow-list membership only ever widens access;
// a public page is visible to everyone regardless of the list.
//
// The page's AllowedUsers association must be loaded before calling.
func CanView(p *models.Page, a Actor) bool {
	if p.IsPublic() {
		return true
	}
	user, ok := a.Identity()
	if !ok {
		return false
	}
	if user.ID == p.CreatedBy {
		return true
	}
	for _, u := range p.AllowedUsers {
		if u.ID == user.ID {
			return true
		}
	}
	return false
}

// CanEdit permits a full edit for the owner or for an admin. Anonymous
// actors may never edit.
func CanEdit(p *models.Page, a Actor) bool {
	user, ok := a.Identity()
	if !ok {
		return false
	}
	return user.ID == p.CreatedBy || user.IsAdmin()
}

// CanSetVisibility permits the visibility-only patch. It is deliberately
// weaker than CanEdit: any authenticated actor may flip the flag on a page
// marked all_users, but there is no admin override here. Note the inverse
// asymmetry in grants: admins may edit any page yet only the owner manages
// its allow-list.
func CanSetVisibility(p *models.Page, a Actor) bool {
	user, ok := a.Identity()
	if !ok {
		return false
	}
	return user.ID == p.CreatedBy || p.AccessType == models.AccessAllUsers
}
