package policy_test

import (
	"testing"

	"github.com/calebdee/dndwiki/internal/models"
	"github.com/calebdee/dndwiki/internal/policy"
)

func user(id uint) *models.User {
	return &models.User{ID: id, Username: "u", Role: models.RoleUser}
}

func admin(id uint) *models.User {
	return &models.User{ID: id, Username: "a", Role: models.RoleAdmin}
}

func TestCanViewPublicPage(t *testing.T) {
	p := &models.Page{Visibility: models.VisibilityPublic, CreatedBy: 1}

	if !policy.CanView(p, policy.Anonymous()) {
		t.Error("anonymous should view public page")
	}
	if !policy.CanView(p, policy.Identify(user(2))) {
		t.Error("any user should view public page")
	}
}

func TestCanViewPrivatePage(t *testing.T) {
	p := &models.Page{
		Visibility:   models.VisibilityPrivate,
		CreatedBy:    1,
		AllowedUsers: []models.User{{ID: 3}},
	}

	if policy.CanView(p, policy.Anonymous()) {
		t.Error("anonymous must not view private page")
	}
	if !policy.CanView(p, policy.Identify(user(1))) {
		t.Error("owner should view own private page")
	}
	if !policy.CanView(p, policy.Identify(user(3))) {
		t.Error("allow-listed user should view private page")
	}
	if policy.CanView(p, policy.Identify(user(2))) {
		t.Error("unrelated user must not view private page")
	}
}

func TestAllowListFlipsView(t *testing.T) {
	p := &models.Page{Visibility: models.VisibilityPrivate, CreatedBy: 1}
	b := user(9)

	if policy.CanView(p, policy.Identify(b)) {
		t.Fatal("expected deny before grant")
	}
	p.AllowedUsers = append(p.AllowedUsers, models.User{ID: 9})
	if !policy.CanView(p, policy.Identify(b)) {
		t.Fatal("expected allow after grant")
	}
}

func TestAllowListIrrelevantWhenPublic(t *testing.T) {
	// A public page is visible via the public rule; the allow-list only
	// matters once visibility is private.
	p := &models.Page{
		Visibility:   models.VisibilityPublic,
		CreatedBy:    1,
		AllowedUsers: []models.User{{ID: 3}},
	}
	if !policy.CanView(p, policy.Identify(user(3))) {
		t.Error("allow-listed user should still view public page")
	}
	if !policy.CanView(p, policy.Identify(user(4))) {
		t.Error("non-listed user should view public page")
	}
}

func TestCanEdit(t *testing.T) {
	p := &models.Page{Visibility: models.VisibilityPrivate, CreatedBy: 1}

	if policy.CanEdit(p, policy.Anonymous()) {
		t.Error("anonymous must never edit")
	}
	if !policy.CanEdit(p, policy.Identify(user(1))) {
		t.Error("owner should edit")
	}
	if policy.CanEdit(p, policy.Identify(user(2))) {
		t.Error("non-owner must not edit")
	}
	if !policy.CanEdit(p, policy.Identify(admin(99))) {
		t.Error("admin should edit any page")
	}
}

func TestAllowListedUserStillCannotEdit(t *testing.T) {
	p := &models.Page{
		Visibility:   models.VisibilityPrivate,
		AccessType:   models.AccessPrivate,
		CreatedBy:    1,
		AllowedUsers: []models.User{{ID: 5}},
	}
	if policy.CanEdit(p, policy.Identify(user(5))) {
		t.Error("view grant must not imply edit")
	}
}

func TestCanSetVisibility(t *testing.T) {
	owned := &models.Page{AccessType: models.AccessPrivate, CreatedBy: 1}
	open := &models.Page{AccessType: models.AccessAllUsers, CreatedBy: 1}

	if policy.CanSetVisibility(owned, policy.Anonymous()) {
		t.Error("anonymous must not patch visibility")
	}
	if !policy.CanSetVisibility(owned, policy.Identify(user(1))) {
		t.Error("owner should patch visibility")
	}
	if policy.CanSetVisibility(owned, policy.Identify(user(2))) {
		t.Error("non-owner must not patch closed page")
	}
	if !policy.CanSetVisibility(open, policy.Identify(user(2))) {
		t.Error("any authenticated user should patch all_users page")
	}
	// Weaker than CanEdit on purpose, but no admin shortcut either.
	if policy.CanSetVisibility(owned, policy.Identify(admin(99))) {
		t.Error("admin role alone must not patch visibility")
	}
}

func TestIdentifyNilIsAnonymous(t *testing.T) {
	a := policy.Identify(nil)
	if !a.IsAnonymous() {
		t.Fatal("nil user should be anonymous")
	}
	if _, ok := a.Identity(); ok {
		t.Fatal("anonymous actor must not yield an identity")
	}
}
