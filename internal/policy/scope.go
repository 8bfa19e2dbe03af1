package policy

import (
	"gorm.io/gorm"

	"github.com/calebdee/dndwiki/internal/models"
)

// VisibleTo returns a GORM scope restricting a pages query to what the
// actor may view: public pages for everyone, plus owned and allow-listed
// pages for an identified actor.
//
// The allow-list clause is an IN-subquery against the join table rather
// than a join, so each page row matches at most once — no DISTINCT pass is
// needed and the allow-list is never scanned per page.
func VisibleTo(a Actor) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		user, ok := a.Identity()
		if !ok {
			return db.Where("pages.visibility = ?", models.VisibilityPublic)
		}
		return db.Where(
			"pages.visibility = ? OR pages.created_by = ? OR pages.id IN (?)",
			models.VisibilityPublic,
			user.ID,
			db.Session(&gorm.Session{NewDB: true}).
				Table("page_allowed_users").
				Select("page_id").
				Where("user_id = ?", user.ID),
		)
	}
}
