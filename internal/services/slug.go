package services

import (
	"regexp"
	"strings"
)

var slugRuns = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// Slugify derives a URL-safe slug from a title: every maximal run of
// characters outside [A-Za-z0-9_-] collapses to a single dash, then the
// result is lowercased. Deterministic but not collision-free across titles;
// collisions are rejected at creation.
func Slugify(title string) string {
	return strings.ToLower(slugRuns.ReplaceAllString(title, "-"))
}
