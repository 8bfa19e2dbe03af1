// Package markup renders page content as CommonMark for API responses.
package markup

import "gitlab.com/golang-commonmark/markdown"

var parser = markdown.New(markdown.HTML(true), markdown.Linkify(true), markdown.Typographer(true), markdown.MaxNesting(10))

// Render converts CommonMark content to HTML.
func Render(content string) string {
	return parser.RenderToString([]byte(content))
}
