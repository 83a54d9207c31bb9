// Package sanitize cleans user supplied free text before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// Text strips every HTML element and attribute and trims surrounding whitespace.
// Entities produced by the policy are decoded so the stored value is plain text.
func Text(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// Line is Text collapsed onto a single line, for names and titles
func Line(s string) string {
	return strings.Join(strings.Fields(Text(s)), " ")
}
