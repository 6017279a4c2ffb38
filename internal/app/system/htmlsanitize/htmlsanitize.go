// Package htmlsanitize strips markup from user-supplied reference names and
// descriptions before they reach the engine.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// maxPasses bounds how often PlainText re-sanitizes text whose unescaped form
// still looks like markup.
const maxPasses = 4

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// PlainText removes every tag (and the content of script and style elements)
// and returns the remaining text unescaped, so "A &amp; B" stays "A & B".
// Unescaping can reassemble a tag from escaped fragments, so the text is
// sanitized again until it holds no tag. The result always satisfies
// IsPlainText.
func PlainText(s string) string {
	for i := 0; i < maxPasses && s != ""; i++ {
		s = html.UnescapeString(strict.Sanitize(s))
		if IsPlainText(s) {
			return s
		}
	}
	return angleBrackets.Replace(s)
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	i := strings.IndexByte(s, '<')
	return i < 0 || strings.IndexByte(s[i:], '>') < 0
}

// Fields applies PlainText to each pointed-to string.
func Fields(ptrs ...*string) {
	for _, p := range ptrs {
		if p != nil && !IsPlainText(*p) {
			*p = PlainText(*p)
		}
	}
}
