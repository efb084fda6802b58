package services

import "strings"

var htmlEscaper = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#x27;",
	"/", "&#x2F;",
)

// SanitizeHTML neutralizes markup in user-supplied text before it is
// persisted. Escaping rather than stripping keeps the feedback readable when
// someone reports literal markup.
func SanitizeHTML(input string) string {
	return htmlEscaper.Replace(input)
}
