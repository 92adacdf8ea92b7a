package auth

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var policy = bluemonday.StrictPolicy()

// SanitizeUsername removes any HTML and trims whitespace from a username.
func SanitizeUsername(username string) string {
	return SanitizeString(username)
}

// SanitizeString strips HTML from user-supplied text such as lobby names
// before it is stored or broadcast to other clients.
func SanitizeString(input string) string {
	cleaned := policy.Sanitize(input)
	return strings.TrimSpace(cleaned)
}
