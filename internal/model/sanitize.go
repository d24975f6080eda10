package model

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy = bluemonday.StrictPolicy()
	ugcPolicy    = bluemonday.UGCPolicy()
)

// SanitizeText strips all markup from plain-text input
func SanitizeText(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}

// SanitizeHTML keeps the safe subset of user-authored HTML (blog bodies)
func SanitizeHTML(s string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(s))
}
