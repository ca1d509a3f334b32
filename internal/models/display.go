package models

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeTitle strips any markup from backend-supplied text.
func SanitizeTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}

// TimeAgo renders a coarse relative age for a card.
func TimeAgo(createdAt, now time.Time) string {
	hours := int(now.Sub(createdAt) / time.Hour)
	switch {
	case hours < 24:
		return fmt.Sprintf("%d hours ago", hours)
	case hours < 48:
		return "Yesterday"
	default:
		return fmt.Sprintf("%d days ago", hours/24)
	}
}
