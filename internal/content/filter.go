package content

import (
	"strings"
	"time"

	"github.com/xaenox/second-brain/internal/models"
)

const (
	FilterAll    = "all"
	FilterRecent = "recent"

	// RecentWindow is how far back the "recent" filter reaches.
	RecentWindow = 7 * 24 * time.Hour
)

// Filter is the combination of the three independent list filters.
// Empty fields behave like FilterAll / an empty query.
type Filter struct {
	Search  string
	Type    string
	Recency string
}

// Select applies a sidebar choice. Choosing a content type resets the recency
// filter and choosing "all" or "recent" resets the type filter, so at most one
// of them narrows the list.
func (f Filter) Select(choice string) Filter {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if ct, ok := models.ParseContentType(choice); ok {
		f.Type = string(ct)
		f.Recency = FilterAll
		return f
	}
	f.Recency = choice
	if choice == FilterAll || choice == FilterRecent {
		f.Type = FilterAll
	}
	return f
}

// Active names the selection shown as highlighted.
func (f Filter) Active() string {
	if f.Type != "" && f.Type != FilterAll {
		return f.Type
	}
	if f.Recency == "" {
		return FilterAll
	}
	return f.Recency
}

// ApplyFilters returns the items matching every filter, in input order.
func ApplyFilters(items []models.ContentItem, f Filter, now time.Time) []models.ContentItem {
	query := strings.ToLower(f.Search)
	cutoff := now.Add(-RecentWindow)

	out := make([]models.ContentItem, 0, len(items))
	for _, item := range items {
		if !matchesSearch(item, query) {
			continue
		}
		if f.Type != "" && f.Type != FilterAll && !strings.EqualFold(item.Type, f.Type) {
			continue
		}
		if f.Recency == FilterRecent && !item.CreatedOr(now).After(cutoff) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesSearch(item models.ContentItem, query string) bool {
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(item.Title), query) {
		return true
	}
	for _, tag := range item.Tags {
		if strings.Contains(strings.ToLower(tag.Title), query) {
			return true
		}
	}
	return false
}
