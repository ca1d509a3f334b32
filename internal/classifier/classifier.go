package classifier

import (
	"context"
	"net/url"
	"sort"
	"strings"
)

// Suggester proposes tags for a link before it is saved.
type Suggester interface {
	Suggest(ctx context.Context, title, link string) []string
}

type SimpleClassifier struct {
	maxTags int
}

func NewSimpleClassifier(maxTags int) *SimpleClassifier {
	return &SimpleClassifier{
		maxTags: maxTags,
	}
}

var hostTags = map[string]string{
	"youtube.com": "video",
	"youtu.be":    "video",
	"vimeo.com":   "video",
	"twitter.com": "social",
	"x.com":       "social",
	"github.com":  "code",
	"medium.com":  "blog",
	"arxiv.org":   "research",
}

var categories = map[string][]string{
	"programming":  {"golang", "python", "javascript", "api", "code", "programming"},
	"learning":     {"course", "tutorial", "guide", "learn", "lecture"},
	"news":         {"news", "breaking", "report", "update"},
	"productivity": {"productivity", "habit", "notes", "workflow"},
	"design":       {"design", "ui", "ux", "typography"},
}

// Suggest extracts hashtags from the title, a hint from the link host or
// file extension, and keyword categories. Results are sorted and capped.
func (c *SimpleClassifier) Suggest(_ context.Context, title, link string) []string {
	tags := make(map[string]struct{})

	// Extract hashtags
	for _, word := range strings.Fields(title) {
		if strings.HasPrefix(word, "#") {
			tag := strings.ToLower(strings.TrimPrefix(word, "#"))
			if tag != "" {
				tags[tag] = struct{}{}
			}
		}
	}

	if u, err := url.Parse(link); err == nil {
		host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
		if tag, ok := hostTags[host]; ok {
			tags[tag] = struct{}{}
		}
		if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
			tags["document"] = struct{}{}
		}
	}

	words := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for category, keywords := range categories {
		if containsAny(words, keywords) {
			tags[category] = struct{}{}
		}
	}

	result := make([]string, 0, len(tags))
	for tag := range tags {
		result = append(result, tag)
	}
	sort.Strings(result)

	if c.maxTags > 0 && len(result) > c.maxTags {
		result = result[:c.maxTags]
	}
	return result
}

func containsAny(words, keywords []string) bool {
	for _, w := range words {
		for _, k := range keywords {
			if w == k {
				return true
			}
		}
	}
	return false
}
