package content

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/xaenox/second-brain/internal/api"
	"github.com/xaenox/second-brain/internal/models"
)

var schemeRe = regexp.MustCompile(`^https?://`)

// IsValidURL accepts absolute http(s) URLs only.
func IsValidURL(link string) bool {
	if !schemeRe.MatchString(link) {
		return false
	}
	u, err := url.Parse(link)
	return err == nil && u.Host != ""
}

// Validate checks a draft before submission and returns per-field errors,
// or nil when the draft may be sent.
func Validate(d models.ContentDraft) api.ValidationErrors {
	errs := api.ValidationErrors{}
	if strings.TrimSpace(d.Title) == "" {
		errs["title"] = "Title is required"
	}
	switch {
	case strings.TrimSpace(d.Link) == "":
		errs["link"] = "Link is required"
	case !IsValidURL(strings.TrimSpace(d.Link)):
		errs["link"] = "Link must be a valid URL starting with http:// or https://"
	}
	switch {
	case strings.TrimSpace(d.Type) == "":
		errs["type"] = "Type is required"
	default:
		if _, ok := models.ParseContentType(d.Type); !ok {
			errs["type"] = "Type must be one of youtube, twitter, article, document"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ParseTags splits comma-separated input, trimming blanks.
func ParseTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
