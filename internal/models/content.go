package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type ContentType string

const (
	YouTubeContent  ContentType = "youtube"
	TwitterContent  ContentType = "twitter"
	ArticleContent  ContentType = "article"
	DocumentContent ContentType = "document"
)

// ContentTypes lists the accepted content types in display order.
var ContentTypes = []ContentType{YouTubeContent, TwitterContent, ArticleContent, DocumentContent}

// ParseContentType matches s case-insensitively against the known types.
func ParseContentType(s string) (ContentType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range ContentTypes {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Icon returns the card icon for a content type. Unknown types use the article icon.
func (t ContentType) Icon() string {
	switch ContentType(strings.ToLower(string(t))) {
	case YouTubeContent:
		return "▶️"
	case TwitterContent:
		return "🐦"
	case DocumentContent:
		return "📄"
	default:
		return "📰"
	}
}

// ContentItem is one saved link as returned by the API.
type ContentItem struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Type      string     `json:"type"`
	Link      string     `json:"link"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
	Tags      TagList    `json:"tags"`

	// Malformed lists fields that were present but unusable and were
	// decoded as absent.
	Malformed []string `json:"-"`
}

// UnmarshalJSON tolerates timestamps in any ISO-8601 form and tags that are
// not a list. Unusable values are dropped and recorded in Malformed instead
// of failing the whole payload.
func (c *ContentItem) UnmarshalJSON(data []byte) error {
	type plain ContentItem
	aux := struct {
		*plain
		CreatedAt json.RawMessage `json:"createdAt"`
		Tags      json.RawMessage `json:"tags"`
	}{plain: (*plain)(c)}
	c.Malformed = nil
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	c.CreatedAt = nil
	if ts, ok, err := decodeTimestamp(aux.CreatedAt); err != nil {
		c.Malformed = append(c.Malformed, "createdAt")
	} else if ok {
		c.CreatedAt = &ts
	}

	c.Tags = TagList{}
	if len(bytes.TrimSpace(aux.Tags)) > 0 && !isJSONArray(aux.Tags) && !isJSONNull(aux.Tags) {
		c.Malformed = append(c.Malformed, "tags")
	}
	return c.Tags.UnmarshalJSON(aux.Tags)
}

// CreatedOr returns the creation time, or now when the backend sent none.
func (c ContentItem) CreatedOr(now time.Time) time.Time {
	if c.CreatedAt == nil || c.CreatedAt.IsZero() {
		return now
	}
	return *c.CreatedAt
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and the zone-less ISO-8601 forms a
// browser Date would parse. Zone-less values are read as UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// decodeTimestamp reports ok=false for absent, null or empty values, and an
// error for values that are present but cannot be read as a time. Numbers
// are taken as Unix milliseconds.
func decodeTimestamp(raw json.RawMessage) (time.Time, bool, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || isJSONNull(raw) {
		return time.Time{}, false, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, false, err
		}
		if strings.TrimSpace(s) == "" {
			return time.Time{}, false, nil
		}
		ts, ok := ParseTimestamp(s)
		if !ok {
			return time.Time{}, false, fmt.Errorf("unrecognized timestamp %q", s)
		}
		return ts, true, nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err != nil {
		return time.Time{}, false, fmt.Errorf("unrecognized timestamp %s", raw)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isJSONArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

type Tag struct {
	Title string `json:"title"`
}

// TagList is the canonical tag shape. The backend sends either a list of
// strings or a list of {"tag": {"title": ...}} wrappers; both are normalized
// on decode. Entries with an empty or unreadable title are dropped, and a
// value that is not a list decodes as no tags.
type TagList []Tag

type tagEntry struct {
	Tag *struct {
		Title string `json:"title"`
	} `json:"tag"`
	Title string `json:"title"`
}

func (l *TagList) UnmarshalJSON(data []byte) error {
	tags := TagList{}
	var raw []json.RawMessage
	if isJSONArray(data) && json.Unmarshal(data, &raw) == nil {
		for _, r := range raw {
			if title := decodeTagTitle(r); title != "" {
				tags = append(tags, Tag{Title: title})
			}
		}
	}
	*l = tags
	return nil
}

func decodeTagTitle(r json.RawMessage) string {
	r = bytes.TrimSpace(r)
	if len(r) == 0 {
		return ""
	}
	switch r[0] {
	case '"':
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			return ""
		}
		return s
	case '{':
		var e tagEntry
		if err := json.Unmarshal(r, &e); err != nil {
			return ""
		}
		if e.Tag != nil {
			return e.Tag.Title
		}
		return e.Title
	default:
		return ""
	}
}

// Titles returns the tag titles in order.
func (l TagList) Titles() []string {
	out := make([]string, len(l))
	for i, t := range l {
		out[i] = t.Title
	}
	return out
}

// ContentDraft holds the fields of a content item before submission.
type ContentDraft struct {
	Title string   `json:"title"`
	Link  string   `json:"link"`
	Type  string   `json:"type"`
	Tags  []string `json:"tags"`
}
