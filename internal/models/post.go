package models

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp layouts accepted for historical posts. The dashboard exports
// "2006-01-02 15:04:05"; API clients may also send RFC 3339.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// PostRecord is one historical post in a user's training history.
// Hour, DayOfWeek, HashtagCount and CaptionLength are derived, never
// submitted by the client.
type PostRecord struct {
	Timestamp    string `json:"timestamp" validate:"required"`
	Likes        int    `json:"likes" validate:"min=0"`
	Comments     int    `json:"comments" validate:"min=0"`
	NewFollowers int    `json:"new_followers" validate:"min=0"`
	MediaType    string `json:"media_type" validate:"required"`
	Hashtags     string `json:"hashtags"`
	Caption      string `json:"caption"`
	Niche        string `json:"niche,omitempty"`
}

// ParseTimestamp parses the record's timestamp, trying each accepted layout.
func (p *PostRecord) ParseTimestamp() (time.Time, error) {
	raw := strings.TrimSpace(p.Timestamp)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", p.Timestamp)
}

// HashtagCount counts the hashtags in the record's hashtag string.
func (p *PostRecord) HashtagCount() int {
	return strings.Count(p.Hashtags, "#")
}

// CaptionLength returns the caption length in runes.
func (p *PostRecord) CaptionLength() int {
	return len([]rune(p.Caption))
}
