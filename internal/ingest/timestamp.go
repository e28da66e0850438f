package ingest

import (
	"strings"
	"time"

	"udderwatch/internal/frame"
)

// Session start layouts, tried in order.
var timestampLayouts = []string{
	"2/1/2006 3:04 PM",
	"2/1/2006 15:04",
	"2/1/2006",
}

var meridiemReplacer = strings.NewReplacer("a. m.", "AM", "p. m.", "PM", "a.m.", "AM", "p.m.", "PM")

// ParseTimestamp parses a session start time. Text matching no layout
// yields an invalid timestamp that keeps raw.
func ParseTimestamp(raw string) frame.Timestamp {
	s := strings.TrimSpace(meridiemReplacer.Replace(raw))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return frame.InvalidTime(raw)
	}
	s = strings.ToUpper(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return frame.ValidTime(t, raw)
		}
	}
	return frame.InvalidTime(raw)
}
