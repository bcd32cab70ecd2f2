package models

import (
	"fmt"
	"strings"
	"time"
)

// DateTimeFormat is the wall-clock layout used for journey times
const DateTimeFormat = "2006-01-02 15:04"

var naiveLayouts = []string{
	DateTimeFormat,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
}

// ParseDateTime accepts RFC 3339 or a naive timestamp, which is read in loc
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date time %q, expected YYYY-MM-DD HH:MM", raw)
}
