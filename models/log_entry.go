package models

import (
	"fmt"
	"strconv"
	"time"
)

// Activity log event types emitted by the backend
const (
	EventEmailSent   = "EMAIL_SENT"
	EventLeadScored  = "LEAD_SCORED"
	EventCSVUploaded = "CSV_UPLOADED"
)

// LogEntry is one record of the backend activity log
type LogEntry struct {
	Event     string         `json:"event"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

// Time parses the ISO timestamp. The backend writes naive UTC timestamps
// (no offset), which are read as UTC.
func (l LogEntry) Time() (time.Time, bool) {
	layouts := []string{
		time.RFC3339Nano,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, l.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Field returns a payload value as display text, or "" when absent
func (l LogEntry) Field(key string) string {
	v, ok := l.Data[key]
	if !ok || v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

// ReverseLogs returns a copy of entries in reverse order. The backend
// returns oldest first; the dashboard shows newest first.
func ReverseLogs(entries []LogEntry) []LogEntry {
	out := make([]LogEntry, len(entries))
	for i, e := range entries {
		out[len(entries)-1-i] = e
	}
	return out
}
