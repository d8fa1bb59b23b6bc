package gateway

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// record is the loosely shaped row returned by the record store. Field names
// vary between table revisions, so values stay raw until normalized here.
type record struct {
	ID          string                     `json:"id"`
	CreatedTime string                     `json:"createdTime"`
	Fields      map[string]json.RawMessage `json:"fields"`
}

type listResponse struct {
	Records []record `json:"records"`
	Offset  string   `json:"offset,omitempty"`
}

// threadFromRecord normalizes one row. ok is false for rows without text.
func threadFromRecord(r record, index int) (thread.Thread, bool) {
	message := strings.TrimSpace(stringField(r.Fields, "text_snippet", "message"))
	if message == "" {
		return thread.Thread{}, false
	}

	id := stringField(r.Fields, "submission_id")
	if id == "" {
		id = r.ID
	}

	emotion := thread.Hope
	if raw := stringField(r.Fields, "emotion_tag", "emotion"); raw != "" {
		emotion, _ = thread.ParseEmotion(raw)
	}

	number, ok := intField(r.Fields, "thread_number")
	if !ok || number <= 0 {
		number = index + 1
	}

	created := timeField(r.Fields, "timestamp", "created_at")
	if created.IsZero() {
		created = parseTime(r.CreatedTime, false)
	}

	name := strings.TrimSpace(stringField(r.Fields, "optional_name"))
	if name == "" {
		name = "Anonymous"
	}

	return thread.Thread{
		ID:           id,
		Message:      message,
		Emotion:      emotion,
		ThreadNumber: number,
		Reactions:    reactionsField(r.Fields, "reactions"),
		CreatedAt:    created,
		Name:         name,
	}, true
}

func dropFromRecord(r record) thread.Drop {
	fallback := thread.DefaultDrop()

	drop := thread.Drop{
		ID:      stringField(r.Fields, "drop_id"),
		Title:   stringField(r.Fields, "theme", "title"),
		Summary: stringField(r.Fields, "prompt_question", "theme_summary"),
		Status:  stringField(r.Fields, "drop_status"),
	}
	if drop.ID == "" {
		drop.ID = fallback.ID
	}
	if drop.Title == "" {
		drop.Title = fallback.Title
	}
	if drop.Summary == "" {
		drop.Summary = fallback.Summary
	}
	if drop.Status == "" {
		drop.Status = fallback.Status
	}
	drop.LaunchAt = timeField(r.Fields, "launch_date")
	drop.CloseAt = closeField(r.Fields, "est_close_date", "drop_close")
	if drop.CloseAt.IsZero() {
		drop.CloseAt = fallback.CloseAt
	}
	return drop
}

func stringField(fields map[string]json.RawMessage, keys ...string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
			continue
		}
		// Single-select and lookup fields arrive as arrays.
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
			return strings.TrimSpace(list[0])
		}
	}
	return ""
}

func intField(fields map[string]json.RawMessage, key string) (int, bool) {
	raw, ok := fields[key]
	if !ok {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(math.Max(math.Min(n, math.MaxInt32), math.MinInt32)), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v, true
		}
	}
	return 0, false
}

func timeField(fields map[string]json.RawMessage, keys ...string) time.Time {
	for _, key := range keys {
		if t := parseTime(stringField(fields, key), false); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// closeField parses a close timestamp; bare dates close at the end of the day.
func closeField(fields map[string]json.RawMessage, keys ...string) time.Time {
	for _, key := range keys {
		if t := parseTime(stringField(fields, key), true); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

func parseTime(raw string, endOfDay bool) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Second)
		}
		return t
	}
	return time.Time{}
}

// reactionsField accepts an encoded JSON string or an object; anything
// unreadable degrades to all-zero counts.
func reactionsField(fields map[string]json.RawMessage, key string) thread.Reactions {
	raw, ok := fields[key]
	if !ok {
		return thread.Reactions{}.Normalized()
	}
	var r thread.Reactions
	if err := json.Unmarshal(raw, &r); err != nil {
		return thread.Reactions{}.Normalized()
	}
	return r
}
