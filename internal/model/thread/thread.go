package thread

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Thread is one submitted message on the wall.
type Thread struct {
	ID           string    `json:"id"`
	Message      string    `json:"message"`
	Emotion      Emotion   `json:"emotion"`
	ThreadNumber int       `json:"threadNumber"`
	Reactions    Reactions `json:"reactions"`
	CreatedAt    time.Time `json:"createdAt,omitempty"`
	Name         string    `json:"name,omitempty"`
}

// TotalReactions sums every known reaction kind, treating missing kinds as 0.
func TotalReactions(t Thread) int {
	return t.Reactions.Total()
}

// Words splits the message on whitespace, dropping empty fragments.
func (t Thread) Words() []string {
	return strings.Fields(t.Message)
}

// Digest returns the leading word of the message, used by the lens.
func (t Thread) Digest() string {
	words := t.Words()
	if len(words) == 0 {
		return "thread"
	}
	return words[0]
}

// Label formats the display ordinal, e.g. "#007".
func (t Thread) Label() string {
	return fmt.Sprintf("#%03d", t.ThreadNumber)
}

// Color resolves the display colour of the thread's emotion tag.
func (t Thread) Color() string {
	return t.Emotion.Color()
}

// TimeAgo renders CreatedAt relative to now. A missing timestamp degrades to
// a placeholder.
func (t Thread) TimeAgo(now time.Time) string {
	if t.CreatedAt.IsZero() {
		return "recently"
	}
	if now.Sub(t.CreatedAt) < time.Minute {
		return "just now"
	}
	return humanize.RelTime(t.CreatedAt, now, "ago", "from now")
}

// Clone returns a deep copy; the reactions map is never shared.
func (t Thread) Clone() Thread {
	out := t
	out.Reactions = t.Reactions.Normalized()
	return out
}
