package wall

import (
	"fmt"
	"time"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// ClosedLabel replaces the countdown once the drop has closed.
const ClosedLabel = "DROP CLOSED"

// Stats 汇总当前墙面的统计数据。
type Stats struct {
	DropID           string         `json:"dropId"`
	TotalThreads     int            `json:"totalThreads"`
	Capacity         int            `json:"capacity"`
	SpotsRemaining   int            `json:"spotsRemaining"`
	TotalReactions   int            `json:"totalReactions"`
	MostReactions    int            `json:"mostReactions"`
	TopEmotion       thread.Emotion `json:"topEmotion"`
	TopThreadID      string         `json:"topThreadId,omitempty"`
	TopThreadMessage string         `json:"topThreadMessage"`
	NextThreadNumber int            `json:"nextThreadNumber"`
	Closed           bool           `json:"closed"`
	Source           thread.Source  `json:"source"`
}

// ComputeStats derives Stats from a snapshot.
func ComputeStats(snap thread.Snapshot, capacity int, now time.Time) Stats {
	st := Stats{
		DropID:           snap.Drop.ID,
		TotalThreads:     len(snap.Threads),
		Capacity:         capacity,
		SpotsRemaining:   max(0, capacity-len(snap.Threads)),
		TopEmotion:       thread.Empowerment,
		NextThreadNumber: len(snap.Threads) + 1,
		Closed:           snap.Drop.Closed(now),
		Source:           snap.Source,
	}

	counts := make(map[thread.Emotion]int)
	top := -1
	for i, t := range snap.Threads {
		total := thread.TotalReactions(t)
		st.TotalReactions += total
		if top < 0 || total > st.MostReactions {
			top = i
			st.MostReactions = total
		}
		if t.ThreadNumber >= st.NextThreadNumber {
			st.NextThreadNumber = t.ThreadNumber + 1
		}
		counts[t.Emotion]++
	}
	if top >= 0 {
		st.TopThreadID = snap.Threads[top].ID
		st.TopThreadMessage = snap.Threads[top].Message
	}

	best := 0
	for _, e := range thread.Emotions() {
		if counts[e] > best {
			best = counts[e]
			st.TopEmotion = e
		}
	}
	return st
}

// TickerItems builds the scrolling ticker lines.
func TickerItems(st Stats, drop thread.Drop, now time.Time) []string {
	message := st.TopThreadMessage
	if message == "" {
		message = "Loading..."
	}
	return []string{
		fmt.Sprintf("🔥 Drop closes in %s", TimeRemaining(drop.CloseAt, now)),
		fmt.Sprintf("❤️ Top thread: \"%s\"", Truncate(message, 40)),
		fmt.Sprintf("✨ %d/%d submissions received", st.TotalThreads, st.Capacity),
		fmt.Sprintf("😭 %d total reactions", st.TotalReactions),
		fmt.Sprintf("🔥 Most reactions: %d", st.MostReactions),
		"❤️ Community strength: GROWING DAILY",
	}
}

// Rotate returns items shifted left by n positions.
func Rotate(items []string, n int) []string {
	if len(items) == 0 {
		return nil
	}
	n %= len(items)
	if n < 0 {
		n += len(items)
	}
	out := make([]string, 0, len(items))
	out = append(out, items[n:]...)
	return append(out, items[:n]...)
}

// Countdown renders the time left until closeAt as DD:HH:MM:SS.
func Countdown(closeAt, now time.Time) string {
	left := closeAt.Sub(now)
	if left <= 0 {
		return ClosedLabel
	}
	secs := int64(left / time.Second)
	days := secs / 86400
	hours := secs % 86400 / 3600
	minutes := secs % 3600 / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", days, hours, minutes, secs%60)
}

// TimeRemaining is the coarse "Nd Nh" form used by the ticker.
func TimeRemaining(closeAt, now time.Time) string {
	left := closeAt.Sub(now)
	if left <= 0 {
		return "CLOSED"
	}
	hours := int64(left / time.Hour)
	return fmt.Sprintf("%dd %dh", hours/24, hours%24)
}

// Truncate shortens s to n runes, appending "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
