package thread

import "time"

// Drop is a time-boxed submission round.
type Drop struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	Status   string    `json:"status"`
	LaunchAt time.Time `json:"launchAt,omitempty"`
	CloseAt  time.Time `json:"closeAt"`
}

// Closed reports whether the drop's close timestamp has passed.
func (d Drop) Closed(now time.Time) bool {
	return !d.CloseAt.After(now)
}

// DefaultDrop is used whenever the remote store cannot name the live drop.
func DefaultDrop() Drop {
	return Drop{
		ID:       "drop_003",
		Title:    "Breaking the Cycle",
		Summary:  "Share the moment when you broke free from something that was holding you back",
		Status:   "live",
		LaunchAt: time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC),
		CloseAt:  time.Date(2025, time.May, 26, 23, 59, 59, 0, time.UTC),
	}
}
