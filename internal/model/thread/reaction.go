package thread

import (
	"encoding/json"
	"math"
	"strings"
)

// ReactionKind is one of the fixed reaction buttons.
type ReactionKind string

const (
	Heart    ReactionKind = "heart"
	Fire     ReactionKind = "fire"
	Sparkles ReactionKind = "sparkles"
	Sad      ReactionKind = "sad"
	Angry    ReactionKind = "rage"
)

var reactionKinds = []ReactionKind{Heart, Fire, Sparkles, Sad, Angry}

// ReactionKinds lists every known kind.
func ReactionKinds() []ReactionKind {
	return append([]ReactionKind(nil), reactionKinds...)
}

// ParseReactionKind normalizes raw input and reports whether the kind is known.
func ParseReactionKind(raw string) (ReactionKind, bool) {
	k := ReactionKind(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range reactionKinds {
		if k == known {
			return k, true
		}
	}
	return k, false
}

// Valid reports whether k is one of the known kinds, compared exactly.
func (k ReactionKind) Valid() bool {
	for _, known := range reactionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Reactions maps reaction kinds to counts. Reads of missing kinds yield 0.
type Reactions map[ReactionKind]int

// Get returns the count for kind, 0 when unset.
func (r Reactions) Get(kind ReactionKind) int {
	if r == nil {
		return 0
	}
	if n := r[kind]; n > 0 {
		return n
	}
	return 0
}

// Total sums the known kinds.
func (r Reactions) Total() int {
	total := 0
	for _, kind := range reactionKinds {
		total += r.Get(kind)
	}
	return total
}

// Normalized returns a fresh mapping with every known kind present.
func (r Reactions) Normalized() Reactions {
	out := make(Reactions, len(reactionKinds))
	for _, kind := range reactionKinds {
		out[kind] = r.Get(kind)
	}
	return out
}

// MarshalJSON always emits every known kind.
func (r Reactions) MarshalJSON() ([]byte, error) {
	plain := make(map[string]int, len(reactionKinds))
	for _, kind := range reactionKinds {
		plain[string(kind)] = r.Get(kind)
	}
	return json.Marshal(plain)
}

// UnmarshalJSON accepts either an object or a JSON-encoded string holding an
// object, the latter being how the record store keeps the field.
func (r *Reactions) UnmarshalJSON(data []byte) error {
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		if strings.TrimSpace(encoded) == "" {
			*r = Reactions{}.Normalized()
			return nil
		}
		data = []byte(encoded)
	}

	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := Reactions{}
	for key, value := range raw {
		kind, ok := ParseReactionKind(key)
		if !ok || value < 0 {
			continue
		}
		out[kind] = int(math.Min(value, math.MaxInt32))
	}
	*r = out.Normalized()
	return nil
}
