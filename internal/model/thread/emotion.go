package thread

import "strings"

// Emotion is the closed tag set a thread can be filed under.
type Emotion string

const (
	Love        Emotion = "love"
	Grief       Emotion = "grief"
	Rage        Emotion = "rage"
	Relief      Emotion = "relief"
	Shame       Emotion = "shame"
	Joy         Emotion = "joy"
	Fear        Emotion = "fear"
	Calm        Emotion = "calm"
	Empowerment Emotion = "empowerment"
	Hope        Emotion = "hope"
)

// DefaultColor is used for unknown tags and for zones without a thread.
const DefaultColor = "#8a8a8a"

var emotionColors = map[Emotion]string{
	Love:        "#ff2eff",
	Grief:       "#8a8a8a",
	Rage:        "#ff360a",
	Relief:      "#00ffe0",
	Shame:       "#d4d4d4",
	Joy:         "#fffb00",
	Fear:        "#a6a6a6",
	Calm:        "#c8b8a6",
	Empowerment: "#ff008c",
	Hope:        "#b8ff10",
}

var emotionLabels = map[Emotion]string{
	Love:        "Love",
	Grief:       "Grief",
	Rage:        "Rage",
	Relief:      "Relief",
	Shame:       "Shame",
	Joy:         "Joy",
	Fear:        "Fear",
	Calm:        "Calm",
	Empowerment: "Empowerment",
	Hope:        "Hope",
}

// Emotions lists the tag set in display order.
func Emotions() []Emotion {
	return []Emotion{Love, Grief, Rage, Relief, Shame, Joy, Fear, Calm, Empowerment, Hope}
}

// ParseEmotion normalizes raw input and reports whether it is a known tag.
func ParseEmotion(raw string) (Emotion, bool) {
	e := Emotion(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := emotionColors[e]
	return e, ok
}

// Valid reports whether e belongs to the tag set.
func (e Emotion) Valid() bool {
	_, ok := emotionColors[e]
	return ok
}

// Color returns the display colour, falling back to DefaultColor.
func (e Emotion) Color() string {
	if c, ok := emotionColors[e]; ok {
		return c
	}
	return DefaultColor
}

// Label returns the human readable tag name.
func (e Emotion) Label() string {
	if l, ok := emotionLabels[e]; ok {
		return l
	}
	return string(e)
}
