package thread

import "time"

// Sample provides the static thread set used when neither the remote store
// nor the snapshot cache can supply data, so the wall is never empty.
func Sample() []Thread {
	at := func(day, hour, minute int) time.Time {
		return time.Date(2025, time.May, day, hour, minute, 0, 0, time.UTC)
	}
	r := func(heart, fire, sparkles int) Reactions {
		return Reactions{Heart: heart, Fire: fire, Sparkles: sparkles}.Normalized()
	}

	return []Thread{
		{ID: "001", ThreadNumber: 1, Emotion: Relief, Reactions: r(89, 34, 67), CreatedAt: at(23, 10, 30),
			Message: "I stopped pretending to be okay and finally asked for help"},
		{ID: "002", ThreadNumber: 2, Emotion: Empowerment, Reactions: r(72, 28, 45), CreatedAt: at(23, 9, 15),
			Message: "Finding strength in vulnerability instead of hiding behind walls"},
		{ID: "003", ThreadNumber: 3, Emotion: Rage, Reactions: r(56, 91, 23), CreatedAt: at(23, 8, 45),
			Message: "Angry at everything because I was really angry at myself"},
		{ID: "004", ThreadNumber: 4, Emotion: Empowerment, Reactions: r(88, 42, 61), CreatedAt: at(23, 7, 20),
			Message: "Learning to forgive myself first before expecting it from others"},
		{ID: "005", ThreadNumber: 5, Emotion: Relief, Reactions: r(94, 38, 72), CreatedAt: at(23, 6, 30),
			Message: "Finally breathing again after years of holding my breath"},
		{ID: "006", ThreadNumber: 6, Emotion: Grief, Reactions: r(103, 19, 84), CreatedAt: at(22, 22, 15),
			Message: "Some days you just need to cry and that's perfectly okay"},
		{ID: "007", ThreadNumber: 7, Emotion: Love, Reactions: r(127, 45, 89), CreatedAt: at(22, 21, 0),
			Message: "Love is worth fighting for even when everything feels broken"},
		{ID: "008", ThreadNumber: 8, Emotion: Hope, Reactions: r(76, 52, 94), CreatedAt: at(22, 19, 45),
			Message: "Every small step counts when you're climbing out of darkness"},
		{ID: "009", ThreadNumber: 9, Emotion: Grief, Reactions: r(67, 31, 48), CreatedAt: at(22, 18, 30),
			Message: "The silence is deafening but I'm learning to sit with it"},
		{ID: "010", ThreadNumber: 10, Emotion: Empowerment, Reactions: r(98, 73, 56), CreatedAt: at(22, 17, 15),
			Message: "I choose myself today even when it feels selfish"},
	}
}
