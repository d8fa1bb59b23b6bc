package emotion

import (
	"strings"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

// Decision 给出情绪标签的推断结果。
type Decision struct {
	Emotion thread.Emotion
	Score   int
}

// Fallback 是没有任何关键词命中时使用的标签。
const Fallback = thread.Hope

var keywordBuckets = map[thread.Emotion][]string{
	thread.Love: {
		"love", "loved", "loving", "heart", "partner", "family", "friend", "together", "kindness", "care",
	},
	thread.Grief: {
		"grief", "loss", "lost", "miss", "cry", "crying", "tears", "funeral", "gone", "mourning", "silence",
	},
	thread.Rage: {
		"angry", "anger", "rage", "furious", "hate", "mad", "unfair", "scream", "sick of", "fed up",
	},
	thread.Relief: {
		"relief", "finally", "breathe", "breathing", "free", "weight", "lighter", "asked for help", "let go",
	},
	thread.Shame: {
		"shame", "ashamed", "embarrassed", "hiding", "pretending", "secret", "guilt", "guilty", "worthless",
	},
	thread.Joy: {
		"joy", "happy", "laugh", "laughing", "smile", "dance", "celebrate", "grateful", "delight", "fun",
	},
	thread.Fear: {
		"fear", "afraid", "scared", "anxious", "anxiety", "panic", "terrified", "worry", "nervous", "dread",
	},
	thread.Calm: {
		"calm", "peace", "quiet", "still", "slow", "rest", "balance", "gentle", "patience", "sit with",
	},
	thread.Empowerment: {
		"strength", "strong", "choose", "myself", "power", "boundaries", "stood up", "brave", "forgive", "own",
	},
	thread.Hope: {
		"hope", "tomorrow", "future", "step", "light", "believe", "someday", "better", "healing", "climbing",
	},
}

// Analyze 根据消息文本推断最可能的情绪标签。
func Analyze(message string) Decision {
	normalized := strings.TrimSpace(strings.ToLower(message))
	if normalized == "" {
		return Decision{Emotion: Fallback}
	}

	scores := make(map[thread.Emotion]int)
	for label, keywords := range keywordBuckets {
		for _, word := range keywords {
			if strings.Contains(normalized, word) {
				scores[label] += 3
			}
		}
	}

	// 感叹号偏向强烈情绪。
	if exclamations := strings.Count(message, "!"); exclamations > 0 {
		if scores[thread.Rage] > 0 {
			scores[thread.Rage] += exclamations
		} else if scores[thread.Joy] > 0 {
			scores[thread.Joy] += exclamations
		}
	}

	best := Fallback
	bestScore := 0
	// Iterate in catalogue order so ties resolve deterministically.
	for _, label := range thread.Emotions() {
		if s := scores[label]; s > bestScore {
			bestScore = s
			best = label
		}
	}

	return Decision{Emotion: best, Score: bestScore}
}
