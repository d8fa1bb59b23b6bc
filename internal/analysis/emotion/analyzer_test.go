package emotion

import (
	"testing"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

func TestAnalyzeGriefMessage(t *testing.T) {
	decision := Analyze("Some days you just need to cry and let the tears come")
	if decision.Emotion != thread.Grief {
		t.Fatalf("expected grief emotion, got %s", decision.Emotion)
	}
	if decision.Score <= 0 {
		t.Fatalf("expected positive score, got %d", decision.Score)
	}
}

func TestAnalyzeRageWithExclamations(t *testing.T) {
	decision := Analyze("I am so angry and fed up with this!!!")
	if decision.Emotion != thread.Rage {
		t.Fatalf("expected rage emotion, got %s", decision.Emotion)
	}
}

func TestAnalyzeFallsBackToHope(t *testing.T) {
	decision := Analyze("zzz qqq")
	if decision.Emotion != Fallback {
		t.Fatalf("expected fallback %s, got %s", Fallback, decision.Emotion)
	}
	if decision.Score != 0 {
		t.Fatalf("expected zero score, got %d", decision.Score)
	}
}
