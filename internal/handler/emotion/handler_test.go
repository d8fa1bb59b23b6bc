package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	emotionservice "github.com/uninspired/inspire-wall/backend/internal/service/emotion"
)

func setupRouter(t *testing.T) *chi.Mux {
	t.Helper()
	svc, err := emotionservice.NewService(context.Background(), nil, emotionservice.Config{})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	r := chi.NewRouter()
	New(svc).RegisterRoutes(r)
	return r
}

func TestListEmotions(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/emotions", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body []emotionView
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if len(body) != 10 {
		t.Fatalf("expected 10 emotions, got %d", len(body))
	}
	for _, e := range body {
		if e.Color == "" || e.Label == "" {
			t.Fatalf("incomplete emotion %+v", e)
		}
	}
}

func TestSuggestEmotion(t *testing.T) {
	r := setupRouter(t)

	payload, _ := json.Marshal(map[string]string{"message": "I am so scared and anxious about tomorrow"})
	req := httptest.NewRequest(http.MethodPost, "/emotions/suggest", bytes.NewReader(payload))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body emotionservice.Suggestion
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.Emotion != "fear" {
		t.Fatalf("expected fear, got %s", body.Emotion)
	}
}

func TestSuggestRequiresMessage(t *testing.T) {
	r := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/emotions/suggest", bytes.NewReader([]byte(`{"message":"  "}`)))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
