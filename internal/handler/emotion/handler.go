package emotion

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	emotionservice "github.com/uninspired/inspire-wall/backend/internal/service/emotion"
)

// Handler 情绪标签的HTTP处理器
type Handler struct {
	suggester *emotionservice.Service
}

// New 创建情绪标签处理器
func New(suggester *emotionservice.Service) *Handler {
	return &Handler{
		suggester: suggester,
	}
}

// RegisterRoutes 注册情绪相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/emotions", h.handleListEmotions)
	r.Post("/emotions/suggest", h.handleSuggest)
}

type emotionView struct {
	ID    thread.Emotion `json:"id"`
	Label string         `json:"label"`
	Color string         `json:"color"`
}

// handleListEmotions 列出所有情绪标签
func (h *Handler) handleListEmotions(w http.ResponseWriter, r *http.Request) {
	emotions := thread.Emotions()
	views := make([]emotionView, 0, len(emotions))
	for _, e := range emotions {
		views = append(views, emotionView{ID: e, Label: e.Label(), Color: e.Color()})
	}
	h.respondJSON(w, http.StatusOK, views)
}

// handleSuggest 为投稿草稿推荐情绪标签
func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		h.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "message is required"})
		return
	}

	h.respondJSON(w, http.StatusOK, h.suggester.Suggest(r.Context(), payload.Message))
}

// respondJSON 发送JSON响应
func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
