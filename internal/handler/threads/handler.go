package threads

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/uninspired/inspire-wall/backend/internal/gateway"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/reaction"
	"github.com/uninspired/inspire-wall/backend/internal/service/wall"
	"github.com/uninspired/inspire-wall/backend/pkg/utils"
)

const featuredCount = 3

// Handler 投稿与反应的HTTP处理器
type Handler struct {
	wall      *wall.Service
	reactions *reaction.Synchronizer
}

// New 创建投稿处理器
func New(wallSvc *wall.Service, reactions *reaction.Synchronizer) *Handler {
	return &Handler{
		wall:      wallSvc,
		reactions: reactions,
	}
}

// RegisterRoutes 注册投稿相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/drop", h.handleDrop)
	r.Get("/threads", h.handleListThreads)
	r.Get("/threads/featured", h.handleFeatured)
	r.Post("/threads", h.handleSubmit)
	r.Post("/threads/{threadID}/reactions", h.handleReact)
	r.Get("/stats", h.handleStats)
	r.Get("/countdown", h.handleCountdown)
}

type threadView struct {
	thread.Thread
	Label          string `json:"label"`
	Color          string `json:"color"`
	TotalReactions int    `json:"totalReactions"`
	TimeAgo        string `json:"timeAgo"`
}

func (h *Handler) view(t thread.Thread) threadView {
	return threadView{
		Thread:         t,
		Label:          t.Label(),
		Color:          t.Color(),
		TotalReactions: thread.TotalReactions(t),
		TimeAgo:        t.TimeAgo(h.wall.Now()),
	}
}

func (h *Handler) views(items []thread.Thread) []threadView {
	out := make([]threadView, 0, len(items))
	for _, t := range items {
		out = append(out, h.view(t))
	}
	return out
}

// handleDrop 返回当前投稿轮次
func (h *Handler) handleDrop(w http.ResponseWriter, r *http.Request) {
	snap := h.wall.Snapshot()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"drop":      snap.Drop,
		"closed":    snap.Drop.Closed(h.wall.Now()),
		"countdown": h.wall.Countdown(),
	})
}

// handleListThreads 列出当前墙面上的全部投稿
func (h *Handler) handleListThreads(w http.ResponseWriter, r *http.Request) {
	snap := h.wall.Snapshot()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"source":  snap.Source,
		"threads": h.views(snap.Threads),
	})
}

// handleFeatured 返回反应数最多的投稿
func (h *Handler) handleFeatured(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.views(h.wall.Featured(featuredCount)))
}

// handleSubmit 提交新投稿
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload gateway.Submission
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.wall.Submit(r.Context(), payload)
	if err != nil {
		var vErr *wall.ValidationError
		switch {
		case errors.As(err, &vErr):
			utils.RespondFieldError(w, http.StatusUnprocessableEntity, vErr.Field, vErr.Reason)
		case gateway.IsGatewayError(err):
			utils.RespondError(w, http.StatusBadGateway, "submission could not be stored, please try again")
		default:
			utils.RespondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"threadId": res.ThreadID,
		"status":   "pending",
	})
}

// handleReact 为投稿增加一次反应
func (h *Handler) handleReact(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "threadID")

	var payload struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	kind, _ := thread.ParseReactionKind(payload.Kind)
	pending, err := h.reactions.React(r.Context(), threadID, kind)
	if errors.Is(err, reaction.ErrUnknownReaction) {
		utils.RespondError(w, http.StatusBadRequest, "unknown reaction kind")
		return
	}
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if pending == nil {
		utils.RespondError(w, http.StatusNotFound, "thread not found")
		return
	}

	utils.RespondJSON(w, http.StatusAccepted, map[string]any{
		"threadId":       pending.Thread.ID,
		"reactions":      pending.Thread.Reactions,
		"totalReactions": thread.TotalReactions(pending.Thread),
	})
}

// handleStats 返回统计数据与滚动条文案
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"stats":  h.wall.Stats(),
		"ticker": h.wall.Ticker(),
	})
}

// handleCountdown 返回倒计时
func (h *Handler) handleCountdown(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]string{"countdown": h.wall.Countdown()})
}
