package wall

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	"github.com/uninspired/inspire-wall/backend/internal/service/events"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
	"github.com/uninspired/inspire-wall/backend/internal/service/reaction"
	wallservice "github.com/uninspired/inspire-wall/backend/internal/service/wall"
	"github.com/uninspired/inspire-wall/backend/pkg/utils"
)

const heartbeatInterval = 15 * time.Second

// Handler 墙面渲染、事件流与指针叠层的HTTP处理器
type Handler struct {
	wall   *wallservice.Service
	hub    *events.Hub
	logger *zap.Logger
	ws     *WebSocketHandler
}

// New 创建墙面处理器
func New(wallSvc *wallservice.Service, reactions *reaction.Synchronizer, hub *events.Hub, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		wall:   wallSvc,
		hub:    hub,
		logger: logger.Named("wall-http"),
		ws:     NewWebSocketHandler(wallSvc, reactions, m, logger),
	}
}

// RegisterRoutes 注册墙面相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/wall", h.handleLayout)
	r.Get("/wall.svg", h.handleSVG)
	r.Get("/wall/events", h.handleEvents)
	h.ws.RegisterWebSocketRoutes(r)
}

// handleLayout 返回当前布局的 JSON 描述
func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	snap := h.wall.Snapshot()
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"layout":     h.wall.Layout(),
		"silhouette": layout.Silhouette(),
		"source":     snap.Source,
		"dropId":     snap.Drop.ID,
	})
}

// handleSVG 渲染当前墙面为 SVG
func (h *Handler) handleSVG(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := layout.RenderSVG(&buf, h.wall.Layout()); err != nil {
		h.logger.Error("render svg failed", zap.Error(err))
		utils.RespondError(w, http.StatusInternalServerError, "render failed")
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleEvents 以 SSE 推送倒计时、滚动条与刷新事件
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	if h.hub == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "event stream unavailable")
		return
	}

	ch, cancel := h.hub.Subscribe()
	defer cancel()

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	h.logger.Debug("event stream opened", zap.String("remote", r.RemoteAddr))

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("event stream closed", zap.String("remote", r.RemoteAddr))
			return
		case ev, open := <-ch:
			if !open {
				return
			}
			if err := utils.SendSSEEvent(w, flusher, ev.Type, ev); err != nil {
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
