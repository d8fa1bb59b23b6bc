package wall

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/uninspired/inspire-wall/backend/internal/metrics"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/overlay"
	"github.com/uninspired/inspire-wall/backend/internal/service/reaction"
	wallservice "github.com/uninspired/inspire-wall/backend/internal/service/wall"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// WebSocketHandler 指针叠层的 WebSocket 处理器
type WebSocketHandler struct {
	wall      *wallservice.Service
	reactions *reaction.Synchronizer
	metrics   *metrics.Metrics
	logger    *zap.Logger
	upgrader  websocket.Upgrader
	// clock 驱动叠层的延迟隐藏，nil 时使用真实时钟
	clock overlay.Clock
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(wallSvc *wallservice.Service, reactions *reaction.Synchronizer, m *metrics.Metrics, logger *zap.Logger) *WebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebSocketHandler{
		wall:      wallSvc,
		reactions: reactions,
		metrics:   m,
		logger:    logger.Named("overlay-ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterWebSocketRoutes 注册WebSocket路由
func (h *WebSocketHandler) RegisterWebSocketRoutes(r chi.Router) {
	r.Get("/wall/ws", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// ReactMessage 在叠层中点击反应按钮
type ReactMessage struct {
	ThreadID string `json:"threadId"`
	Kind     string `json:"kind"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// wsConn serializes writes; gorilla connections allow one writer at a time.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) writeJSON(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(v)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

// handleWebSocket 处理WebSocket连接
func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	raw, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("upgrade failed", zap.Error(err))
		return
	}
	defer raw.Close()

	conn := &wsConn{conn: raw}
	sessionID := uuid.NewString()

	h.metrics.OverlayOpened()
	defer h.metrics.OverlayClosed()
	h.logger.Debug("overlay connected", zap.String("session", sessionID))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	lens := overlay.New(h.wall, overlay.Config{
		Clock:  h.clock,
		Logger: h.logger,
		Emit: func(frame overlay.Frame) {
			h.sendFrame(conn, sessionID, frame)
		},
	})
	defer lens.Close()

	raw.SetReadDeadline(time.Now().Add(readTimeout))
	raw.SetPongHandler(func(string) error {
		raw.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	go h.pingLoop(ctx, conn)

	h.sendInfo(conn, sessionID, map[string]any{
		"type":   "connected",
		"canvas": h.wall.Layout().Canvas,
	})

	for {
		var msg inboundMessage
		if err := raw.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("read error", zap.String("session", sessionID), zap.Error(err))
			}
			return
		}

		raw.SetReadDeadline(time.Now().Add(readTimeout))

		if msg.SessionID != "" && msg.SessionID != sessionID {
			h.sendError(conn, "session mismatch")
			continue
		}

		h.handleMessage(ctx, conn, sessionID, lens, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, conn *wsConn, sessionID string, lens *overlay.Overlay, msg *inboundMessage) {
	switch msg.Type {
	case "pointer":
		h.handlePointer(conn, sessionID, lens, msg.Data)
	case "react":
		h.handleReact(ctx, conn, sessionID, msg.Data)
	default:
		h.sendError(conn, "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) handlePointer(conn *wsConn, sessionID string, lens *overlay.Overlay, raw json.RawMessage) {
	var ev overlay.PointerEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		h.sendError(conn, "invalid pointer payload")
		return
	}

	frame, err := lens.Move(ev)
	if errors.Is(err, overlay.ErrDegenerateBox) {
		// The element is collapsed or hidden; nothing to draw.
		return
	}
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	h.sendFrame(conn, sessionID, frame)
}

func (h *WebSocketHandler) handleReact(ctx context.Context, conn *wsConn, sessionID string, raw json.RawMessage) {
	var msg ReactMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(conn, "invalid react payload")
		return
	}

	kind, _ := thread.ParseReactionKind(msg.Kind)
	pending, err := h.reactions.React(ctx, msg.ThreadID, kind)
	if err != nil {
		h.sendError(conn, err.Error())
		return
	}
	if pending == nil {
		h.sendError(conn, "thread not found")
		return
	}

	h.sendInfo(conn, sessionID, map[string]any{
		"type":           "reaction",
		"threadId":       pending.Thread.ID,
		"reactions":      pending.Thread.Reactions,
		"totalReactions": thread.TotalReactions(pending.Thread),
	})
}

func (h *WebSocketHandler) sendFrame(conn *wsConn, sessionID string, frame overlay.Frame) {
	msg := outgoingMessage{
		Type:      "frame",
		SessionID: sessionID,
		Data:      frame,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		h.logger.Debug("write frame failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendInfo(conn *wsConn, sessionID string, data map[string]any) {
	msg := outgoingMessage{
		Type:      "result",
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		h.logger.Debug("write info failed", zap.Error(err))
	}
}

func (h *WebSocketHandler) sendError(conn *wsConn, message string) {
	msg := outgoingMessage{
		Type:      "error",
		Data:      map[string]string{"message": message},
		Timestamp: time.Now().Unix(),
	}
	if err := conn.writeJSON(msg); err != nil {
		h.logger.Debug("write error failed", zap.Error(err))
	}
}

// pingLoop 定期发送ping消息
func (h *WebSocketHandler) pingLoop(ctx context.Context, conn *wsConn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				return
			}
		}
	}
}
