package wall

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/uninspired/inspire-wall/backend/internal/gateway"
	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
	"github.com/uninspired/inspire-wall/backend/internal/service/events"
	"github.com/uninspired/inspire-wall/backend/internal/service/layout"
	"github.com/uninspired/inspire-wall/backend/internal/service/overlay"
	"github.com/uninspired/inspire-wall/backend/internal/service/reaction"
	wallservice "github.com/uninspired/inspire-wall/backend/internal/service/wall"
)

type manualClock struct {
	mu    sync.Mutex
	funcs []func()
}

type manualTimer struct{}

func (manualTimer) Stop() bool { return true }

func (c *manualClock) AfterFunc(d time.Duration, f func()) overlay.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.funcs = append(c.funcs, f)
	return manualTimer{}
}

func (c *manualClock) fire() {
	c.mu.Lock()
	funcs := c.funcs
	c.funcs = nil
	c.mu.Unlock()
	for _, f := range funcs {
		f()
	}
}

func setupRouter(t *testing.T) (*chi.Mux, *wallservice.Service, *events.Hub) {
	return setupRouterWithClock(t, nil)
}

func setupRouterWithClock(t *testing.T, clock overlay.Clock) (*chi.Mux, *wallservice.Service, *events.Hub) {
	t.Helper()
	drop := thread.DefaultDrop()
	remote := gateway.NewMemory(&drop, thread.Sample())
	engine, err := layout.NewEngine(layout.DefaultConfig())
	if err != nil {
		t.Fatalf("NewEngine err: %v", err)
	}
	store := thread.NewStore(drop, nil, thread.SourceSample)
	hub := events.NewHub(8)
	wallSvc := wallservice.New(store, remote, engine, wallservice.Config{Seed: 11, Hub: hub})
	if err := wallSvc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload err: %v", err)
	}
	syncer := reaction.New(store, remote, wallSvc, reaction.Config{Hub: hub})
	t.Cleanup(func() {
		syncer.Wait()
		wallSvc.Close()
	})

	r := chi.NewRouter()
	h := New(wallSvc, syncer, hub, nil, nil)
	h.ws.clock = clock
	h.RegisterRoutes(r)
	return r, wallSvc, hub
}

func TestLayoutJSON(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/wall", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body struct {
		Layout layout.Layout `json:"layout"`
		Source string        `json:"source"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if body.Layout.Placeholder || len(body.Layout.Zones) != 45 {
		t.Fatalf("unexpected layout: placeholder=%v zones=%d", body.Layout.Placeholder, len(body.Layout.Zones))
	}
	if body.Source != "remote" {
		t.Fatalf("unexpected source %q", body.Source)
	}
}

func TestLayoutSVG(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/wall.svg", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if got := resp.Header().Get("Content-Type"); got != "image/svg+xml" {
		t.Fatalf("unexpected content type %q", got)
	}
	if !strings.Contains(resp.Body.String(), "<svg") {
		t.Fatal("expected svg document")
	}
}

func TestEventStreamReplaysLatest(t *testing.T) {
	r, _, hub := setupRouter(t)
	hub.Publish(events.Event{Type: events.TypeCountdown, Data: "00:10:00:00"})

	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/wall/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request err: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	seen := map[string]bool{}
	reader := bufio.NewReader(resp.Body)
	for len(seen) < 2 {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read err: %v (seen %v)", err, seen)
		}
		if name, ok := strings.CutPrefix(strings.TrimSpace(line), "event: "); ok {
			seen[name] = true
		}
	}
	if !seen[events.TypeCountdown] || !seen[events.TypeReload] {
		t.Fatalf("expected countdown and reload events, got %v", seen)
	}
}

func TestOverlayWebSocket(t *testing.T) {
	r, wallSvc, _ := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wall/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello outgoingMessage
	if err := conn.ReadJSON(&hello); err != nil || hello.Type != "result" {
		t.Fatalf("expected connected message, got %+v err=%v", hello, err)
	}

	zone := wallSvc.Layout().Zones[0]
	pointer := overlay.PointerEvent{
		Client:   overlay.Point{X: zone.X + zone.Width/2, Y: zone.Y + zone.Height/2},
		Box:      overlay.Box{Width: 900, Height: 240},
		Viewport: overlay.Viewport{Width: 1280, Height: 800},
	}
	data, _ := json.Marshal(pointer)
	if err := conn.WriteJSON(inboundMessage{Type: "pointer", Data: data}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var reply struct {
		Type string        `json:"type"`
		Data overlay.Frame `json:"data"`
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if reply.Type != "frame" || reply.Data.State != overlay.Tracking {
		t.Fatalf("unexpected frame %+v", reply)
	}
	if reply.Data.Tooltip == nil || reply.Data.Tooltip.ThreadID != zone.ThreadID {
		t.Fatalf("expected tooltip for %s, got %+v", zone.ThreadID, reply.Data.Tooltip)
	}
	if !strings.Contains(reply.Data.LensSVG, `r="75"`) {
		t.Fatalf("expected lens svg, got %q", reply.Data.LensSVG)
	}
}

func TestOverlayWebSocketHidesAfterLeave(t *testing.T) {
	clock := &manualClock{}
	r, wallSvc, _ := setupRouterWithClock(t, clock)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wall/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello outgoingMessage
	_ = conn.ReadJSON(&hello)

	type frameReply struct {
		Type string        `json:"type"`
		Data overlay.Frame `json:"data"`
	}
	send := func(ev overlay.PointerEvent) frameReply {
		t.Helper()
		data, _ := json.Marshal(ev)
		if err := conn.WriteJSON(inboundMessage{Type: "pointer", Data: data}); err != nil {
			t.Fatalf("write err: %v", err)
		}
		var reply frameReply
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatalf("read err: %v", err)
		}
		return reply
	}

	zone := wallSvc.Layout().Zones[0]
	entered := send(overlay.PointerEvent{
		Client:   overlay.Point{X: zone.X + zone.Width/2, Y: zone.Y + zone.Height/2},
		Box:      overlay.Box{Width: 900, Height: 240},
		Viewport: overlay.Viewport{Width: 1280, Height: 800},
	})
	if entered.Data.Tooltip == nil {
		t.Fatalf("expected tooltip, got %+v", entered.Data)
	}

	left := send(overlay.PointerEvent{Leave: true})
	if left.Data.State != overlay.Tracking || !left.Data.HidePending {
		t.Fatalf("expected pending hide, got %+v", left.Data)
	}

	clock.fire()

	var hidden frameReply
	if err := conn.ReadJSON(&hidden); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if hidden.Type != "frame" || hidden.Data.State != overlay.Idle {
		t.Fatalf("expected idle frame, got %+v", hidden)
	}
	if hidden.Data.TooltipDestroyed != entered.Data.Tooltip.ID {
		t.Fatalf("expected tooltip %s destroyed, got %q", entered.Data.Tooltip.ID, hidden.Data.TooltipDestroyed)
	}
}

func TestOverlayWebSocketReact(t *testing.T) {
	r, wallSvc, hub := setupRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/wall/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial err: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var hello outgoingMessage
	_ = conn.ReadJSON(&hello)

	data, _ := json.Marshal(ReactMessage{ThreadID: "002", Kind: "sparkles"})
	if err := conn.WriteJSON(inboundMessage{Type: "react", Data: data}); err != nil {
		t.Fatalf("write err: %v", err)
	}

	var reply struct {
		Type string         `json:"type"`
		Data map[string]any `json:"data"`
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("read err: %v", err)
	}
	if reply.Data["type"] != "reaction" {
		t.Fatalf("unexpected reply %+v", reply)
	}
	got, _ := wallSvc.Find("002")
	if got.Reactions.Get(thread.Sparkles) != 46 {
		t.Fatalf("expected sparkles 46, got %d", got.Reactions.Get(thread.Sparkles))
	}
	if _, ok := hub.Last(events.TypeReaction); !ok {
		t.Fatal("expected reaction event on the hub")
	}
}
