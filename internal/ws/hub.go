// Package ws serves the operator status surface: a live frame stream, a
// diagnostics stream and a health document.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	diag "github.com/coreman2200/funtimes-lumiwave/internal/diagnostics"
	"github.com/coreman2200/funtimes-lumiwave/internal/runner"
)

const writeWait = 200 * time.Millisecond

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Hub fans frames and diagnostics out to websocket viewers. Publishing never
// blocks: when viewers are slow, frames are dropped.
type Hub struct {
	mu        sync.RWMutex
	leds      int
	ledType   string
	state     string
	conn      string
	frameID   uint64
	rejected  uint64
	startTime time.Time

	clients     map[*client]bool
	diagClients map[*client]bool

	frames chan []byte
	diags  chan diag.Diagnostic
}

func NewHub(leds int, ledType string) *Hub {
	return &Hub{
		leds:        leds,
		ledType:     ledType,
		state:       "standby",
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		frames:      make(chan []byte, 4),
		diags:       make(chan diag.Diagnostic, 32),
	}
}

// Run broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case rgb := <-h.frames:
			h.broadcastFrame(rgb)
		case d := <-h.diags:
			h.broadcastDiag(d)
		}
	}
}

// PublishFrame implements led.FrameSink.
func (h *Hub) PublishFrame(rgb []byte) {
	select {
	case h.frames <- rgb:
	default:
	}
}

// Push queues a diagnostic, dropping it when the queue is full.
func (h *Hub) Push(d diag.Diagnostic) {
	if d.Time.IsZero() {
		d.Time = time.Now()
	}
	select {
	case h.diags <- d:
	default:
		log.Debug().Str("code", d.Code).Msg("diagnostic dropped")
	}
}

// ConnState records runner transitions for /health and /diag.
func (h *Hub) ConnState(id string, s runner.State, err error) {
	h.mu.Lock()
	h.conn = id
	h.state = s.String()
	if s == runner.Closed {
		h.conn = ""
		h.state = "standby"
	}
	h.mu.Unlock()

	h.Push(diag.Diagnostic{
		Severity: diag.Info,
		Code:     diag.CodeRunnerState,
		Summary:  "Runner " + s.String(),
		Evidence: map[string]any{"conn": id, "state": s.String()},
	})
	if err == nil {
		return
	}
	if errors.Is(err, runner.ErrCommit) {
		h.Push(diag.Diagnostic{
			Severity:       diag.Err,
			Code:           diag.CodeHWCommit,
			Summary:        "LED commit failed",
			Detail:         err.Error(),
			LikelyCauses:   []string{"SPI or PWM device unavailable", "Wiring fault"},
			SuggestedFixes: []string{"Check the LED type and pins in the config", "Restart with -reset"},
			Evidence:       map[string]any{"conn": id},
		})
		return
	}
	h.Push(diag.Diagnostic{
		Severity: diag.Warn,
		Code:     diag.CodeRunnerError,
		Summary:  "Connection ended with an error",
		Detail:   err.Error(),
		Evidence: map[string]any{"conn": id},
	})
}

// ConnRejected records a connection turned away while another one streams.
func (h *Hub) ConnRejected(remote string) {
	h.mu.Lock()
	h.rejected++
	h.mu.Unlock()
	h.Push(diag.Diagnostic{
		Severity:     diag.Warn,
		Code:         diag.CodeConnRejected,
		Summary:      "Connection rejected, LEDs busy",
		LikelyCauses: []string{"A second client is running"},
		Evidence:     map[string]any{"remote": remote},
	})
}

func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.HandleFramesWS)
	mux.HandleFunc("/diag", h.HandleDiagWS)
	mux.HandleFunc("/health", h.HandleHealth)
	return mux
}

func (h *Hub) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	c := h.accept(w, r, h.clients)
	if c == nil {
		return
	}
	b, _ := json.Marshal(map[string]any{"leds": h.leds, "type": h.ledType})
	_ = c.write(b)
}

func (h *Hub) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	h.accept(w, r, h.diagClients)
}

func (h *Hub) accept(w http.ResponseWriter, r *http.Request, set map[*client]bool) *client {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return nil
	}
	c := &client{conn: conn}
	h.mu.Lock()
	set[c] = true
	h.mu.Unlock()

	go func() {
		defer func() {
			h.mu.Lock()
			delete(set, c)
			h.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	return c
}

func (h *Hub) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	resp := map[string]any{
		"state":    h.state,
		"conn":     h.conn,
		"frame_id": h.frameID,
		"rejected": h.rejected,
		"leds":     h.leds,
		"type":     h.ledType,
		"uptime_s": time.Since(h.startTime).Seconds(),
	}
	h.mu.RUnlock()
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

type frame struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
}

func (h *Hub) broadcastFrame(rgb []byte) {
	h.mu.Lock()
	h.frameID++
	id := h.frameID
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	b, _ := json.Marshal(frame{T: time.Now().UnixNano(), FrameID: id, RGB: rgb})
	for _, c := range targets {
		if err := c.write(b); err != nil {
			log.Debug().Err(err).Msg("write frame")
		}
	}
}

func (h *Hub) broadcastDiag(d diag.Diagnostic) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.diagClients))
	for c := range h.diagClients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	b, _ := json.Marshal(d)
	for _, c := range targets {
		_ = c.write(b)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		c.conn.Close()
	}
	for c := range h.diagClients {
		c.conn.Close()
	}
}

func (h *Hub) viewers() (frames, diags int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients), len(h.diagClients)
}
