package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/hamishcoleman/led-sp108e/internal/diagnostics"
	"github.com/hamishcoleman/led-sp108e/internal/layout"
	"github.com/hamishcoleman/led-sp108e/internal/led"
)

const writeWait = 200 * time.Millisecond

// State is the live preview: it mirrors the frames sent to the LEDs to any
// number of websocket clients. Publish never blocks on the network.
type State struct {
	mu     sync.RWMutex
	Layout layout.Layout
	Stride int
	RunID  string
	Driver string
	Log    zerolog.Logger

	rgb         []byte
	frameID     uint64
	fps         int64
	startTime   time.Time
	clients     map[*client]bool
	diagClients map[*client]bool

	dirty chan struct{}
}

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

func NewState(l layout.Layout, stride int, runID string) *State {
	return &State{
		Layout:      l,
		Stride:      stride,
		RunID:       runID,
		Log:         zerolog.Nop(),
		rgb:         make([]byte, l.Count()*3),
		startTime:   time.Now(),
		clients:     map[*client]bool{},
		diagClients: map[*client]bool{},
		dirty:       make(chan struct{}, 1),
	}
}

// Mux serves /ws, /diag and /health.
func (s *State) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// Publish records a packed frame (stride layout) for the next broadcast.
func (s *State) Publish(frame []byte, fps int64) {
	s.mu.Lock()
	s.rgb = led.Compact(s.rgb, frame, s.Layout.Count(), s.Stride)
	s.frameID++
	s.fps = fps
	s.mu.Unlock()

	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

// Run broadcasts the latest frame whenever one was published, until ctx ends.
func (s *State) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-s.dirty:
			s.broadcastFrame()
		}
	}
}

func (s *State) upgrade(w http.ResponseWriter, r *http.Request, set map[*client]bool) *client {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		s.Log.Debug().Err(err).Msg("upgrade")
		return nil
	}
	c := &client{conn: conn}
	s.mu.Lock()
	set[c] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(set, c)
			s.mu.Unlock()
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

func (s *State) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	if c := s.upgrade(w, r, s.clients); c != nil {
		s.sendTopology(c)
	}
}

func (s *State) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	s.upgrade(w, r, s.diagClients)
}

func (s *State) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"run_id":   s.RunID,
		"driver":   s.Driver,
		"frame_id": s.frameID,
		"uptime_s": time.Since(s.startTime).Seconds(),
		"count":    s.Layout.Count(),
		"fps":      s.fps,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *State) sendTopology(c *client) {
	s.mu.RLock()
	top := map[string]any{
		"width":     s.Layout.Width,
		"height":    s.Layout.Height,
		"traversal": s.Layout.Order.String(),
		"driver":    s.Driver,
		"run_id":    s.RunID,
	}
	s.mu.RUnlock()
	b, _ := json.Marshal(top)
	_ = c.write(b)
}

type frameMsg struct {
	T       int64  `json:"t"`
	FrameID uint64 `json:"frame_id"`
	RGB     []byte `json:"rgb"`
	FPS     int64  `json:"fps"`
}

func (s *State) broadcastFrame() {
	s.mu.RLock()
	b, _ := json.Marshal(frameMsg{T: time.Now().UnixNano(), FrameID: s.frameID, RGB: s.rgb, FPS: s.fps})
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		if err := c.write(b); err != nil {
			s.Log.Debug().Err(err).Msg("write frame")
		}
	}
}

// PushDiag sends d to every diagnostics client.
func (s *State) PushDiag(d diag.Diagnostic) {
	b, _ := json.Marshal(d)
	s.mu.RLock()
	clients := make([]*client, 0, len(s.diagClients))
	for c := range s.diagClients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()
	for _, c := range clients {
		_ = c.write(b)
	}
}

func (s *State) closeAll() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for c := range s.clients {
		c.conn.Close()
	}
	for c := range s.diagClients {
		c.conn.Close()
	}
}
