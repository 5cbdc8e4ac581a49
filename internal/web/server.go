// Package web exposes a small HTTP and WebSocket control surface for
// switching presets and watching playback status from another machine.
package web

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Controller is the slice of the application the server drives. Preset
// calls must be safe to invoke from HTTP handler goroutines; the app
// forwards them onto its own loop.
type Controller interface {
	Status() Status
	Presets() []string
	NextPreset()
	PreviousPreset()
	RandomPreset()
	SelectPreset(index int)
	SetAlbumArt(path string)
}

// Status is the broadcast snapshot.
type Status struct {
	ActivePreset  int     `json:"activePreset"`
	PresetName    string  `json:"presetName,omitempty"`
	Override      bool    `json:"override"`
	FPS           float64 `json:"fps"`
	PrecisionBits int     `json:"precisionBits"`
	Width         int     `json:"width"`
	Height        int     `json:"height"`
}

type presetRequest struct {
	Action string `json:"action"`
	Index  int    `json:"index"`
}

// Server pushes status to WebSocket clients and accepts preset commands
// over plain HTTP.
type Server struct {
	ctrl Controller
	log  *log.Logger

	mu      sync.Mutex
	clients map[*client]bool

	broadcast chan []byte
	done      chan struct{}
	upgrader  websocket.Upgrader
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	server *Server
}

// NewServer wires a server to its controller.
func NewServer(ctrl Controller, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(os.Stderr, "[web] ", log.LstdFlags)
	}
	return &Server{
		ctrl:      ctrl,
		log:       logger,
		clients:   make(map[*client]bool),
		broadcast: make(chan []byte, 64),
		done:      make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler builds the route table on its own mux so the server composes
// with whatever else the process serves.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/presets", s.handlePresets)
	mux.HandleFunc("/api/preset", s.handlePreset)
	mux.HandleFunc("/api/albumart", s.handleAlbumArt)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Start serves on the given port until the listener fails. Run it on
// its own goroutine.
func (s *Server) Start(port int) error {
	go s.broadcastLoop()
	go s.statusLoop()

	addr := fmt.Sprintf(":%d", port)
	s.log.Printf("control server on http://0.0.0.0%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// Close stops the broadcast loops. Connected clients drop on their next
// write.
func (s *Server) Close() {
	close(s.done)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ctrl.Status())
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	names := s.ctrl.Presets()
	if names == nil {
		names = []string{}
	}
	writeJSON(w, names)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req presetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch req.Action {
	case "next":
		s.ctrl.NextPreset()
	case "previous":
		s.ctrl.PreviousPreset()
	case "random":
		s.ctrl.RandomPreset()
	case "select":
		s.ctrl.SelectPreset(req.Index)
	default:
		http.Error(w, fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) handleAlbumArt(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Path == "" {
		http.Error(w, "a path is required", http.StatusBadRequest)
		return
	}
	s.ctrl.SetAlbumArt(req.Path)
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Printf("websocket upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64), server: s}
	s.mu.Lock()
	s.clients[c] = true
	s.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

func (s *Server) broadcastLoop() {
	for {
		select {
		case message := <-s.broadcast:
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.send <- message:
				default:
					close(c.send)
					delete(s.clients, c)
				}
			}
			s.mu.Unlock()
		case <-s.done:
			return
		}
	}
}

func (s *Server) statusLoop() {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			data, err := json.Marshal(s.ctrl.Status())
			if err != nil {
				continue
			}
			select {
			case s.broadcast <- data:
			default:
			}
		case <-s.done:
			return
		}
	}
}

func (c *client) readPump() {
	defer func() {
		c.server.mu.Lock()
		delete(c.server.clients, c)
		c.server.mu.Unlock()
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
