package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/gonewx/shimmer/pkg/scene"
)

// Control commands accepted on /control as {"cmd": "..."}.
const (
	CmdSkip   = "skip"
	CmdPause  = "pause"
	CmdResume = "resume"
)

const writeTimeout = 200 * time.Millisecond

// Option configures a Server.
type Option func(*Server)

// WithCompression enables lz4 frame payloads.
func WithCompression(on bool) Option {
	return func(s *Server) { s.compress = on }
}

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l.With().Str("component", "stream").Logger() }
}

// health is the /health body; written by the simulation goroutine under mu.
type health struct {
	FrameID  uint32  `json:"frame_id"`
	Clients  int     `json:"clients"`
	Alive    int     `json:"alive"`
	Item     string  `json:"item"`
	State    string  `json:"state"`
	Opacity  float64 `json:"opacity"`
	Paused   bool    `json:"paused"`
	UptimeS  float64 `json:"uptime_s"`
	Compress bool    `json:"compress"`
}

// Server steps one scene and broadcasts every frame to websocket clients.
// The scene is only touched by the goroutine calling Run (or Step); handlers
// talk to it through the control channel.
type Server struct {
	scene    *scene.Scene
	compress bool
	logger   zerolog.Logger
	upgrader websocket.Upgrader
	controls chan string
	start    time.Time

	paused  bool
	frameID uint32

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
	status  health
}

// NewServer creates a server for sc.
func NewServer(sc *scene.Scene, opts ...Option) *Server {
	s := &Server{
		scene:    sc,
		logger:   zerolog.Nop(),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		controls: make(chan string, 16),
		start:    time.Now(),
		clients:  map[*websocket.Conn]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler routes /frames, /control and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/frames", s.HandleFrames)
	mux.HandleFunc("/control", s.HandleControl)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

// Run steps the scene fps times per second until ctx is done, then closes
// every client connection.
func (s *Server) Run(ctx context.Context, fps int) error {
	fps = max(1, fps)
	dt := 1 / float64(fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	defer s.closeClients()

	s.logger.Info().Int("fps", fps).Bool("lz4", s.compress).Msg("stream loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Uint32("frames", s.frameID).Msg("stream loop stopped")
			return nil
		case <-ticker.C:
			if err := s.Step(dt); err != nil {
				return err
			}
		}
	}
}

// Step applies pending control commands, advances the scene by dt unless
// paused, and broadcasts the resulting frame.
func (s *Server) Step(dt float64) error {
	s.drainControls()
	if !s.paused {
		if err := s.scene.Update(dt); err != nil {
			return err
		}
	}
	s.frameID++

	samples := s.scene.Snapshot()
	frame, err := Encode(s.frameID, samples, s.compress)
	if err != nil {
		return err
	}
	s.updateStatus(len(samples))
	s.broadcast(frame)
	return nil
}

func (s *Server) drainControls() {
	for {
		select {
		case cmd := <-s.controls:
			switch cmd {
			case CmdSkip:
				s.scene.Skip()
			case CmdPause:
				s.paused = true
			case CmdResume:
				s.paused = false
			}
			s.logger.Debug().Str("cmd", cmd).Msg("control applied")
		default:
			return
		}
	}
}

func (s *Server) updateStatus(alive int) {
	st := s.scene.Stats()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = health{
		FrameID:  s.frameID,
		Clients:  len(s.clients),
		Alive:    alive,
		Item:     st.ItemName,
		State:    st.State.String(),
		Opacity:  st.Opacity,
		Paused:   s.paused,
		UptimeS:  time.Since(s.start).Seconds(),
		Compress: s.compress,
	}
}

func (s *Server) broadcast(frame []byte) {
	s.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(s.clients))
	for c := range s.clients {
		conns = append(conns, c)
	}
	s.mu.RUnlock()

	for _, c := range conns {
		c.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.WriteMessage(websocket.BinaryMessage, frame); err != nil {
			s.logger.Debug().Err(err).Msg("write frame")
			s.removeClient(c)
		}
	}
}

// HandleFrames upgrades to a websocket that receives one binary message per frame.
func (s *Server) HandleFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug().Err(err).Msg("upgrade frames")
		return
	}
	s.mu.Lock()
	s.clients[conn] = true
	n := len(s.clients)
	s.mu.Unlock()
	s.logger.Info().Str("remote", r.RemoteAddr).Int("clients", n).Msg("client connected")

	// 读循环只用于感知断开
	go func() {
		defer s.removeClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleControl upgrades to a websocket accepting {"cmd": "skip|pause|resume"}.
func (s *Server) HandleControl(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Cmd string `json:"cmd"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Cmd {
		case CmdSkip, CmdPause, CmdResume:
		default:
			s.logger.Warn().Str("cmd", msg.Cmd).Msg("unknown control command")
			continue
		}
		select {
		case s.controls <- msg.Cmd:
		default:
			s.logger.Warn().Str("cmd", msg.Cmd).Msg("control queue full, dropping")
		}
	}
}

// HandleHealth reports the latest frame as JSON.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := s.status
	resp.Clients = len(s.clients)
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Clients returns the number of connected frame clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) removeClient(c *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		c.Close()
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	conns := s.clients
	s.clients = map[*websocket.Conn]bool{}
	s.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down")
	for c := range conns {
		_ = c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
		c.Close()
	}
}
