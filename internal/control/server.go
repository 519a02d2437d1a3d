// ABOUTME: WebSocket remote control server for the spatial player
// ABOUTME: Applies transport, seek and orientation commands and reports player state
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
	"github.com/Resonate-Protocol/spatial-go/pkg/geom"
	"github.com/Resonate-Protocol/spatial-go/pkg/stream"
)

// DefaultPath is where the WebSocket endpoint is served
const DefaultPath = "/control"

const (
	writeDeadline = 10 * time.Second
	pingInterval  = 30 * time.Second
	sendBuffer    = 16
)

// Player is the part of the stream controller remotes can drive
type Player interface {
	Play() error
	Pause() error
	Seek(ms float64) error
	SetListenerRotation(q geom.Quat)
	SetListenerRotationVectors(forward, up geom.Vector3)
	SetListenerRotationEuler(yaw, pitch, roll float64)
	ListenerRotation() geom.Quat
	State() stream.State
	PlayState() audio.PlayState
	ElapsedTimeMs() float64
	DurationMs() float64
	Layout() audio.ChannelLayout
}

// Config holds control server configuration
type Config struct {
	Addr string
	Path string
}

// Server accepts remote control connections
type Server struct {
	config   Config
	player   Player
	upgrader websocket.Upgrader
	mux      *http.ServeMux

	httpServer *http.Server
	listener   net.Listener

	clients map[*client]struct{}
	mu      sync.Mutex
	wg      sync.WaitGroup
}

type client struct {
	conn     *websocket.Conn
	sendChan chan Message
	done     chan struct{}
}

// New creates a control server for player
func New(config Config, player Player) *Server {
	if config.Path == "" {
		config.Path = DefaultPath
	}

	s := &Server{
		config: config,
		player: player,
		mux:    http.NewServeMux(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Remotes are native apps on the local network
				return true
			},
		},
		clients: make(map[*client]struct{}),
	}
	s.mux.HandleFunc(config.Path, s.handleWebSocket)
	return s
}

// Handler returns the HTTP handler serving the control endpoint
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	s.httpServer = &http.Server{Handler: s.mux}

	log.Printf("Control server listening on %s%s", listener.Addr(), s.config.Path)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Control server error: %v", err)
		}
	}()
	return nil
}

// Port returns the bound TCP port, 0 before Start
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Stop closes every connection and shuts the HTTP server down
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.wg.Wait()
	return err
}

// Clients returns the number of connected remotes
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast sends the current player state to every remote
func (s *Server) Broadcast() {
	msg := Message{Type: TypeState, Payload: s.snapshot()}

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.send(msg)
	}
}

// handleWebSocket handles WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	log.Printf("Remote connected from %s", r.RemoteAddr)
	s.handleConnection(conn)
	log.Printf("Remote %s disconnected", r.RemoteAddr)
}

// handleConnection reads commands until the remote goes away
func (s *Server) handleConnection(conn *websocket.Conn) {
	c := &client{
		conn:     conn,
		sendChan: make(chan Message, sendBuffer),
		done:     make(chan struct{}),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.clientWriter(c)
	}()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		close(c.done)
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		c.send(s.handleMessage(data))
	}
}

// send queues msg, dropping it when the remote is not keeping up
func (c *client) send(msg Message) {
	select {
	case c.sendChan <- msg:
	default:
		log.Printf("Dropping %s message, remote send buffer full", msg.Type)
	}
}

// clientWriter owns all writes to the connection
func (s *Server) clientWriter(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return

		case msg := <-c.sendChan:
			data, err := json.Marshal(msg)
			if err != nil {
				log.Printf("Error marshaling message: %v", err)
				continue
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Printf("Error writing message: %v", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// handleMessage applies one command and returns the reply
func (s *Server) handleMessage(data []byte) Message {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return errorMessage("", fmt.Errorf("malformed message: %v: %w", err, audio.ErrInvalidParam))
	}

	var err error
	switch msg.Type {
	case TypePlay:
		err = s.player.Play()
	case TypePause:
		err = s.player.Pause()
	case TypeSeek:
		var seek Seek
		if err = decodePayload(msg.Payload, &seek); err == nil {
			err = s.player.Seek(seek.Ms)
		}
	case TypeOrientation:
		var orientation Orientation
		if err = decodePayload(msg.Payload, &orientation); err == nil {
			err = s.applyOrientation(orientation)
		}
	case TypeStatus:
	default:
		err = fmt.Errorf("unknown message type %q: %w", msg.Type, audio.ErrNotSupported)
	}

	if err != nil {
		log.Printf("Remote command %s failed: %v", msg.Type, err)
		reply := errorMessage(msg.Type, err)
		reply.ID = msg.ID
		return reply
	}
	return Message{Type: TypeState, ID: msg.ID, Payload: s.snapshot()}
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("missing payload: %w", audio.ErrInvalidParam)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("bad payload: %v: %w", err, audio.ErrInvalidParam)
	}
	return nil
}

// applyOrientation sets the listener rotation from whichever form was sent
func (s *Server) applyOrientation(o Orientation) error {
	switch {
	case o.Quat != nil:
		q := geom.Quat{W: o.Quat.W, X: o.Quat.X, Y: o.Quat.Y, Z: o.Quat.Z}
		if q.Norm() == 0 {
			return fmt.Errorf("zero quaternion: %w", audio.ErrInvalidParam)
		}
		s.player.SetListenerRotation(q)
	case o.Forward != nil && o.Up != nil:
		forward := geom.Vec(o.Forward[0], o.Forward[1], o.Forward[2])
		up := geom.Vec(o.Up[0], o.Up[1], o.Up[2])
		if forward.MagSquared() == 0 || up.MagSquared() == 0 {
			return fmt.Errorf("zero forward or up vector: %w", audio.ErrInvalidParam)
		}
		s.player.SetListenerRotationVectors(forward, up)
	case o.Yaw != nil || o.Pitch != nil || o.Roll != nil:
		s.player.SetListenerRotationEuler(degrees(o.Yaw), degrees(o.Pitch), degrees(o.Roll))
	default:
		return fmt.Errorf("orientation needs quat, forward and up, or yaw/pitch/roll: %w", audio.ErrInvalidParam)
	}
	return nil
}

// degrees converts an optional angle in degrees to radians
func degrees(v *float64) float64 {
	if v == nil {
		return 0
	}
	return geom.DegToRad(*v)
}

// snapshot collects the state reported to remotes
func (s *Server) snapshot() State {
	q := s.player.ListenerRotation()
	heading := geom.AedFromVector(q.Forward())

	return State{
		Stream:     s.player.State().String(),
		Playback:   s.player.PlayState().String(),
		ElapsedMs:  s.player.ElapsedTimeMs(),
		DurationMs: s.player.DurationMs(),
		Layout:     s.player.Layout().String(),
		Rotation:   Quat{W: q.W, X: q.X, Y: q.Y, Z: q.Z},
		Heading: Heading{
			Azimuth:   heading.Azimuth,
			Elevation: heading.Elevation,
		},
	}
}

func errorMessage(command string, err error) Message {
	return Message{
		Type: TypeError,
		Payload: Error{
			Command: command,
			Message: err.Error(),
			Code:    int(audio.Code(err)),
		},
	}
}
