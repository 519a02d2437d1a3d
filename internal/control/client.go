// ABOUTME: WebSocket client for the remote control protocol
// ABOUTME: Sends commands to a player and routes state pushes and errors
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/spatial-go/internal/version"
)

// replyTimeout bounds how long Do waits for the player to answer
const replyTimeout = 5 * time.Second

// ErrClosed is returned once the connection is gone
var ErrClosed = errors.New("control connection closed")

// CommandError is a command the player rejected
type CommandError struct {
	Reply Error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s rejected (code %d): %s", e.Reply.Command, e.Reply.Code, e.Reply.Message)
}

// Client is a remote control connection to one player
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes and pending replies

	// States receives every state the player pushes or replies with
	States chan State

	lastID  uint64        // guarded by mu
	pending atomic.Uint64 // ID of the command Do waits for, 0 when idle
	replies chan Message
	ctx     context.Context
	cancel  context.CancelFunc
}

// Dial connects to a player's control endpoint, e.g. ws://host:8928/control
func Dial(ctx context.Context, url string) (*Client, error) {
	header := http.Header{"User-Agent": {version.UserAgent()}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:    conn,
		States:  make(chan State, 10),
		replies: make(chan Message, 1),
		ctx:     cctx,
		cancel:  cancel,
	}
	go c.readMessages()
	return c, nil
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer c.cancel()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Read error: %v", err)
			}
			return
		}

		var msg inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse control message: %v", err)
			continue
		}

		switch msg.Type {
		case TypeState:
			var state State
			if err := json.Unmarshal(msg.Payload, &state); err != nil {
				log.Printf("Bad state payload: %v", err)
				continue
			}
			select {
			case c.States <- state:
			default:
			}
			c.reply(Message{Type: msg.Type, ID: msg.ID, Payload: state})

		case TypeError:
			var e Error
			if err := json.Unmarshal(msg.Payload, &e); err != nil {
				log.Printf("Bad error payload: %v", err)
				continue
			}
			c.reply(Message{Type: msg.Type, ID: msg.ID, Payload: e})

		default:
			log.Printf("Unknown message type: %s", msg.Type)
		}
	}
}

// reply hands msg to Do when it answers the command Do waits for
func (c *Client) reply(msg Message) {
	if msg.ID == 0 || msg.ID != c.pending.Load() {
		return
	}
	select {
	case c.replies <- msg:
	default:
	}
}

// Do sends one command and waits for the reply carrying its ID
func (c *Client) Do(ctx context.Context, msgType string, payload interface{}) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lastID++
	id := c.lastID
	c.pending.Store(id)
	defer c.pending.Store(0)

	// Drop a reply to a command that timed out
	select {
	case <-c.replies:
	default:
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	if err := c.conn.WriteJSON(Message{Type: msgType, ID: id, Payload: payload}); err != nil {
		return State{}, fmt.Errorf("failed to send %s: %w", msgType, err)
	}

	ctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()

	for {
		select {
		case msg := <-c.replies:
			if msg.ID != id {
				continue
			}
			if e, ok := msg.Payload.(Error); ok {
				return State{}, &CommandError{Reply: e}
			}
			return msg.Payload.(State), nil
		case <-c.ctx.Done():
			return State{}, ErrClosed
		case <-ctx.Done():
			return State{}, fmt.Errorf("waiting for %s reply: %w", msgType, ctx.Err())
		}
	}
}

// Status asks for the current state
func (c *Client) Status(ctx context.Context) (State, error) {
	return c.Do(ctx, TypeStatus, nil)
}

// Play resumes playback
func (c *Client) Play(ctx context.Context) (State, error) {
	return c.Do(ctx, TypePlay, nil)
}

// Pause pauses playback
func (c *Client) Pause(ctx context.Context) (State, error) {
	return c.Do(ctx, TypePause, nil)
}

// Seek moves playback to ms
func (c *Client) Seek(ctx context.Context, ms float64) (State, error) {
	return c.Do(ctx, TypeSeek, Seek{Ms: ms})
}

// Orient sets the listener rotation
func (c *Client) Orient(ctx context.Context, o Orientation) (State, error) {
	return c.Do(ctx, TypeOrientation, o)
}

// Done is closed when the connection ends
func (c *Client) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.cancel()
	return c.conn.Close()
}
