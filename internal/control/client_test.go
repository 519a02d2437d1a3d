// ABOUTME: Tests for the remote control client
// ABOUTME: Runs the client against a real control server over httptest
package control

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/gorilla/websocket"

	"github.com/Resonate-Protocol/spatial-go/pkg/audio"
)

func dialClient(t *testing.T, s *Server) *Client {
	t.Helper()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+DefaultPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientCommands(t *testing.T) {
	player := newFakePlayer()
	c := dialClient(t, New(Config{}, player))
	ctx := context.Background()

	state, err := c.Play(ctx)
	if err != nil {
		t.Fatalf("play failed: %v", err)
	}
	if state.Playback != "playing" {
		t.Errorf("expected playing, got %q", state.Playback)
	}

	if _, err := c.Seek(ctx, 2500); err != nil {
		t.Fatalf("seek failed: %v", err)
	}

	yaw := 90.0
	state, err = c.Orient(ctx, Orientation{Yaw: &yaw})
	if err != nil {
		t.Fatalf("orient failed: %v", err)
	}
	if diff := cmp.Diff(90.0, state.Heading.Azimuth, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("azimuth mismatch (-want +got):\n%s", diff)
	}

	state, err = c.Pause(ctx)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if state.Playback != "paused" {
		t.Errorf("expected paused, got %q", state.Playback)
	}

	player.mu.Lock()
	defer player.mu.Unlock()
	if diff := cmp.Diff([]string{"play", "seek", "euler", "pause"}, player.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestClientCommandError(t *testing.T) {
	player := newFakePlayer()
	player.seekErr = audio.ErrNotInitialised
	c := dialClient(t, New(Config{}, player))

	_, err := c.Seek(context.Background(), 1)
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("expected CommandError, got %v", err)
	}
	if cmdErr.Reply.Command != TypeSeek || cmdErr.Reply.Code != int(audio.ErrNotInitialised) {
		t.Errorf("unexpected reply %+v", cmdErr.Reply)
	}
}

func TestClientReceivesBroadcast(t *testing.T) {
	s := New(Config{}, newFakePlayer())
	c := dialClient(t, s)

	if _, err := c.Status(context.Background()); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	// Drain the status reply
	<-c.States

	s.Broadcast()
	select {
	case state := <-c.States:
		if state.Layout != "tbe_8_2" {
			t.Errorf("unexpected layout %q", state.Layout)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no broadcast received")
	}
}

func TestClientDoneAfterServerStops(t *testing.T) {
	s := New(Config{Addr: "127.0.0.1:0"}, newFakePlayer())
	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, fmt.Sprintf("ws://127.0.0.1:%d%s", s.Port(), DefaultPath))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c.Close()

	if _, err := c.Status(ctx); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	select {
	case <-c.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("client did not notice the server going away")
	}
	if _, err := c.Status(context.Background()); err == nil {
		t.Error("expected an error after the server stopped")
	}
}

// scriptedPlayer answers every command with the messages reply builds for it
func scriptedPlayer(t *testing.T, reply func(cmd inbound) []Message) *Client {
	t.Helper()

	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			var cmd inbound
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			for _, msg := range reply(cmd) {
				if err := conn.WriteJSON(msg); err != nil {
					return
				}
			}
		}
	}))
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c, err := Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"))
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientIgnoresPushesWhileWaiting(t *testing.T) {
	c := scriptedPlayer(t, func(cmd inbound) []Message {
		return []Message{
			{Type: TypeState, Payload: State{Playback: "playing"}},
			{Type: TypeState, ID: cmd.ID + 100, Payload: State{Playback: "stale"}},
			{Type: TypeError, ID: cmd.ID, Payload: Error{Command: cmd.Type, Message: "no stream", Code: int(audio.ErrNotInitialised)}},
		}
	})

	for i := 0; i < 3; i++ {
		_, err := c.Seek(context.Background(), 1000)
		var cmdErr *CommandError
		if !errors.As(err, &cmdErr) {
			t.Fatalf("command %d: expected CommandError, got %v", i, err)
		}
		if cmdErr.Reply.Command != TypeSeek {
			t.Errorf("command %d: unexpected reply %+v", i, cmdErr.Reply)
		}
	}
}

func TestClientMatchesReplyToCommand(t *testing.T) {
	c := scriptedPlayer(t, func(cmd inbound) []Message {
		return []Message{
			{Type: TypeError, Payload: Error{Message: "unrelated"}},
			{Type: TypeState, ID: cmd.ID, Payload: State{Playback: "paused"}},
		}
	})

	state, err := c.Pause(context.Background())
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if state.Playback != "paused" {
		t.Errorf("expected paused, got %q", state.Playback)
	}
}
