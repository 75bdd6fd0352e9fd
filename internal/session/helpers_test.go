package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/pixil98/tickmud/internal/auth"
	"github.com/pixil98/tickmud/internal/bus"
	"github.com/pixil98/tickmud/internal/commands"
	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/storage"
)

// scriptedConn replays frames and records everything sent back.
type scriptedConn struct {
	// poll runs before every read, standing in for the bus loop delivering
	// between client frames.
	poll func()

	mu     sync.Mutex
	frames []string
	read   int
	sent   []any
	closed bool
}

func newScriptedConn(frames ...string) *scriptedConn {
	return &scriptedConn{frames: frames}
}

func (c *scriptedConn) ReadFrame(ctx context.Context) ([]byte, error) {
	if c.poll != nil {
		c.poll()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.read >= len(c.frames) {
		return nil, io.EOF
	}
	f := c.frames[c.read]
	c.read++
	return []byte(f), nil
}

func (c *scriptedConn) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	c.sent = append(c.sent, v)
	return nil
}

func (c *scriptedConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// kinds summarizes sent messages as their error code or messageType.
func (c *scriptedConn) kinds() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, v := range c.sent {
		data, _ := json.Marshal(v)
		var env struct {
			Error       string `json:"error"`
			MessageType string `json:"messageType"`
		}
		_ = json.Unmarshal(data, &env)
		if env.Error != "" {
			out = append(out, env.Error)
		} else {
			out = append(out, env.MessageType)
		}
	}
	return out
}

func (c *scriptedConn) errors() []ErrorFrame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ErrorFrame
	for _, v := range c.sent {
		if e, ok := v.(ErrorFrame); ok {
			out = append(out, e)
		}
	}
	return out
}

func (c *scriptedConn) texts() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, v := range c.sent {
		if t, ok := v.(game.Text); ok {
			out = append(out, t.Text)
		}
	}
	return out
}

// tokenAuth accepts tokens from a fixed table.
type tokenAuth map[string]auth.Claims

func (a tokenAuth) Authenticate(token string) (auth.Claims, error) {
	claims, ok := a[token]
	if !ok {
		return auth.Claims{}, auth.ErrUnauthorized
	}
	return claims, nil
}

type testEnv struct {
	world *game.World
	bus   *bus.Bus
	store *storage.MemoryStore
	hall  *game.Room
	mgr   *Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	b := bus.NewBus()
	t.Cleanup(b.Shutdown)
	store := storage.NewMemoryStore()

	w := game.NewWorld(b, store, game.WithSaveEvery(0))
	area := game.NewArea("keep", "The Keep")
	hall := game.NewRoom("hall", "Great Hall", "A long hall.")
	area.AddRoom(hall)
	w.AddArea(area)

	h := commands.NewHandler(commands.DefaultCommands())
	if err := h.CompileAll(); err != nil {
		t.Fatalf("compiling commands: %v", err)
	}

	authn := tokenAuth{
		"good":       {Account: "acct"},
		"only-alice": {Account: "acct", Characters: []string{"alice"}},
		"only-bob":   {Account: "other", Characters: []string{"bob"}},
	}

	return &testEnv{
		world: w,
		bus:   b,
		store: store,
		hall:  hall,
		mgr:   NewManager(w, authn, h),
	}
}

func (e *testEnv) player(t *testing.T, id string) *game.Character {
	t.Helper()
	c := game.NewCharacter(id, id, game.Stats{HP: 10, MaxHP: 10, Dex: 10, ArmorClass: 10})
	c.Player = true
	return c
}

// serve runs a session over frames to completion.
func (e *testEnv) serve(t *testing.T, frames ...string) *scriptedConn {
	t.Helper()
	conn := newScriptedConn(frames...)
	conn.poll = e.bus.Poll
	if err := e.mgr.Serve(context.Background(), conn); err != nil {
		t.Fatalf("serve: %v", err)
	}
	return conn
}
