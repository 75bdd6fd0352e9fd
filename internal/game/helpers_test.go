package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/pixil98/tickmud/internal/bus"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/storage"
)

// fixedDice always rolls the same value, capped at the die size.
type fixedDice int

func (d fixedDice) Roll(sides int) int {
	return min(int(d), sides)
}

type recordingTransport struct {
	sent   []any
	closed int
}

func (t *recordingTransport) Send(v any) error {
	t.sent = append(t.sent, v)
	return nil
}

func (t *recordingTransport) Close() error {
	t.closed++
	return nil
}

func messageType(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%T", v)
	}
	var env struct {
		MessageType string `json:"messageType"`
	}
	if err := json.Unmarshal(data, &env); err != nil || env.MessageType == "" {
		return fmt.Sprintf("%T", v)
	}
	return env.MessageType
}

func (t *recordingTransport) count(msgType string) int {
	n := 0
	for _, v := range t.sent {
		if messageType(v) == msgType {
			n++
		}
	}
	return n
}

// find returns the most recent message of msgType, or nil.
func (t *recordingTransport) find(msgType string) any {
	for i := len(t.sent) - 1; i >= 0; i-- {
		if messageType(t.sent[i]) == msgType {
			return t.sent[i]
		}
	}
	return nil
}

type mapStorer[T storage.ValidatingSpec] map[storage.Identifier]T

func (m mapStorer[T]) Get(id storage.Identifier) (T, bool) {
	v, ok := m[id]
	return v, ok
}

func (m mapStorer[T]) GetAll() map[storage.Identifier]T {
	return m
}

type testWorld struct {
	world *World
	bus   *bus.Bus
	store *storage.MemoryStore
	area  *Area
	rooms map[string]*Room
}

// newTestWorld builds a world with one area holding the named rooms.
func newTestWorld(t *testing.T, roomIDs []string, opts ...WorldOpt) *testWorld {
	t.Helper()

	b := newTestBus(t)
	store := storage.NewMemoryStore()

	opts = append([]WorldOpt{WithDice(fixedDice(10)), WithSaveEvery(0)}, opts...)
	w := NewWorld(b, store, opts...)

	area := NewArea("test-area", "Test Area")
	rooms := make(map[string]*Room)
	for _, id := range roomIDs {
		r := NewRoom(storage.Identifier(id), "Room "+id, "A plain room.")
		area.AddRoom(r)
		rooms[id] = r
	}
	w.AddArea(area)

	return &testWorld{world: w, bus: b, store: store, area: area, rooms: rooms}
}

func newTestBus(t *testing.T) *bus.Bus {
	t.Helper()
	b := bus.NewBus()
	t.Cleanup(b.Shutdown)
	return b
}

func newTestCharacter(id string, hp int) *Character {
	return NewCharacter(id, id, Stats{
		HP:         hp,
		MaxHP:      hp,
		Dex:        10,
		ArmorClass: 10,
		Attack:     combat.Attack{DamageDice: 1, DamageSides: 4},
	})
}

func (tw *testWorld) place(t *testing.T, c *Character, roomID string) *Character {
	t.Helper()
	if err := tw.world.Place(c, tw.rooms[roomID]); err != nil {
		t.Fatalf("placing %s: %v", c.ID, err)
	}
	return c
}
