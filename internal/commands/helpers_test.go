package commands

import (
	"context"
	"testing"

	"github.com/pixil98/tickmud/internal/bus"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/storage"
)

type fixedDice int

func (d fixedDice) Roll(sides int) int {
	return min(int(d), sides)
}

type recordingTransport struct {
	sent []any
}

func (t *recordingTransport) Send(v any) error {
	t.sent = append(t.sent, v)
	return nil
}

func (t *recordingTransport) Close() error { return nil }

// texts returns every Text message received, in order.
func (t *recordingTransport) texts() []string {
	var out []string
	for _, v := range t.sent {
		if txt, ok := v.(game.Text); ok {
			out = append(out, txt.Text)
		}
	}
	return out
}

func (t *recordingTransport) hasText(s string) bool {
	for _, txt := range t.texts() {
		if txt == s {
			return true
		}
	}
	return false
}

type testEnv struct {
	world *game.World
	bus   *bus.Bus
	hall  *game.Room
	yard  *game.Room
	gate  *game.Door
	hero  *game.Character
	rat   *game.Character
	out   *recordingTransport
	h     *Handler
}

// newTestEnv builds a hall and a yard joined north/south by an open gate, with
// a connected hero and a rat in the hall.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	b := bus.NewBus()
	t.Cleanup(b.Shutdown)

	w := game.NewWorld(b, storage.NewMemoryStore(), game.WithDice(fixedDice(10)), game.WithSaveEvery(0))
	area := game.NewArea("keep", "The Keep")
	hall := game.NewRoom("hall", "Great Hall", "A long hall.")
	yard := game.NewRoom("yard", "Courtyard", "An open yard.")
	gate := &game.Door{LoadID: "gate", Name: "gate", Open: true}
	hall.SetExit("north", yard, gate)
	yard.SetExit("south", hall, gate)
	area.AddRoom(hall)
	area.AddRoom(yard)
	w.AddArea(area)

	stats := game.Stats{HP: 20, MaxHP: 20, Dex: 10, ArmorClass: 10, Attack: combat.Attack{DamageDice: 1, DamageSides: 4}}
	hero := game.NewCharacter("hero", "Hero", stats)
	hero.Player = true
	rat := game.NewCharacter("rat", "rat", stats)
	for _, c := range []*game.Character{hero, rat} {
		if err := w.Place(c, hall); err != nil {
			t.Fatalf("placing %s: %v", c.ID, err)
		}
	}
	out := &recordingTransport{}
	hero.Attach(out)

	h := NewHandler(DefaultCommands())
	if err := h.CompileAll(); err != nil {
		t.Fatalf("compiling defaults: %v", err)
	}

	return &testEnv{world: w, bus: b, hall: hall, yard: yard, gate: gate, hero: hero, rat: rat, out: out, h: h}
}

// exec runs a command as the hero and flushes the bus.
func (e *testEnv) exec(cmd string, args ...string) error {
	err := e.h.Exec(context.Background(), e.world, e.hero, cmd, args...)
	e.bus.Poll()
	return err
}
