package game

import (
	"context"
	"errors"
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/storage"
)

func TestWorld_Find(t *testing.T) {
	tw := newTestWorld(t, []string{"a", "b"})
	other := NewArea("other", "Other")
	other.AddRoom(NewRoom("c", "Room c", ""))
	tw.world.AddArea(other)

	testutil.AssertEqual(t, "room in first area", tw.world.FindRoomByID("b") == tw.rooms["b"], true)
	testutil.AssertEqual(t, "room in second area", tw.world.FindRoomByID("c").Area() == other, true)
	testutil.AssertEqual(t, "missing room", tw.world.FindRoomByID("z") == nil, true)
	testutil.AssertEqual(t, "area", tw.world.FindAreaByID("other") == other, true)
	testutil.AssertEqual(t, "missing area", tw.world.FindAreaByID("z") == nil, true)
	testutil.AssertEqual(t, "default room falls back to first", tw.world.DefaultRoom() == tw.rooms["a"], true)
}

func TestWorld_AddCharacterTwice(t *testing.T) {
	tw := newTestWorld(t, []string{"a"})
	tw.place(t, newTestCharacter("dup", 5), "a")

	err := tw.world.AddCharacter(newTestCharacter("dup", 5))
	testutil.AssertEqual(t, "exists", errors.Is(err, ErrCharacterExists), true)
}

func TestWorld_SaveEvery(t *testing.T) {
	tests := map[string]struct {
		saveEvery int
		ticks     int
		expSaved  bool
	}{
		"before the save tick": {saveEvery: 3, ticks: 2, expSaved: false},
		"on the save tick":     {saveEvery: 3, ticks: 3, expSaved: true},
		"saving disabled":      {saveEvery: 0, ticks: 10, expSaved: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tw := newTestWorld(t, []string{"a"}, WithSaveEvery(tt.saveEvery))
			tw.place(t, newTestCharacter("hero", 5), "a")

			for range tt.ticks {
				if err := tw.world.Tick(context.Background()); err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}

			_, err := tw.store.Get(context.Background(), KindCharacter, "hero")
			testutil.AssertEqual(t, "saved", err == nil, tt.expSaved)
			testutil.AssertEqual(t, "ticks", tw.world.Ticks(), tt.ticks)
		})
	}
}

type failingStore struct {
	storage.MemoryStore
}

func (failingStore) Put(context.Context, *storage.Document) error {
	return errors.New("disk full")
}

func TestWorld_SaveFailureDoesNotStopTicks(t *testing.T) {
	w := NewWorld(newTestBus(t), &failingStore{}, WithSaveEvery(1))
	area := NewArea("a", "A")
	area.AddRoom(NewRoom("r", "R", ""))
	w.AddArea(area)
	_ = w.Place(newTestCharacter("hero", 5), w.FindRoomByID("r"))

	for range 3 {
		if err := w.Tick(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	testutil.AssertEqual(t, "ticks", w.Ticks(), 3)
	testutil.AssertErrorContains(t, w.Save(context.Background()), "disk full")
}

func TestWorld_LoginCharacter(t *testing.T) {
	tests := map[string]struct {
		setup  func(t *testing.T, tw *testWorld)
		id     string
		expErr error
	}{
		"reconnects a live character": {
			setup: func(t *testing.T, tw *testWorld) {
				hero := newTestCharacter("hero", 10)
				hero.Player = true
				tw.place(t, hero, "b")
				hero.Attach(&recordingTransport{})
			},
			id: "hero",
		},
		"loads from the store": {
			setup: func(t *testing.T, tw *testWorld) {
				hero := newTestCharacter("hero", 10)
				hero.Player = true
				hero.lastRoom = "b"
				if err := SaveCharacter(context.Background(), tw.store, hero); err != nil {
					t.Fatalf("save: %v", err)
				}
			},
			id: "hero",
		},
		"unknown character": {
			id:     "nobody",
			expErr: ErrCharacterNotFound,
		},
		"dead in the store": {
			setup: func(t *testing.T, tw *testWorld) {
				hero := newTestCharacter("hero", 10)
				hero.Player = true
				hero.SetState(combat.StateDead)
				_ = SaveCharacter(context.Background(), tw.store, hero)
			},
			id:     "hero",
			expErr: ErrCharacterDead,
		},
		"dead and live": {
			setup: func(t *testing.T, tw *testWorld) {
				hero := newTestCharacter("hero", 10)
				hero.Player = true
				tw.place(t, hero, "b")
				hero.die()
			},
			id:     "hero",
			expErr: ErrCharacterDead,
		},
		"npc cannot be logged into": {
			setup: func(t *testing.T, tw *testWorld) {
				tw.place(t, newTestCharacter("rat", 10), "b")
			},
			id:     "rat",
			expErr: ErrCharacterNotFound,
		},
		"stored npc is not loaded": {
			setup: func(t *testing.T, tw *testWorld) {
				_ = SaveCharacter(context.Background(), tw.store, newTestCharacter("rat", 10))
			},
			id:     "rat",
			expErr: ErrCharacterNotFound,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			tw := newTestWorld(t, []string{"a", "b"})
			if tt.setup != nil {
				tt.setup(t, tw)
			}

			tr := &recordingTransport{}
			var c *Character
			err := tw.world.Exec(func() error {
				var err error
				c, err = tw.world.LoginCharacter(context.Background(), tt.id, tr)
				return err
			})
			tw.bus.Poll()

			if tt.expErr != nil {
				testutil.AssertEqual(t, "error", errors.Is(err, tt.expErr), true)
				testutil.AssertEqual(t, "nothing sent", len(tr.sent), 0)
				if tt.id == "rat" || tt.id == "nobody" {
					testutil.AssertEqual(t, "not registered as player", tw.world.FindCharacter(tt.id) == nil || !tw.world.FindCharacter(tt.id).Player, true)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "registered", tw.world.FindCharacter(tt.id) == c, true)
			testutil.AssertEqual(t, "room", c.Room() == tw.rooms["b"], true)
			testutil.AssertEqual(t, "connected", c.Connected(), true)
			testutil.AssertEqual(t, "room details", tr.count(MsgRoomDetails), 1)
		})
	}
}

func TestWorld_ReconnectReplacesTransport(t *testing.T) {
	tw := newTestWorld(t, []string{"a"})
	hero := newTestCharacter("hero", 10)
	hero.Player = true
	tw.place(t, hero, "a")

	first, second := &recordingTransport{}, &recordingTransport{}
	ctx := context.Background()
	if _, err := tw.world.LoginCharacter(ctx, "hero", first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := tw.world.LoginCharacter(ctx, "hero", second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tw.rooms["a"].Say(hero, "hello")
	tw.bus.Poll()

	testutil.AssertEqual(t, "old transport silent", first.count(MsgSpeech), 0)
	testutil.AssertEqual(t, "new transport hears", second.count(MsgSpeech), 1)
}

func TestWorld_Shutdown(t *testing.T) {
	tw := newTestWorld(t, []string{"a"})
	hero := tw.place(t, newTestCharacter("hero", 10), "a")
	tr := &recordingTransport{}
	hero.Attach(tr)

	tw.world.Shutdown()
	tw.world.Shutdown()

	testutil.AssertEqual(t, "transport closed once", tr.closed, 1)
	testutil.AssertEqual(t, "exec refused", errors.Is(tw.world.Exec(func() error { return nil }), ErrWorldClosed), true)
	testutil.AssertEqual(t, "start refused", errors.Is(tw.world.Start(context.Background()), ErrWorldClosed), true)

	if err := tw.world.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "no ticks after shutdown", tw.world.Ticks(), 0)

	// A fresh world can be built after shutdown.
	again := newTestWorld(t, []string{"a"})
	testutil.AssertEqual(t, "fresh world ticks", again.world.Tick(context.Background()) == nil, true)
}

func TestWorld_RestoreReattachesSpawnedActors(t *testing.T) {
	reg, produced := ratRegistry(t)
	ctx := context.Background()

	build := func(store *storage.MemoryStore) (*World, *Spawner) {
		w := NewWorld(newTestBus(t), store, WithSaveEvery(0))
		area := NewArea("sewer", "Sewer")
		r := NewRoom("tunnel", "Tunnel", "")
		area.AddRoom(r)
		w.AddArea(area)
		s, _ := NewSpawner("rats", 1, EveryNTicks(1), nil, []string{"RatFactory"}, reg)
		r.AddSpawner(s)
		return w, s
	}

	store := storage.NewMemoryStore()
	first, _ := build(store)
	_ = first.Tick(ctx)
	if err := first.Save(ctx); err != nil {
		t.Fatalf("save: %v", err)
	}
	first.Shutdown()

	second, s := build(store)
	if err := second.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	testutil.AssertEqual(t, "tracked", len(s.Tracked()), 1)
	testutil.AssertEqual(t, "rat back in room", len(second.FindRoomByID("tunnel").Characters()), 1)

	_ = second.Tick(ctx)
	testutil.AssertEqual(t, "no double spawn", *produced, 1)
}

func TestWorld_TickKeepsFightingAcrossRooms(t *testing.T) {
	// r2 ticks before r, so the stale combat in r is pruned after b's new
	// combats in r2 have been resolved.
	tw := newTestWorld(t, []string{"r2", "r"})
	r, r2 := tw.rooms["r"], tw.rooms["r2"]
	a := tw.place(t, newTestCharacter("a", 50), "r")
	b := tw.place(t, newTestCharacter("b", 50), "r")
	c := tw.place(t, newTestCharacter("c", 50), "r2")

	if err := r.Attack(a, b); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2.add(b)
	if err := r2.Attack(b, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tw.world.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "b combats in r2", r2.Combat().Count("b"), 2)
	testutil.AssertEqual(t, "b state", b.State(), combat.StateFighting)
	testutil.AssertEqual(t, "a state", a.State(), combat.StateNormal)
	testutil.AssertEqual(t, "r combats", len(r.Combat().Combats()), 0)
}

func TestWorld_TicksWhileRunning(t *testing.T) {
	tw := newTestWorld(t, []string{"a"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 50 {
			_ = tw.world.Tick(context.Background())
		}
	}()
	for range 50 {
		_ = tw.world.Ticks()
	}
	<-done

	testutil.AssertEqual(t, "ticks", tw.world.Ticks(), 50)
}
