package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/pixil98/tickmud/internal/bus"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/driver"
	"github.com/pixil98/tickmud/internal/storage"
)

const (
	DefaultTickInterval = 3 * time.Second
	DefaultSaveEvery    = 20
)

// World is the root of the simulation. All mutation happens either inside
// Tick or inside a function passed to Exec, so there is one writer at a time.
type World struct {
	mu sync.Mutex

	bus   *bus.Bus
	store storage.DocumentStore

	areas      []*Area
	characters map[string]*Character

	dice         combat.Dice
	combatOpts   []combat.ManagerOpt
	faction      FactionModifiers
	tickInterval time.Duration
	saveEvery    int
	defaultRoom  storage.Identifier

	ticks  int
	closed bool
	cancel context.CancelFunc
	once   sync.Once
}

func NewWorld(b *bus.Bus, store storage.DocumentStore, opts ...WorldOpt) *World {
	if store == nil {
		store = storage.NewMemoryStore()
	}

	w := &World{
		bus:          b,
		store:        store,
		characters:   make(map[string]*Character),
		dice:         combat.RandomDice{},
		faction:      DefaultFactionModifiers,
		tickInterval: DefaultTickInterval,
		saveEvery:    DefaultSaveEvery,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

func (w *World) Bus() *bus.Bus {
	return w.bus
}

// AddArea appends an area; areas tick in the order they were added.
func (w *World) AddArea(a *Area) {
	a.world = w
	for _, r := range a.rooms {
		r.bind(w)
	}
	w.areas = append(w.areas, a)
}

func (w *World) Areas() []*Area {
	return slices.Clone(w.areas)
}

// FindAreaByID scans every area for id.
func (w *World) FindAreaByID(id string) *Area {
	for _, a := range w.areas {
		if a.ID == id {
			return a
		}
	}
	return nil
}

// FindRoomByID scans every room of every area for id.
func (w *World) FindRoomByID(id string) *Room {
	for _, a := range w.areas {
		if r := a.Room(id); r != nil {
			return r
		}
	}
	return nil
}

// DefaultRoom is where characters without a known location are placed.
func (w *World) DefaultRoom() *Room {
	if r := w.FindRoomByID(w.defaultRoom.String()); r != nil {
		return r
	}
	for _, a := range w.areas {
		if len(a.rooms) > 0 {
			return a.rooms[0]
		}
	}
	return nil
}

// AddCharacter registers c with the world.
func (w *World) AddCharacter(c *Character) error {
	if _, exists := w.characters[c.ID]; exists {
		return fmt.Errorf("%s: %w", c.ID, ErrCharacterExists)
	}
	c.world = w
	w.characters[c.ID] = c
	return nil
}

// FindCharacter returns the registered character with id, or nil.
func (w *World) FindCharacter(id string) *Character {
	return w.characters[id]
}

// RemoveCharacter drops c from the registry and from its room.
func (w *World) RemoveCharacter(id string) {
	c, ok := w.characters[id]
	if !ok {
		return
	}
	if c.room != nil {
		c.room.remove(c)
	}
	delete(w.characters, id)
}

// Characters returns every registered character ordered by id.
func (w *World) Characters() []*Character {
	ids := make([]string, 0, len(w.characters))
	for id := range w.characters {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	chars := make([]*Character, 0, len(ids))
	for _, id := range ids {
		chars = append(chars, w.characters[id])
	}
	return chars
}

// Place registers c and puts it in r.
func (w *World) Place(c *Character, r *Room) error {
	if err := w.AddCharacter(c); err != nil {
		return err
	}
	r.add(c)
	return nil
}

// Exec runs fn while holding the world lock.
func (w *World) Exec(fn func() error) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWorldClosed
	}
	return fn()
}

// Tick advances every area by one step and runs a save pass every saveEvery ticks.
func (w *World) Tick(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}

	w.ticks++
	for _, a := range w.areas {
		if err := a.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "area tick failed", "area", a.ID, "error", err)
		}
	}

	if w.saveEvery > 0 && w.ticks%w.saveEvery == 0 {
		if err := w.save(ctx); err != nil {
			slog.ErrorContext(ctx, "periodic save failed", "tick", w.ticks, "error", err)
		}
	}

	return nil
}

// Ticks returns how many ticks have run.
func (w *World) Ticks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.ticks
}

// engaged reports whether id is in combat in the room it currently stands in.
func (w *World) engaged(id string) bool {
	c, ok := w.characters[id]
	if !ok || c.room == nil || c.room.combat == nil {
		return false
	}
	return c.room.combat.IsFighting(id)
}

// Start drives the world on its tick interval until ctx is done or Shutdown is called.
func (w *World) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		cancel()
		return ErrWorldClosed
	}
	w.cancel = cancel
	w.mu.Unlock()

	slog.InfoContext(ctx, "world started", "areas", len(w.areas), "tick_interval", w.tickInterval)
	d := driver.NewMudDriver([]driver.Ticker{w}, driver.WithTickLength(w.tickInterval))
	err := d.Start(ctx)
	cancel()
	return err
}

// Shutdown stops the tick loop and detaches every transport. It does not wait
// for in-flight persistence. Safe to call more than once.
func (w *World) Shutdown() {
	w.once.Do(func() {
		w.mu.Lock()
		defer w.mu.Unlock()

		w.closed = true
		if w.cancel != nil {
			w.cancel()
		}
		for _, c := range w.characters {
			if t := c.transport; t != nil {
				c.Detach()
				if err := t.Close(); err != nil {
					slog.Warn("closing transport", "character", c.ID, "error", err)
				}
			}
		}
	})
}

// LoginCharacter attaches t to the player character id, loading it from the
// store if it is not already live. Must be called inside Exec.
func (w *World) LoginCharacter(ctx context.Context, id string, t Transport) (*Character, error) {
	c := w.characters[id]
	if c == nil {
		rec, err := w.loadRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		if !rec.Player {
			return nil, fmt.Errorf("%s: %w", id, ErrCharacterNotFound)
		}
		if c, err = w.placeRecord(rec); err != nil {
			return nil, err
		}
	}

	if !c.Player {
		return nil, fmt.Errorf("%s: %w", id, ErrCharacterNotFound)
	}
	if !c.IsAlive() {
		return nil, fmt.Errorf("%s: %w", id, ErrCharacterDead)
	}

	c.Attach(t)
	if c.room != nil {
		c.Send(c.room.Describe(c))
	}

	slog.InfoContext(ctx, "character logged in", "character", c.ID, "name", c.Name)
	return c, nil
}

// LoadCharacter reads a character from the store, places it in its last room
// and registers it.
func (w *World) LoadCharacter(ctx context.Context, id string) (*Character, error) {
	rec, err := w.loadRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return w.placeRecord(rec)
}

func (w *World) loadRecord(ctx context.Context, id string) (*characterRecord, error) {
	rec := &characterRecord{}
	err := storage.GetJSON(ctx, w.store, KindCharacter, id, rec)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrCharacterNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading character %s: %w", id, err)
	}
	if rec.State == combat.StateDead {
		return nil, fmt.Errorf("%s: %w", id, ErrCharacterDead)
	}
	return rec, nil
}

func (w *World) placeRecord(rec *characterRecord) (*Character, error) {
	room := w.FindRoomByID(rec.Room.String())
	if room == nil {
		room = w.DefaultRoom()
	}
	if room == nil {
		return nil, fmt.Errorf("placing character %s: %w", rec.ID, ErrRoomNotFound)
	}

	c := rec.character()
	if err := w.Place(c, room); err != nil {
		return nil, err
	}
	return c, nil
}

// Restore reloads spawner state and reattaches spawners to the actors they
// created before the last shutdown.
func (w *World) Restore(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	lookup := func(id string) *Character {
		if c := w.characters[id]; c != nil {
			return c
		}
		c, err := w.LoadCharacter(ctx, id)
		if err != nil {
			slog.WarnContext(ctx, "dropping spawned character", "character", id, "error", err)
			return nil
		}
		return c
	}

	for _, a := range w.areas {
		for _, r := range a.rooms {
			for _, s := range r.spawners {
				if err := s.Load(ctx, w.store); err != nil {
					return fmt.Errorf("restoring spawner %s: %w", s.ID, err)
				}
				s.Reattach(lookup)
			}
		}
	}
	return nil
}

// Save persists every character and spawner.
func (w *World) Save(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.save(ctx)
}
