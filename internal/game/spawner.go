package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"

	"github.com/pixil98/tickmud/internal/storage"
)

// Trigger decides on which ticks a spawner tries to refill.
type Trigger interface {
	Ready(counter int) bool
}

// EveryNTicks fires on every Nth tick.
type EveryNTicks int

func (n EveryNTicks) Ready(counter int) bool {
	if n <= 0 {
		return false
	}
	return counter%int(n) == 0
}

// Selector picks which factory produces the next actor.
type Selector interface {
	Select(names []string) string
}

// RandomSelector picks uniformly among names.
type RandomSelector struct{}

func (RandomSelector) Select(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[rand.IntN(len(names))]
}

// Spawner keeps a room populated with actors produced by its factories.
type Spawner struct {
	ID       string
	Target   int
	Trigger  Trigger
	Selector Selector

	names     []string
	factories map[string]Factory
	room      *Room

	counter int
	tracked []string
}

// NewSpawner resolves every factory name against reg.
func NewSpawner(id storage.Identifier, target int, trigger Trigger, selector Selector, names []string, reg *Registry) (*Spawner, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("spawner %s: no factories configured", id)
	}

	factories := make(map[string]Factory, len(names))
	for _, n := range names {
		f, ok := reg.Get(n)
		if !ok {
			return nil, fmt.Errorf("spawner %s: %q: %w", id, n, ErrUnknownFactory)
		}
		factories[n] = f
	}

	if selector == nil {
		selector = RandomSelector{}
	}

	return &Spawner{
		ID:        id.String(),
		Target:    target,
		Trigger:   trigger,
		Selector:  selector,
		names:     slices.Clone(names),
		factories: factories,
	}, nil
}

// Counter returns the number of ticks the spawner has seen.
func (s *Spawner) Counter() int {
	return s.counter
}

// Tracked returns the ids of the live actors this spawner created.
func (s *Spawner) Tracked() []string {
	return slices.Clone(s.tracked)
}

// OnTick advances the counter and, when triggered, produces enough actors to
// reach the target population.
func (s *Spawner) OnTick(ctx context.Context) error {
	s.counter++
	if s.Trigger == nil || !s.Trigger.Ready(s.counter) {
		return nil
	}

	needed := s.Target - len(s.tracked)
	for range needed {
		if err := s.spawn(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (s *Spawner) spawn(ctx context.Context) error {
	name := s.Selector.Select(s.names)
	f, ok := s.factories[name]
	if !ok {
		return fmt.Errorf("%q: %w", name, ErrUnknownFactory)
	}

	c, err := f.Produce()
	if err != nil {
		return fmt.Errorf("producing %q: %w", name, err)
	}

	w := s.room.world()
	if w == nil {
		return fmt.Errorf("room %s is not part of a world", s.room.ID)
	}
	if err := w.Place(c, s.room); err != nil {
		return err
	}

	s.track(c)
	s.room.Publish(NewText("%s appears.", c.Name))
	slog.DebugContext(ctx, "spawned character", "spawner", s.ID, "room", s.room.ID, "character", c.ID, "factory", name)
	return nil
}

func (s *Spawner) track(c *Character) {
	s.tracked = append(s.tracked, c.ID)
	c.OnDeath(func(dead *Character) {
		s.untrack(dead.ID)
	})
}

func (s *Spawner) untrack(id string) {
	if i := slices.Index(s.tracked, id); i >= 0 {
		s.tracked = slices.Delete(s.tracked, i, i+1)
	}
}

type spawnerRecord struct {
	Counter int      `json:"counter"`
	Tracked []string `json:"tracked"`
}

// Save writes the counter and tracked ids to store.
func (s *Spawner) Save(ctx context.Context, store storage.DocumentStore) error {
	rec := spawnerRecord{Counter: s.counter, Tracked: s.tracked}
	return storage.PutJSON(ctx, store, KindSpawner, s.ID, storage.Identifier(s.ID), rec)
}

// Load restores the counter and tracked ids. A spawner that was never saved
// keeps its zero state.
func (s *Spawner) Load(ctx context.Context, store storage.DocumentStore) error {
	rec := spawnerRecord{}
	err := storage.GetJSONByLoadID(ctx, store, KindSpawner, storage.Identifier(s.ID), &rec)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	s.counter = rec.Counter
	s.tracked = slices.Clone(rec.Tracked)
	return nil
}

// Reattach resolves tracked ids through lookup and registers death listeners
// on the actors found. Ids that no longer resolve to a live actor are dropped.
func (s *Spawner) Reattach(lookup func(id string) *Character) {
	ids := s.tracked
	s.tracked = nil
	for _, id := range ids {
		c := lookup(id)
		if c == nil || !c.IsAlive() {
			continue
		}
		s.track(c)
	}
}
