package game

import (
	"context"
	"fmt"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/effects"
	"github.com/pixil98/tickmud/internal/storage"
)

// Document kinds written by the world.
const (
	KindCharacter = "character"
	KindSpawner   = "spawner"
)

type characterRecord struct {
	ID             string             `json:"id"`
	LoadID         storage.Identifier `json:"load_id,omitempty"`
	Name           string             `json:"name"`
	Description    string             `json:"description,omitempty"`
	Player         bool               `json:"player"`
	Stats          Stats              `json:"stats"`
	State          combat.State       `json:"state"`
	Faction        string             `json:"faction,omitempty"`
	FactionEnemies []string           `json:"faction_enemies,omitempty"`
	Standing       map[string]int     `json:"standing,omitempty"`
	Room           storage.Identifier `json:"room,omitempty"`
}

func newCharacterRecord(c *Character) characterRecord {
	state := c.state
	// Combat does not survive a restart.
	if state == combat.StateFighting {
		state = combat.StateNormal
	}
	return characterRecord{
		ID:             c.ID,
		LoadID:         c.LoadID,
		Name:           c.Name,
		Description:    c.Description,
		Player:         c.Player,
		Stats:          c.Stats,
		State:          state,
		Faction:        c.Faction,
		FactionEnemies: c.FactionEnemies,
		Standing:       c.Standing,
		Room:           c.lastRoom,
	}
}

func (rec *characterRecord) character() *Character {
	standing := rec.Standing
	if standing == nil {
		standing = make(map[string]int)
	}
	return &Character{
		ID:             rec.ID,
		LoadID:         rec.LoadID,
		Name:           rec.Name,
		Description:    rec.Description,
		Player:         rec.Player,
		Stats:          rec.Stats,
		state:          rec.State,
		Faction:        rec.Faction,
		FactionEnemies: rec.FactionEnemies,
		Standing:       standing,
		lastRoom:       rec.Room,
		effects:        effects.NewQueue(),
	}
}

// SaveCharacter writes c to store.
func SaveCharacter(ctx context.Context, store storage.DocumentStore, c *Character) error {
	return storage.PutJSON(ctx, store, KindCharacter, c.ID, c.LoadID, newCharacterRecord(c))
}

// save persists all characters and spawners. Failures are collected so one bad
// record does not stop the rest.
func (w *World) save(ctx context.Context) error {
	el := errors.NewErrorList()

	for _, c := range w.Characters() {
		if err := SaveCharacter(ctx, w.store, c); err != nil {
			el.Add(fmt.Errorf("saving character %s: %w", c.ID, err))
		}
	}

	for _, a := range w.areas {
		for _, r := range a.rooms {
			for _, s := range r.spawners {
				if err := s.Save(ctx, w.store); err != nil {
					el.Add(fmt.Errorf("saving spawner %s: %w", s.ID, err))
				}
			}
		}
	}

	return el.Err()
}
