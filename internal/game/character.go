package game

import (
	"context"
	"log/slog"
	"strings"

	"github.com/pixil98/tickmud/internal/bus"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/effects"
	"github.com/pixil98/tickmud/internal/storage"
)

const (
	regenPerTick        = 1
	restingRegenPerTick = 3
)

// Transport delivers outbound messages to a connected client.
type Transport interface {
	Send(v any) error
	Close() error
}

// Stats are the combat relevant numbers of a character.
type Stats struct {
	HP         int           `json:"hp"`
	MaxHP      int           `json:"max_hp"`
	Dex        int           `json:"dex"`
	ArmorClass int           `json:"ac"`
	Attack     combat.Attack `json:"attack"`
}

// Character is a player or NPC present in the world.
type Character struct {
	ID          string
	LoadID      storage.Identifier
	Name        string
	Description string
	Player      bool

	Stats

	Faction        string
	FactionEnemies []string
	Standing       map[string]int

	state   combat.State
	effects *effects.Queue
	room    *Room
	// lastRoom remembers where the character was when it left the world.
	lastRoom storage.Identifier

	world     *World
	transport Transport
	subs      []*bus.Subscription

	deathListeners []func(*Character)
}

func NewCharacter(id, name string, stats Stats) *Character {
	return &Character{
		ID:       id,
		Name:     name,
		Stats:    stats,
		Standing: make(map[string]int),
		effects:  effects.NewQueue(),
	}
}

// Effects returns the character's effect queue.
func (c *Character) Effects() *effects.Queue {
	return c.effects
}

func (c *Character) Room() *Room {
	return c.room
}

// MatchName returns true if name matches this character's name (case-insensitive).
func (c *Character) MatchName(name string) bool {
	return strings.EqualFold(c.Name, name) || strings.EqualFold(c.ID, name)
}

// OnDeath registers fn to run once when the character dies.
func (c *Character) OnDeath(fn func(*Character)) {
	c.deathListeners = append(c.deathListeners, fn)
}

func (c *Character) CombatID() string   { return c.ID }
func (c *Character) CombatName() string { return c.Name }
func (c *Character) IsAlive() bool      { return c.state != combat.StateDead && c.HP > 0 }
func (c *Character) State() combat.State {
	return c.state
}
func (c *Character) SetState(s combat.State) { c.state = s }
func (c *Character) CanAct() bool            { return !c.effects.Has(effects.KindStun) }
func (c *Character) DexMod() int             { return abilityModifier(c.Dex) }
func (c *Character) AC() int                 { return c.ArmorClass }
func (c *Character) Attack() combat.Attack   { return c.Stats.Attack }

// abilityModifier is floor((score-10)/2).
func abilityModifier(score int) int {
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

func (c *Character) ApplyDamage(n int) {
	c.HP -= n
	if c.HP < 0 {
		c.HP = 0
	}
}

// Heal restores up to n hit points.
func (c *Character) Heal(n int) {
	if !c.IsAlive() {
		return
	}
	c.HP = min(c.HP+n, c.MaxHP)
}

// Tick ages the character's effects and regenerates health.
func (c *Character) Tick(ctx context.Context) {
	if c.state == combat.StateDead {
		return
	}

	for _, item := range c.effects.DecrementAndExpire() {
		slog.DebugContext(ctx, "effect expired", "character", c.ID, "effect", item.Name)
	}

	switch c.state {
	case combat.StateResting:
		c.Heal(restingRegenPerTick)
	case combat.StateNormal:
		c.Heal(regenPerTick)
	}
}

// Send publishes v to this character's own topic.
func (c *Character) Send(v any) {
	if c.world == nil {
		return
	}
	c.world.bus.Publish(CharacterTopic(c.ID), v)
}

// Connected reports whether a transport is attached.
func (c *Character) Connected() bool {
	return c.transport != nil
}

// Attach binds a client transport to the character, replacing any previous one.
func (c *Character) Attach(t Transport) {
	if c.transport != nil {
		c.Detach()
	}
	c.transport = t
	c.subscribe(CharacterTopic(c.ID))
	if c.room != nil {
		c.subscribe(RoomTopic(c.room.ID))
	}
}

// Detach unsubscribes the transport. The character stays in the world.
func (c *Character) Detach() {
	for _, sub := range c.subs {
		c.world.bus.Unsubscribe(sub)
	}
	c.subs = nil
	c.transport = nil
}

// Release detaches t if it is still the character's transport. A transport
// that was replaced by a reconnect leaves the new one alone.
func (c *Character) Release(t Transport) bool {
	if c.transport == nil || c.transport != t {
		return false
	}
	c.Detach()
	return true
}

func (c *Character) subscribe(topic string) {
	if c.world == nil || c.transport == nil {
		return
	}
	t := c.transport
	sub := c.world.bus.Subscribe(topic, func(m bus.Message) {
		if err := t.Send(m.Payload); err != nil {
			slog.Warn("sending to transport", "character", c.ID, "topic", m.Topic, "error", err)
		}
	})
	c.subs = append(c.subs, sub)
}

// changeRoomTopic moves the room subscription from one room to another.
func (c *Character) changeRoomTopic(from, to *Room) {
	if c.transport == nil {
		return
	}
	if from != nil {
		topic := RoomTopic(from.ID)
		for i, sub := range c.subs {
			if sub.Topic() == topic {
				c.world.bus.Unsubscribe(sub)
				c.subs = append(c.subs[:i], c.subs[i+1:]...)
				break
			}
		}
	}
	if to != nil {
		c.subscribe(RoomTopic(to.ID))
	}
}

func (c *Character) die() {
	c.effects.Clear()
	c.HP = 0
	c.state = combat.StateDead

	listeners := c.deathListeners
	c.deathListeners = nil
	for _, fn := range listeners {
		fn(c)
	}
}

// IsFighting reports whether the character is currently in combat.
func (c *Character) IsFighting() bool {
	return c.state == combat.StateFighting
}
