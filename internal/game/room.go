package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"sort"

	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/display"
	"github.com/pixil98/tickmud/internal/storage"
)

// Door is shared by the two exits that pass through it.
type Door struct {
	LoadID storage.Identifier
	Name   string
	Open   bool
	Locked bool
}

// Exit leads from a room to a destination, optionally through a door.
type Exit struct {
	Direction string
	To        *Room
	Door      *Door
}

// Passable reports whether the exit can be walked through right now.
func (e *Exit) Passable() bool {
	return e.Door == nil || e.Door.Open
}

// Item is an inanimate object lying in a room.
type Item struct {
	LoadID      storage.Identifier
	Name        string
	Description string
}

// Room is a single location. It owns presence, not identity: characters are
// registered with the World and merely stand here.
type Room struct {
	ID          string
	Name        string
	Description string

	area       *Area
	characters []*Character
	items      []*Item
	exits      map[string]*Exit
	spawners   []*Spawner
	combat     *combat.Manager
}

func NewRoom(id storage.Identifier, name, description string) *Room {
	return &Room{
		ID:          id.String(),
		Name:        name,
		Description: description,
		exits:       make(map[string]*Exit),
	}
}

func (r *Room) Area() *Area {
	return r.area
}

func (r *Room) world() *World {
	if r.area == nil {
		return nil
	}
	return r.area.world
}

// bind attaches the room to its world and builds its combat manager.
func (r *Room) bind(w *World) {
	opts := append([]combat.ManagerOpt{
		combat.WithDice(w.dice),
		combat.WithPresence(func(id string) bool { return r.Character(id) != nil }),
		combat.WithEngaged(w.engaged),
	}, w.combatOpts...)
	r.combat = combat.NewManager(&roomCombatHandler{room: r}, opts...)
}

// Combat returns the room's combat manager.
func (r *Room) Combat() *combat.Manager {
	return r.combat
}

// Tick runs one simulation step: combat, then characters, then spawners.
func (r *Room) Tick(ctx context.Context) error {
	if err := r.combat.Tick(ctx); err != nil {
		return fmt.Errorf("room %s combat: %w", r.ID, err)
	}

	for _, c := range slices.Clone(r.characters) {
		if c.room != r {
			continue
		}
		c.Tick(ctx)
	}

	for _, s := range r.spawners {
		if err := s.OnTick(ctx); err != nil {
			slog.ErrorContext(ctx, "spawner tick failed", "room", r.ID, "spawner", s.ID, "error", err)
		}
	}

	return nil
}

// Publish sends v to everyone subscribed to this room.
func (r *Room) Publish(v any) {
	w := r.world()
	if w == nil {
		return
	}
	w.bus.Publish(RoomTopic(r.ID), v)
}

// Characters returns a snapshot of the characters present.
func (r *Room) Characters() []*Character {
	return slices.Clone(r.characters)
}

// Character returns the present character with the given id, or nil.
func (r *Room) Character(id string) *Character {
	for _, c := range r.characters {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// FindCharacter returns the first present character matching name.
func (r *Room) FindCharacter(name string) *Character {
	for _, c := range r.characters {
		if c.MatchName(name) {
			return c
		}
	}
	return nil
}

func (r *Room) Items() []*Item {
	return slices.Clone(r.items)
}

func (r *Room) AddItem(it *Item) {
	r.items = append(r.items, it)
}

func (r *Room) Exit(dir string) *Exit {
	return r.exits[dir]
}

// SetExit links dir to a destination room.
func (r *Room) SetExit(dir string, to *Room, door *Door) {
	r.exits[dir] = &Exit{Direction: dir, To: to, Door: door}
}

func (r *Room) Spawners() []*Spawner {
	return slices.Clone(r.spawners)
}

func (r *Room) AddSpawner(s *Spawner) {
	s.room = r
	r.spawners = append(r.spawners, s)
}

// add places c in the room without any announcement.
func (r *Room) add(c *Character) {
	if c.room == r {
		return
	}
	prev := c.room
	if prev != nil {
		prev.remove(c)
	}
	r.characters = append(r.characters, c)
	c.room = r
	c.lastRoom = storage.Identifier(r.ID)
	c.changeRoomTopic(prev, r)
}

func (r *Room) remove(c *Character) {
	idx := slices.Index(r.characters, c)
	if idx < 0 {
		return
	}
	r.characters = slices.Delete(r.characters, idx, idx+1)
	if c.room == r {
		c.room = nil
	}
}

// Describe renders the room as seen by viewer.
func (r *Room) Describe(viewer *Character) RoomDetails {
	exits := make([]string, 0, len(r.exits))
	for dir, e := range r.exits {
		if !e.Passable() {
			dir = fmt.Sprintf("%s (closed %s)", dir, e.Door.Name)
		}
		exits = append(exits, dir)
	}
	sort.Strings(exits)

	chars := make([]string, 0, len(r.characters))
	for _, c := range r.characters {
		if viewer != nil && c.ID == viewer.ID {
			continue
		}
		chars = append(chars, c.Name)
	}

	items := make([]string, 0, len(r.items))
	for _, it := range r.items {
		items = append(items, it.Name)
	}

	return RoomDetails{
		MessageType: MsgRoomDetails,
		RoomID:      r.ID,
		Summary:     r.Name,
		Description: display.Wrap(r.Description),
		Exits:       exits,
		Characters:  chars,
		Inanimates:  items,
	}
}

// Say broadcasts speech from c to the room.
func (r *Room) Say(c *Character, text string) {
	r.Publish(Speech{MessageType: MsgSpeech, Speaker: c.Name, Text: text})
}

// Attack starts a combat between two characters in this room.
func (r *Room) Attack(attacker, defender *Character) error {
	if attacker.room != r || defender.room != r {
		return ErrNotInRoom
	}
	if _, err := r.combat.Start(attacker, defender); err != nil {
		return err
	}
	r.Publish(NewText("%s attacks %s!", display.Capitalize(attacker.Name), defender.Name))
	return nil
}

// Move walks c through the exit in dir.
func (r *Room) Move(c *Character, dir string) error {
	if !c.CanAct() {
		return ErrStunned
	}
	if c.state == combat.StateFighting || r.combat.IsFighting(c.ID) {
		return ErrFighting
	}
	return r.move(c, dir)
}

func (r *Room) move(c *Character, dir string) error {
	exit, ok := r.exits[dir]
	if !ok || exit.To == nil {
		return ErrNoExit
	}
	if !exit.Passable() {
		return ErrDoorClosed
	}

	if c.state == combat.StateResting {
		c.state = combat.StateNormal
	}

	r.remove(c)
	r.Publish(NewText("%s leaves %s.", display.Capitalize(c.Name), dir))
	exit.To.Publish(NewText("%s arrives.", display.Capitalize(c.Name)))
	exit.To.add(c)
	c.Send(exit.To.Describe(c))
	return nil
}

// Flee breaks off every combat c is part of and escapes through a random
// passable exit.
func (r *Room) Flee(c *Character) error {
	if !c.CanAct() {
		return ErrStunned
	}

	var dirs []string
	for dir, e := range r.exits {
		if e.To != nil && e.Passable() {
			dirs = append(dirs, dir)
		}
	}
	if len(dirs) == 0 {
		return ErrNoExit
	}
	sort.Strings(dirs)

	r.combat.Disengage(c.ID)
	r.Publish(NewText("%s flees!", display.Capitalize(c.Name)))
	return r.move(c, dirs[rand.IntN(len(dirs))])
}

// SetDoor opens or closes the door in dir and tells both sides about it.
func (r *Room) SetDoor(c *Character, dir string, open bool) error {
	exit, ok := r.exits[dir]
	if !ok {
		return ErrNoExit
	}
	if exit.Door == nil {
		return ErrNoDoor
	}
	if exit.Door.Locked {
		return ErrDoorLocked
	}
	if exit.Door.Open == open {
		if open {
			return fmt.Errorf("the %s is already open", exit.Door.Name)
		}
		return fmt.Errorf("the %s is already closed", exit.Door.Name)
	}

	exit.Door.Open = open
	ev := DoorChanged{MessageType: MsgDoorChanged, Door: exit.Door.Name, Direction: dir, Open: open}
	r.Publish(ev)
	if exit.To != nil && exit.To != r {
		ev.Direction = reverseDirection(exit.To, exit.Door)
		exit.To.Publish(ev)
	}
	return nil
}

func reverseDirection(room *Room, door *Door) string {
	for dir, e := range room.exits {
		if e.Door == door {
			return dir
		}
	}
	return ""
}
