package game

import (
	"context"
	"slices"

	"github.com/pixil98/tickmud/internal/storage"
)

// Area is a named, ordered group of rooms.
type Area struct {
	ID    string
	Name  string
	rooms []*Room
	world *World
}

func NewArea(id storage.Identifier, name string) *Area {
	return &Area{ID: id.String(), Name: name}
}

// AddRoom appends r to the area. Rooms tick in the order they were added.
func (a *Area) AddRoom(r *Room) {
	r.area = a
	if a.world != nil {
		r.bind(a.world)
	}
	a.rooms = append(a.rooms, r)
}

func (a *Area) Rooms() []*Room {
	return slices.Clone(a.rooms)
}

func (a *Area) Room(id string) *Room {
	for _, r := range a.rooms {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// Tick ticks every room in order.
func (a *Area) Tick(ctx context.Context) error {
	for _, r := range a.rooms {
		if err := r.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
