package game

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/tickmud/internal/storage"
)

const (
	TriggerTick     = "tick"
	SelectionRandom = "random"
)

// AreaSpec is the content definition of an area and everything inside it.
type AreaSpec struct {
	Name  string     `json:"name"`
	Rooms []RoomSpec `json:"rooms"`
	Doors []DoorSpec `json:"doors,omitempty"`
}

type RoomSpec struct {
	ID          storage.Identifier  `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Exits       map[string]ExitSpec `json:"exits,omitempty"`
	Items       []ItemSpec          `json:"items,omitempty"`
	Spawners    []SpawnerSpec       `json:"spawners,omitempty"`
}

type ExitSpec struct {
	Room storage.Identifier `json:"room"`
	Door storage.Identifier `json:"door,omitempty"`
}

type DoorSpec struct {
	ID     storage.Identifier `json:"id"`
	Name   string             `json:"name"`
	Closed bool               `json:"closed,omitempty"`
	Locked bool               `json:"locked,omitempty"`
}

type ItemSpec struct {
	ID          storage.Identifier `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
}

type TriggerSpec struct {
	Type      string `json:"type"`
	Threshold int    `json:"threshold"`
}

type SpawnerSpec struct {
	ID        storage.Identifier `json:"id"`
	Count     int                `json:"count"`
	Trigger   TriggerSpec        `json:"trigger"`
	Selection string             `json:"selection,omitempty"`
	Factories []string           `json:"factories"`
}

// Validate satisfies storage.ValidatingSpec. It checks each definition on its
// own; references between definitions are resolved by BuildAreas.
func (a *AreaSpec) Validate() error {
	el := errors.NewErrorList()

	if a.Name == "" {
		el.Add(fmt.Errorf("area name is required"))
	}

	for i, r := range a.Rooms {
		if r.ID == "" {
			el.Add(fmt.Errorf("room %d: id is required", i))
		}
		if r.Name == "" {
			el.Add(fmt.Errorf("room %s: name is required", r.ID))
		}
		for dir, e := range r.Exits {
			if e.Room == "" {
				el.Add(fmt.Errorf("room %s exit %s: room is required", r.ID, dir))
			}
		}
		for _, sp := range r.Spawners {
			el.Add(sp.validate())
		}
	}

	for i, d := range a.Doors {
		if d.ID == "" {
			el.Add(fmt.Errorf("door %d: id is required", i))
		}
		if d.Locked && !d.Closed {
			el.Add(fmt.Errorf("door %s: a locked door must be closed", d.ID))
		}
	}

	return el.Err()
}

func (s SpawnerSpec) validate() error {
	el := errors.NewErrorList()

	if s.ID == "" {
		el.Add(fmt.Errorf("spawner id is required"))
	}
	if s.Count < 0 {
		el.Add(fmt.Errorf("spawner %s: count must not be negative", s.ID))
	}
	if s.Trigger.Type != TriggerTick {
		el.Add(fmt.Errorf("spawner %s: invalid trigger type %q (must be %s)", s.ID, s.Trigger.Type, TriggerTick))
	}
	if s.Trigger.Threshold <= 0 {
		el.Add(fmt.Errorf("spawner %s: trigger threshold must be positive", s.ID))
	}
	if s.Selection != "" && s.Selection != SelectionRandom {
		el.Add(fmt.Errorf("spawner %s: invalid selection %q (must be %s)", s.ID, s.Selection, SelectionRandom))
	}
	if len(s.Factories) == 0 {
		el.Add(fmt.Errorf("spawner %s: at least one factory is required", s.ID))
	}

	return el.Err()
}

// BuildAreas turns area definitions into live areas in two phases. Phase one
// creates every room and door keyed by load id; phase two wires exits and
// spawners. Broken references are logged and the offending exit or spawner is
// skipped so the world still starts.
func BuildAreas(defs storage.Storer[*AreaSpec], reg *Registry) []*Area {
	all := defs.GetAll()
	ids := make([]storage.Identifier, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	rooms := make(map[storage.Identifier]*Room)
	// built records which definition produced each room so duplicates are
	// skipped in both phases.
	built := make(map[storage.Identifier]*RoomSpec)
	doors := make(map[storage.Identifier]*Door)
	var areas []*Area

	for _, id := range ids {
		def := all[id]
		area := NewArea(id, def.Name)

		for _, d := range def.Doors {
			if _, dup := doors[d.ID]; dup {
				slog.Warn("duplicate door skipped", "area", id, "door", d.ID)
				continue
			}
			name := d.Name
			if name == "" {
				name = "door"
			}
			doors[d.ID] = &Door{LoadID: d.ID, Name: name, Open: !d.Closed, Locked: d.Locked}
		}

		for i := range def.Rooms {
			rs := &def.Rooms[i]
			if _, dup := rooms[rs.ID]; dup {
				slog.Warn("duplicate room skipped", "area", id, "room", rs.ID)
				continue
			}
			r := NewRoom(rs.ID, rs.Name, rs.Description)
			for _, is := range rs.Items {
				r.AddItem(&Item{LoadID: is.ID, Name: is.Name, Description: is.Description})
			}
			rooms[rs.ID] = r
			built[rs.ID] = rs
			area.AddRoom(r)
		}

		areas = append(areas, area)
	}

	spawnerIDs := make(map[storage.Identifier]bool)
	for _, id := range ids {
		for i := range all[id].Rooms {
			rs := &all[id].Rooms[i]
			if built[rs.ID] != rs {
				continue
			}
			r := rooms[rs.ID]

			dirs := make([]string, 0, len(rs.Exits))
			for dir := range rs.Exits {
				dirs = append(dirs, dir)
			}
			sort.Strings(dirs)

			for _, dir := range dirs {
				es := rs.Exits[dir]
				to, ok := rooms[es.Room]
				if !ok {
					slog.Warn("exit references unknown room", "room", rs.ID, "direction", dir, "target", es.Room)
					continue
				}
				var door *Door
				if es.Door != "" {
					if door, ok = doors[es.Door]; !ok {
						slog.Warn("exit references unknown door", "room", rs.ID, "direction", dir, "door", es.Door)
						continue
					}
				}
				r.SetExit(dir, to, door)
			}

			for _, ss := range rs.Spawners {
				if spawnerIDs[ss.ID] {
					slog.Warn("duplicate spawner skipped", "room", rs.ID, "spawner", ss.ID)
					continue
				}
				sp, err := NewSpawner(ss.ID, ss.Count, EveryNTicks(ss.Trigger.Threshold), RandomSelector{}, ss.Factories, reg)
				if err != nil {
					slog.Warn("spawner skipped", "room", rs.ID, "error", err)
					continue
				}
				spawnerIDs[ss.ID] = true
				r.AddSpawner(sp)
			}
		}
	}

	return areas
}
