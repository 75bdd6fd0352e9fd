package game

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/pixil98/go-errors"
	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/storage"
)

// Factory produces new actors for spawners.
type Factory interface {
	Produce() (*Character, error)
}

// FactoryFunc adapts a function to Factory.
type FactoryFunc func() (*Character, error)

func (f FactoryFunc) Produce() (*Character, error) {
	return f()
}

// Registry maps factory names to factories. It is filled at startup and
// consulted when spawners are built.
type Registry struct {
	factories map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

func (r *Registry) Register(name string, f Factory) error {
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("factory %q already registered", name)
	}
	r.factories[name] = f
	return nil
}

func (r *Registry) Get(name string) (Factory, bool) {
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered factory names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// MobileSpec is the content definition of an NPC template.
type MobileSpec struct {
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Faction        string   `json:"faction,omitempty"`
	FactionEnemies []string `json:"faction_enemies,omitempty"`

	MaxHP       int `json:"max_hp"`
	Dex         int `json:"dex"`
	AC          int `json:"ac"`
	AttackMod   int `json:"attack_mod"`
	DamageDice  int `json:"damage_dice"`
	DamageSides int `json:"damage_sides"`
	DamageMod   int `json:"damage_mod"`
}

// Validate satisfies storage.ValidatingSpec.
func (m *MobileSpec) Validate() error {
	el := errors.NewErrorList()

	if m.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if m.MaxHP <= 0 {
		el.Add(fmt.Errorf("max_hp must be positive"))
	}
	if m.DamageDice < 0 || m.DamageSides < 0 {
		el.Add(fmt.Errorf("damage dice must not be negative"))
	}

	return el.Err()
}

// MobileFactory produces NPCs from a mobile template.
type MobileFactory struct {
	LoadID storage.Identifier
	Spec   *MobileSpec
}

func (f *MobileFactory) Produce() (*Character, error) {
	if f.Spec == nil {
		return nil, fmt.Errorf("mobile %s has no template", f.LoadID)
	}

	c := NewCharacter(uuid.New().String(), f.Spec.Name, Stats{
		HP:         f.Spec.MaxHP,
		MaxHP:      f.Spec.MaxHP,
		Dex:        f.Spec.Dex,
		ArmorClass: f.Spec.AC,
		Attack: combat.Attack{
			Mod:         f.Spec.AttackMod,
			DamageDice:  f.Spec.DamageDice,
			DamageSides: f.Spec.DamageSides,
			DamageMod:   f.Spec.DamageMod,
		},
	})
	c.LoadID = f.LoadID
	c.Description = f.Spec.Description
	c.Faction = f.Spec.Faction
	c.FactionEnemies = f.Spec.FactionEnemies
	return c, nil
}

// RegisterMobiles adds a MobileFactory for every mobile template, named by its
// load id.
func RegisterMobiles(reg *Registry, mobiles storage.Storer[*MobileSpec]) error {
	el := errors.NewErrorList()
	for id, spec := range mobiles.GetAll() {
		el.Add(reg.Register(id.String(), &MobileFactory{LoadID: id, Spec: spec}))
	}
	return el.Err()
}
