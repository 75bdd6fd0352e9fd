package combat

import "fmt"

// State is the coarse activity state of an actor.
type State int

const (
	StateNormal State = iota
	StateResting
	StateFighting
	StateDead
)

var stateNames = map[State]string{
	StateNormal:   "normal",
	StateResting:  "resting",
	StateFighting: "fighting",
	StateDead:     "dead",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("state(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for st, n := range stateNames {
		if n == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state: %s", text)
}

// Attack describes one weapon swing.
type Attack struct {
	Mod         int
	DamageDice  int
	DamageSides int
	DamageMod   int
}

// Combatant is anything that can participate in combat.
type Combatant interface {
	CombatID() string
	CombatName() string
	IsAlive() bool
	State() State
	SetState(State)
	// CanAct is false while the combatant is prevented from swinging (stunned).
	CanAct() bool
	DexMod() int
	AC() int
	Attack() Attack
	ApplyDamage(int)
}
