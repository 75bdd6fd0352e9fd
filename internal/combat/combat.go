package combat

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
)

var (
	ErrAlreadyAttacking = errors.New("already attacking")
	ErrSelfTarget       = errors.New("cannot attack yourself")
	ErrNotAlive         = errors.New("combatant is not alive")
)

// Combat is one attacker engaged with one defender.
type Combat struct {
	Attacker Combatant
	Defender Combatant

	Initiative  int
	Rounds      int
	DamageDealt int

	retired bool
}

// Involves reports whether id is either side of the combat.
func (c *Combat) Involves(id string) bool {
	return c.Attacker.CombatID() == id || c.Defender.CombatID() == id
}

func (c *Combat) counterpart(id string) Combatant {
	if c.Attacker.CombatID() == id {
		return c.Defender
	}
	return c.Attacker
}

// Manager resolves the combats of a single room. It is not safe for concurrent
// use; the owning room serializes access.
type Manager struct {
	handler    Handler
	resolver   Resolver
	dice       Dice
	initiative func(Combatant) int
	present    func(id string) bool
	engaged    func(id string) bool

	// combats is kept in encounter order so initiative ties are stable.
	combats    []*Combat
	byAttacker map[string]*Combat
}

// NewManager creates a new combat Manager.
func NewManager(handler Handler, opts ...ManagerOpt) *Manager {
	if handler == nil {
		handler = nopHandler{}
	}

	m := &Manager{
		handler:    handler,
		resolver:   D20Resolver{},
		dice:       RandomDice{},
		byAttacker: make(map[string]*Combat),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// Start records attacker as fighting defender. An attacker may only hold one
// combat at a time; the defender is pulled in on the next tick.
func (m *Manager) Start(attacker, defender Combatant) (*Combat, error) {
	if attacker.CombatID() == defender.CombatID() {
		return nil, ErrSelfTarget
	}
	if !attacker.IsAlive() || !defender.IsAlive() {
		return nil, ErrNotAlive
	}
	if _, exists := m.byAttacker[attacker.CombatID()]; exists {
		return nil, ErrAlreadyAttacking
	}

	return m.add(attacker, defender), nil
}

func (m *Manager) add(attacker, defender Combatant) *Combat {
	c := &Combat{
		Attacker: attacker,
		Defender: defender,
	}
	m.combats = append(m.combats, c)
	m.byAttacker[attacker.CombatID()] = c
	if attacker.State() != StateFighting {
		attacker.SetState(StateFighting)
	}
	return c
}

// Disengage removes every combat id participates in and returns the
// counterparts that were released. States are reconciled immediately.
func (m *Manager) Disengage(id string) []Combatant {
	touched := newRoster()
	for _, c := range slices.Clone(m.combats) {
		if !c.Involves(id) {
			continue
		}
		m.retire(c)
		touched.add(c.Attacker)
		touched.add(c.Defender)
	}
	m.reconcile(touched)

	var released []Combatant
	for _, c := range touched.list {
		if c.CombatID() != id {
			released = append(released, c)
		}
	}
	return released
}

// IsFighting returns true if id participates in any combat.
func (m *Manager) IsFighting(id string) bool {
	return m.Count(id) > 0
}

// Count returns the number of combats id participates in, on either side.
func (m *Manager) Count(id string) int {
	n := 0
	for _, c := range m.combats {
		if c.Involves(id) {
			n++
		}
	}
	return n
}

// Attacking returns the combat in which id is the attacker, or nil.
func (m *Manager) Attacking(id string) *Combat {
	return m.byAttacker[id]
}

// Combats returns the live combats in encounter order.
func (m *Manager) Combats() []*Combat {
	return slices.Clone(m.combats)
}

// Tick resolves one round of every live combat in initiative order.
func (m *Manager) Tick(ctx context.Context) error {
	if len(m.combats) == 0 {
		return nil
	}

	m.pruneAbsent(ctx)

	order := slices.Clone(m.combats)
	for _, c := range order {
		c.Initiative = m.rollInitiative(c.Attacker)
	}
	slices.SortStableFunc(order, func(a, b *Combat) int {
		return cmp.Compare(b.Initiative, a.Initiative)
	})

	touched := newRoster()
	dead := make(map[string]bool)

	for _, c := range order {
		if c.retired {
			continue
		}
		touched.add(c.Attacker)
		touched.add(c.Defender)

		if m.collectDead(c, dead, touched) {
			continue
		}

		// Being attacked always puts the defender in the fight.
		if _, ok := m.byAttacker[c.Defender.CombatID()]; !ok {
			m.add(c.Defender, c.Attacker)
		}

		if !c.Attacker.CanAct() {
			continue
		}

		round := m.resolver.Resolve(c, m.dice)
		c.Rounds++
		c.DamageDealt += round.Damage
		m.handler.OnRound(round)

		m.collectDead(c, dead, touched)
	}

	m.reconcile(touched)
	return nil
}

// collectDead runs the death pass for each side of c that has died and has
// not been handled yet. It reports whether c was retired.
func (m *Manager) collectDead(c *Combat, handled map[string]bool, touched *roster) bool {
	for _, side := range []Combatant{c.Defender, c.Attacker} {
		if side.IsAlive() || handled[side.CombatID()] {
			continue
		}
		handled[side.CombatID()] = true
		m.handleDeath(side, touched)
	}
	return c.retired
}

func (m *Manager) handleDeath(victim Combatant, touched *roster) {
	id := victim.CombatID()

	survivors := newRoster()
	for _, c := range slices.Clone(m.combats) {
		if !c.Involves(id) {
			continue
		}
		m.retire(c)
		if other := c.counterpart(id); other.IsAlive() {
			survivors.add(other)
			touched.add(other)
		}
	}

	victim.SetState(StateDead)
	for _, s := range survivors.list {
		m.handler.OnVictory(s, victim)
	}
	m.handler.OnDeath(victim)
}

// reconcile moves every living participant without a remaining combat out of
// the fighting state. Combats held by other managers count as well.
func (m *Manager) reconcile(touched *roster) {
	for _, c := range touched.list {
		if !c.IsAlive() || c.State() == StateDead {
			continue
		}
		fighting := m.IsFighting(c.CombatID()) || (m.engaged != nil && m.engaged(c.CombatID()))
		switch {
		case !fighting && c.State() == StateFighting:
			c.SetState(StateNormal)
		case fighting && c.State() != StateFighting:
			c.SetState(StateFighting)
		}
	}
}

// pruneAbsent drops combats whose participants have left the room. Only the
// sides still present are reconciled; an absent combatant's state belongs to
// wherever it stands now.
func (m *Manager) pruneAbsent(ctx context.Context) {
	if m.present == nil {
		return
	}

	touched := newRoster()
	for _, c := range slices.Clone(m.combats) {
		attacker, defender := m.present(c.Attacker.CombatID()), m.present(c.Defender.CombatID())
		if attacker && defender {
			continue
		}
		slog.WarnContext(ctx, "combat references absent combatant",
			"attacker", c.Attacker.CombatID(), "defender", c.Defender.CombatID())
		m.retire(c)
		if attacker {
			touched.add(c.Attacker)
		}
		if defender {
			touched.add(c.Defender)
		}
	}
	m.reconcile(touched)
}

func (m *Manager) rollInitiative(attacker Combatant) int {
	if m.initiative != nil {
		return m.initiative(attacker)
	}
	return m.dice.Roll(20) + attacker.DexMod()
}

func (m *Manager) retire(c *Combat) {
	if c.retired {
		return
	}
	c.retired = true
	m.combats = slices.DeleteFunc(m.combats, func(o *Combat) bool { return o == c })
	if m.byAttacker[c.Attacker.CombatID()] == c {
		delete(m.byAttacker, c.Attacker.CombatID())
	}
}

// roster is an insertion ordered set of combatants.
type roster struct {
	seen map[string]bool
	list []Combatant
}

func newRoster() *roster {
	return &roster{seen: make(map[string]bool)}
}

func (r *roster) add(c Combatant) {
	if r.seen[c.CombatID()] {
		return
	}
	r.seen[c.CombatID()] = true
	r.list = append(r.list, c)
}
