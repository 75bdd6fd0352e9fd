package combat

type ManagerOpt func(*Manager)

// WithDice sets the dice used for initiative and the default resolver.
func WithDice(d Dice) ManagerOpt {
	return func(m *Manager) {
		m.dice = d
	}
}

// WithResolver replaces the round resolution primitive.
func WithResolver(r Resolver) ManagerOpt {
	return func(m *Manager) {
		m.resolver = r
	}
}

// WithInitiative overrides the initiative roll for an attacker.
func WithInitiative(fn func(attacker Combatant) int) ManagerOpt {
	return func(m *Manager) {
		m.initiative = fn
	}
}

// WithPresence lets the manager detect combatants that are no longer present.
func WithPresence(fn func(id string) bool) ManagerOpt {
	return func(m *Manager) {
		m.present = fn
	}
}

// WithEngaged reports combats a combatant holds outside this manager, so
// reconciliation does not clear a state another manager still depends on.
func WithEngaged(fn func(id string) bool) ManagerOpt {
	return func(m *Manager) {
		m.engaged = fn
	}
}
