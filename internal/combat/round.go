package combat

// Round is the outcome of one attacker swinging at one defender.
type Round struct {
	Attacker   Combatant
	Defender   Combatant
	Initiative int
	Hit        bool
	Damage     int
	Verb       string
}

// Resolver performs the damage exchange for a single combat round.
type Resolver interface {
	Resolve(c *Combat, d Dice) Round
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(c *Combat, d Dice) Round

func (f ResolverFunc) Resolve(c *Combat, d Dice) Round {
	return f(c, d)
}

// D20Resolver rolls d20 + attack modifier against the defender's AC.
type D20Resolver struct{}

func (D20Resolver) Resolve(c *Combat, d Dice) Round {
	atk := c.Attacker.Attack()

	var damage int
	hit := RollAttack(d, atk.Mod) >= c.Defender.AC()
	if hit {
		damage = RollDamage(d, atk.DamageDice, atk.DamageSides, atk.DamageMod)
		c.Defender.ApplyDamage(damage)
	}

	return Round{
		Attacker:   c.Attacker,
		Defender:   c.Defender,
		Initiative: c.Initiative,
		Hit:        hit,
		Damage:     damage,
		Verb:       DamageVerb(damage),
	}
}

// Handler receives combat outcomes that need game level follow-up.
type Handler interface {
	// OnRound is called after every resolved round.
	OnRound(Round)
	// OnVictory is called once per surviving counterpart of a dead combatant.
	OnVictory(survivor, victim Combatant)
	// OnDeath is called once per dead combatant after its combats are removed.
	OnDeath(victim Combatant)
}

type nopHandler struct{}

func (nopHandler) OnRound(Round)            {}
func (nopHandler) OnVictory(_, _ Combatant) {}
func (nopHandler) OnDeath(Combatant)        {}
