package combat

import "math/rand/v2"

// Dice produces rolls in the range [1, sides].
type Dice interface {
	Roll(sides int) int
}

// RandomDice rolls with math/rand.
type RandomDice struct{}

func (RandomDice) Roll(sides int) int {
	if sides < 1 {
		return 0
	}
	return rand.IntN(sides) + 1
}

// RollAttack rolls a d20 and adds the attack modifier.
func RollAttack(d Dice, attackMod int) int {
	return d.Roll(20) + attackMod
}

// RollDamage rolls NdS + modifier, with a minimum result of 1.
func RollDamage(d Dice, dice, sides, mod int) int {
	total := mod
	for range dice {
		total += d.Roll(sides)
	}
	if total < 1 {
		total = 1
	}
	return total
}

var damageMessages = []struct {
	maxDamage int
	verb3rd   string // "{attacker} {verb} {target}!"
}{
	{0, "misses"},
	{2, "barely scratches"},
	{4, "tickles"},
	{6, "barely hurts"},
	{10, "hits"},
	{14, "hits hard"},
	{19, "pummels"},
	{24, "thrashes"},
	{30, "mauls"},
	{40, "decimates"},
	{50, "devastates"},
	{65, "obliterates"},
	{80, "annihilates"},
}

// DamageVerb returns the 3rd person verb for a damage amount.
func DamageVerb(damage int) string {
	for _, msg := range damageMessages {
		if damage <= msg.maxDamage {
			return msg.verb3rd
		}
	}
	return "does UNSPEAKABLE things to"
}
