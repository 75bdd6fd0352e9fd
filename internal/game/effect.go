package game

import "github.com/pixil98/tickmud/internal/effects"

// NewStun returns an effect that stops its owner from attacking or moving.
func NewStun(ticks int) *effects.Item {
	return &effects.Item{
		Kind:  effects.KindStun,
		Name:  "stun",
		Ticks: ticks,
	}
}

// NewPrayer returns an effect that heals target when it completes. The prayer
// is interrupted if the target starts fighting.
func NewPrayer(target *Character, ticks, heal int) *effects.Item {
	return &effects.Item{
		Kind:  effects.KindPrayer,
		Name:  "prayer",
		Ticks: ticks,
		OnPush: func(*effects.Item) {
			target.Send(NewText("You kneel and begin to pray."))
		},
		OnTick: func(item *effects.Item) {
			if target.IsFighting() {
				target.Send(NewText("Your prayer is interrupted!"))
				target.effects.Remove(item)
			}
		},
		OnExpire: func(*effects.Item) {
			target.Heal(heal)
			target.Send(NewText("Your prayer is answered. You feel better."))
		},
	}
}
