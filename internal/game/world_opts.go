package game

import (
	"time"

	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/storage"
)

type WorldOpt func(*World)

func WithTickInterval(d time.Duration) WorldOpt {
	return func(w *World) {
		if d > 0 {
			w.tickInterval = d
		}
	}
}

// WithSaveEvery sets how many ticks pass between persistence passes. Zero
// disables periodic saving.
func WithSaveEvery(n int) WorldOpt {
	return func(w *World) {
		w.saveEvery = n
	}
}

func WithFactionModifiers(m FactionModifiers) WorldOpt {
	return func(w *World) {
		w.faction = m
	}
}

func WithDefaultRoom(id storage.Identifier) WorldOpt {
	return func(w *World) {
		w.defaultRoom = id
	}
}

func WithDice(d combat.Dice) WorldOpt {
	return func(w *World) {
		w.dice = d
	}
}

// WithCombatOptions appends options applied to every room's combat manager.
func WithCombatOptions(opts ...combat.ManagerOpt) WorldOpt {
	return func(w *World) {
		w.combatOpts = append(w.combatOpts, opts...)
	}
}
