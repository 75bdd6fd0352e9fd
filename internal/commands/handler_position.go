package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/effects"
	"github.com/pixil98/tickmud/internal/game"
)

// PositionHandlerFactory switches between resting and standing.
// Config:
//   - state (required): "resting" or "normal"
//   - sender_message (optional): template sent to the actor on success
type PositionHandlerFactory struct{}

func (f *PositionHandlerFactory) ValidateConfig(config map[string]any) error {
	if err := requireKeys(config, "state"); err != nil {
		return err
	}
	var st combat.State
	if err := st.UnmarshalText([]byte(fmt.Sprint(config["state"]))); err != nil {
		return err
	}
	if st != combat.StateResting && st != combat.StateNormal {
		return fmt.Errorf("state must be resting or normal")
	}
	return nil
}

func (f *PositionHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	var want combat.State
	if err := want.UnmarshalText([]byte(fmt.Sprint(config["state"]))); err != nil {
		return nil, err
	}

	return func(ctx context.Context, cmdCtx *CommandContext) error {
		actor := cmdCtx.Actor
		if actor.IsFighting() {
			return NewUserError("You can't do that while fighting!")
		}
		if actor.State() == want {
			return NewUserError(fmt.Sprintf("You are already %s.", want))
		}
		actor.SetState(want)
		cmdCtx.send("sender_message")
		return nil
	}, nil
}

// PrayHandlerFactory starts a prayer that heals when it completes.
// Config:
//   - ticks (required): how long the prayer takes
//   - heal (required): hit points restored
type PrayHandlerFactory struct{}

func (f *PrayHandlerFactory) ValidateConfig(config map[string]any) error {
	if err := requireKeys(config, "ticks", "heal"); err != nil {
		return err
	}
	for _, k := range []string{"ticks", "heal"} {
		if n, err := strconv.Atoi(fmt.Sprint(config[k])); err != nil || n <= 0 {
			return fmt.Errorf("%s must be a positive integer", k)
		}
	}
	return nil
}

func (f *PrayHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	ticks, _ := strconv.Atoi(fmt.Sprint(config["ticks"]))
	heal, _ := strconv.Atoi(fmt.Sprint(config["heal"]))

	return func(ctx context.Context, cmdCtx *CommandContext) error {
		actor := cmdCtx.Actor
		if actor.IsFighting() {
			return NewUserError("You can't pray while fighting!")
		}
		if actor.Effects().Has(effects.KindPrayer) {
			return NewUserError("You are already praying.")
		}
		actor.Effects().Push(game.NewPrayer(actor, ticks, heal))
		return nil
	}, nil
}
