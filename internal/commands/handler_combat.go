package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/pixil98/tickmud/internal/combat"
	"github.com/pixil98/tickmud/internal/game"
)

// AttackHandlerFactory starts a fight with a character in the room.
// Config:
//   - stun_ticks (optional): stun the target for this many ticks (bash)
//   - room_message (optional): template broadcast to the room on success
type AttackHandlerFactory struct{}

func (f *AttackHandlerFactory) ValidateConfig(config map[string]any) error {
	if v, ok := config["stun_ticks"]; ok {
		n, err := strconv.Atoi(fmt.Sprint(v))
		if err != nil || n <= 0 {
			return fmt.Errorf("stun_ticks must be a positive integer")
		}
	}
	if _, ok := config["room_message"]; ok {
		return requireKeys(config, "room_message")
	}
	return nil
}

func (f *AttackHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		if len(cmdCtx.Args) == 0 {
			return NewUserError("Attack whom?")
		}

		target := cmdCtx.Room.FindCharacter(cmdCtx.Args[0])
		if target == nil {
			return NewUserError("They aren't here.")
		}

		err := cmdCtx.Room.Attack(cmdCtx.Actor, target)
		switch {
		case errors.Is(err, combat.ErrSelfTarget):
			return NewUserError("You can't attack yourself.")
		case errors.Is(err, combat.ErrAlreadyAttacking):
			return NewUserError("You're already fighting!")
		case errors.Is(err, combat.ErrNotAlive):
			return NewUserError("They are already dead.")
		case err != nil:
			return userErr(err)
		}

		if s := cmdCtx.Config["stun_ticks"]; s != "" {
			n, _ := strconv.Atoi(s)
			target.Effects().Push(game.NewStun(n))
			target.Send(game.NewText("You are knocked off balance!"))
		}
		cmdCtx.broadcast("room_message")
		return nil
	}, nil
}

// FleeHandlerFactory breaks off combat through a random exit.
type FleeHandlerFactory struct{}

func (f *FleeHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *FleeHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		if !cmdCtx.Actor.IsFighting() {
			return NewUserError("You aren't fighting anyone.")
		}
		if err := cmdCtx.Room.Flee(cmdCtx.Actor); err != nil {
			if errors.Is(err, game.ErrNoExit) {
				return NewUserError("There is nowhere to run!")
			}
			return userErr(err)
		}
		return nil
	}, nil
}
