package commands

import (
	"context"

	"github.com/pixil98/tickmud/internal/game"
)

// LookHandlerFactory shows the room, or a character in it.
type LookHandlerFactory struct{}

func (f *LookHandlerFactory) ValidateConfig(config map[string]any) error {
	return nil
}

func (f *LookHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		if len(cmdCtx.Args) == 0 {
			cmdCtx.Actor.Send(cmdCtx.Room.Describe(cmdCtx.Actor))
			return nil
		}

		target := cmdCtx.Room.FindCharacter(cmdCtx.Args[0])
		if target == nil {
			return NewUserError("You do not see that here.")
		}

		desc := target.Description
		if desc == "" {
			desc = "You see nothing special about " + target.Name + "."
		}
		cmdCtx.Actor.Send(game.NewText("%s", desc))
		return nil
	}, nil
}
