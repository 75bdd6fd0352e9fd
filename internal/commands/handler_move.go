package commands

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/pixil98/tickmud/internal/game"
)

// MoveHandlerFactory walks the actor through an exit.
// Config:
//   - direction (required): template for the direction to walk
type MoveHandlerFactory struct{}

func (f *MoveHandlerFactory) ValidateConfig(config map[string]any) error {
	return requireKeys(config, "direction")
}

func (f *MoveHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		dir := strings.ToLower(strings.TrimSpace(cmdCtx.Config["direction"]))
		if dir == "" {
			return NewUserError("Go where?")
		}

		err := cmdCtx.Room.Move(cmdCtx.Actor, dir)
		switch {
		case errors.Is(err, game.ErrNoExit):
			return NewUserError("Alas, you cannot go that way...")
		case errors.Is(err, game.ErrFighting):
			return NewUserError("No way! You're fighting for your life!")
		case err != nil:
			return userErr(err)
		}
		return nil
	}, nil
}

// DoorHandlerFactory opens or closes the door in a direction.
// Config:
//   - open (required): true to open, false to close
type DoorHandlerFactory struct{}

func (f *DoorHandlerFactory) ValidateConfig(config map[string]any) error {
	if err := requireKeys(config, "open"); err != nil {
		return err
	}
	if _, ok := config["open"].(bool); !ok {
		return errors.New("open must be a boolean")
	}
	return nil
}

func (f *DoorHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		if len(cmdCtx.Args) == 0 {
			return NewUserError("Which direction?")
		}
		open, _ := strconv.ParseBool(cmdCtx.Config["open"])
		return userErr(cmdCtx.Room.SetDoor(cmdCtx.Actor, strings.ToLower(cmdCtx.Args[0]), open))
	}, nil
}
