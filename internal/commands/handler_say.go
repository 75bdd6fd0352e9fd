package commands

import (
	"context"
	"strings"
)

// SayHandlerFactory broadcasts speech to the room.
// Config:
//   - text (required): template for what is said
//   - sender_message (optional): template confirming the speech to the speaker
type SayHandlerFactory struct{}

func (f *SayHandlerFactory) ValidateConfig(config map[string]any) error {
	keys := []string{"text"}
	if _, ok := config["sender_message"]; ok {
		keys = append(keys, "sender_message")
	}
	return requireKeys(config, keys...)
}

func (f *SayHandlerFactory) Create(config map[string]any) (CommandFunc, error) {
	return func(ctx context.Context, cmdCtx *CommandContext) error {
		text := strings.TrimSpace(cmdCtx.Config["text"])
		if text == "" {
			return NewUserError("Say what?")
		}
		cmdCtx.Room.Say(cmdCtx.Actor, text)
		cmdCtx.send("sender_message")
		return nil
	}, nil
}
