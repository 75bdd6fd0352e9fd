package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/storage"
)

// CommandFunc is the signature for compiled command functions.
type CommandFunc func(ctx context.Context, cmdCtx *CommandContext) error

// CommandContext is everything a command needs to run for one actor.
type CommandContext struct {
	World  *game.World
	Actor  *game.Character
	Room   *game.Room
	Args   []string
	Config map[string]string
}

// HandlerFactory creates CommandFuncs from command configurations.
type HandlerFactory interface {
	// ValidateConfig validates that the config contains required fields.
	ValidateConfig(config map[string]any) error
	// Create creates a CommandFunc from the validated config.
	Create(config map[string]any) (CommandFunc, error)
}

// compiledCommand holds a command that's been validated and compiled.
type compiledCommand struct {
	cmd     *Command
	cmdFunc CommandFunc
}

type Handler struct {
	store     storage.Storer[*Command]
	factories map[string]HandlerFactory
	compiled  map[storage.Identifier]*compiledCommand
}

// NewHandler creates a Handler with every built-in handler factory registered.
func NewHandler(c storage.Storer[*Command]) *Handler {
	h := &Handler{
		store:     c,
		factories: make(map[string]HandlerFactory),
		compiled:  make(map[storage.Identifier]*compiledCommand),
	}

	_ = h.RegisterFactory("look", &LookHandlerFactory{})
	_ = h.RegisterFactory("say", &SayHandlerFactory{})
	_ = h.RegisterFactory("attack", &AttackHandlerFactory{})
	_ = h.RegisterFactory("flee", &FleeHandlerFactory{})
	_ = h.RegisterFactory("position", &PositionHandlerFactory{})
	_ = h.RegisterFactory("pray", &PrayHandlerFactory{})
	_ = h.RegisterFactory("move", &MoveHandlerFactory{})
	_ = h.RegisterFactory("door", &DoorHandlerFactory{})
	return h
}

// RegisterFactory registers a handler factory by name.
// The name must match the "handler" field in command JSON definitions.
func (h *Handler) RegisterFactory(name string, factory HandlerFactory) error {
	if name == "" {
		return fmt.Errorf("handler name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("handler factory cannot be nil")
	}
	if _, exists := h.factories[name]; exists {
		return fmt.Errorf("handler factory %q already registered", name)
	}
	h.factories[name] = factory
	return nil
}

// CompileAll compiles all commands from the store.
// Call this after all handler factories have been registered.
func (h *Handler) CompileAll() error {
	for id, cmd := range h.store.GetAll() {
		err := h.compile(id, cmd)
		if err != nil {
			return fmt.Errorf("compiling command %q: %w", id, err)
		}
	}
	return nil
}

func (h *Handler) compile(id storage.Identifier, cmd *Command) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	factory, ok := h.factories[cmd.Handler]
	if !ok {
		return fmt.Errorf("unknown handler %q", cmd.Handler)
	}

	if err := factory.ValidateConfig(cmd.Config); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	cmdFunc, err := factory.Create(cmd.Config)
	if err != nil {
		return fmt.Errorf("creating handler: %w", err)
	}

	h.compiled[id] = &compiledCommand{
		cmd:     cmd,
		cmdFunc: cmdFunc,
	}
	return nil
}

// Names returns the compiled command names, sorted.
func (h *Handler) Names() []string {
	names := make([]string, 0, len(h.compiled))
	for id := range h.compiled {
		names = append(names, id.String())
	}
	sort.Strings(names)
	return names
}

// Exec runs cmdName for actor. It must be called while holding the world lock.
func (h *Handler) Exec(ctx context.Context, world *game.World, actor *game.Character, cmdName string, args ...string) error {
	compiled, ok := h.compiled[storage.Identifier(strings.ToLower(cmdName))]
	if !ok {
		return NewUserError(fmt.Sprintf("Unknown command: %s", cmdName))
	}

	if len(args) < compiled.cmd.MinArgs {
		if compiled.cmd.Usage != "" {
			return NewUserError("Usage: " + compiled.cmd.Usage)
		}
		return NewUserError(fmt.Sprintf("Expected at least %d argument(s), got %d", compiled.cmd.MinArgs, len(args)))
	}

	room := actor.Room()
	if room == nil {
		return NewUserError("You are nowhere.")
	}

	data := &TemplateData{
		Actor: actor.Name,
		Room:  room.Name,
		Args:  args,
		Rest:  strings.Join(args, " "),
	}
	config, err := expandConfig(compiled.cmd.Config, data)
	if err != nil {
		return fmt.Errorf("command %q: %w", cmdName, err)
	}

	return compiled.cmdFunc(ctx, &CommandContext{
		World:  world,
		Actor:  actor,
		Room:   room,
		Args:   args,
		Config: config,
	})
}

// send expands a config message and sends it to the actor, if configured.
func (c *CommandContext) send(key string) {
	if msg := c.Config[key]; msg != "" {
		c.Actor.Send(game.NewText("%s", msg))
	}
}

// broadcast publishes a config message to the actor's room, if configured.
func (c *CommandContext) broadcast(key string) {
	if msg := c.Config[key]; msg != "" {
		c.Room.Publish(game.NewText("%s", msg))
	}
}

func requireKeys(config map[string]any, keys ...string) error {
	for _, k := range keys {
		v, ok := config[k]
		if !ok {
			return fmt.Errorf("%s is required", k)
		}
		if s, ok := v.(string); ok {
			if err := checkTemplate(s); err != nil {
				return fmt.Errorf("%s: %w", k, err)
			}
		}
	}
	return nil
}
