package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/pixil98/tickmud/internal/auth"
	"github.com/pixil98/tickmud/internal/commands"
	"github.com/pixil98/tickmud/internal/game"
)

// Conn is one client connection carrying JSON frames.
type Conn interface {
	// ReadFrame blocks until the next inbound frame arrives.
	ReadFrame(ctx context.Context) ([]byte, error)
	game.Transport
}

// Executor runs a named command for a character. Called inside World.Exec.
type Executor interface {
	Exec(ctx context.Context, world *game.World, actor *game.Character, cmdName string, args ...string) error
}

// Manager bridges client connections into the world.
type Manager struct {
	world    *game.World
	auth     auth.Authenticator
	commands Executor
}

func NewManager(world *game.World, authn auth.Authenticator, cmds Executor) *Manager {
	return &Manager{
		world:    world,
		auth:     authn,
		commands: cmds,
	}
}

type session struct {
	id        string
	conn      Conn
	claims    auth.Claims
	character *game.Character
}

// Serve reads frames from conn until it closes, the context ends or the
// client fails authentication. The connection is closed on return.
func (m *Manager) Serve(ctx context.Context, conn Conn) error {
	s := &session{
		id:   uuid.NewString(),
		conn: conn,
	}

	slog.DebugContext(ctx, "session opened", "session", s.id)
	defer func() {
		m.release(ctx, s)
		if err := conn.Close(); err != nil {
			slog.DebugContext(ctx, "closing connection", "session", s.id, "error", err)
		}
		slog.DebugContext(ctx, "session closed", "session", s.id)
	}()

	for {
		data, err := conn.ReadFrame(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			return fmt.Errorf("reading frame: %w", err)
		}

		if !m.handle(ctx, s, data) {
			return nil
		}
	}
}

// handle processes one frame and reports whether the session stays open.
func (m *Manager) handle(ctx context.Context, s *session, data []byte) bool {
	f, err := decodeFrame(data)
	if err != nil {
		return m.reply(ctx, s, badMessage("%s", err))
	}

	claims, err := m.auth.Authenticate(f.Auth)
	if err != nil {
		slog.InfoContext(ctx, "rejecting frame", "session", s.id, "error", err)
		m.reply(ctx, s, unauthorized())
		return false
	}
	s.claims = claims

	switch f.MessageType {
	case MsgLoginCharacter:
		return m.login(ctx, s, f)
	case MsgCommand:
		return m.command(ctx, s, f)
	case "":
		return m.reply(ctx, s, badMessage("messageType is required"))
	default:
		return m.reply(ctx, s, badMessage("unknown messageType %q", f.MessageType))
	}
}

func (m *Manager) login(ctx context.Context, s *session, f *frame) bool {
	if f.CharacterID == "" {
		return m.reply(ctx, s, badMessage("characterId is required"))
	}
	if !s.claims.Allows(f.CharacterID) {
		slog.InfoContext(ctx, "character not permitted by token", "session", s.id, "character", f.CharacterID)
		m.reply(ctx, s, unauthorized())
		return false
	}

	err := m.world.Exec(func() error {
		if s.character != nil && s.character.ID != f.CharacterID {
			s.character.Release(s.conn)
			s.character = nil
		}
		c, err := m.world.LoginCharacter(ctx, f.CharacterID, s.conn)
		if err != nil {
			return err
		}
		s.character = c
		return nil
	})
	switch {
	case err == nil:
		return true
	case errors.Is(err, game.ErrCharacterNotFound), errors.Is(err, game.ErrCharacterDead):
		return m.reply(ctx, s, badMessage("%s", err))
	case errors.Is(err, game.ErrWorldClosed):
		return false
	default:
		slog.ErrorContext(ctx, "logging in character", "session", s.id, "character", f.CharacterID, "error", err)
		return m.reply(ctx, s, badMessage("unable to load character %s", f.CharacterID))
	}
}

func (m *Manager) command(ctx context.Context, s *session, f *frame) bool {
	if s.character == nil {
		return m.reply(ctx, s, badMessage("not logged in"))
	}
	if !s.claims.Allows(s.character.ID) {
		slog.InfoContext(ctx, "character not permitted by token", "session", s.id, "character", s.character.ID)
		m.reply(ctx, s, unauthorized())
		return false
	}
	if f.Command == "" {
		return m.reply(ctx, s, badMessage("command is required"))
	}

	err := m.world.Exec(func() error {
		return m.commands.Exec(ctx, m.world, s.character, f.Command, f.Args...)
	})

	var ue *commands.UserError
	switch {
	case err == nil:
		return true
	case errors.As(err, &ue):
		return m.reply(ctx, s, game.NewText("%s", ue.Message))
	case errors.Is(err, game.ErrWorldClosed):
		return false
	default:
		slog.ErrorContext(ctx, "executing command", "session", s.id, "command", f.Command, "error", err)
		return m.reply(ctx, s, badMessage("command %s failed", f.Command))
	}
}

// reply sends v directly on the connection and reports whether it is still
// usable.
func (m *Manager) reply(ctx context.Context, s *session, v any) bool {
	if err := s.conn.Send(v); err != nil {
		slog.DebugContext(ctx, "sending reply", "session", s.id, "error", err)
		return false
	}
	return true
}

// release detaches the connection from its character. The character stays in
// the world.
func (m *Manager) release(ctx context.Context, s *session) {
	if s.character == nil {
		return
	}
	err := m.world.Exec(func() error {
		s.character.Release(s.conn)
		return nil
	})
	if err != nil && !errors.Is(err, game.ErrWorldClosed) {
		slog.WarnContext(ctx, "releasing character", "session", s.id, "error", err)
	}
}
