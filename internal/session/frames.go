package session

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Inbound message types.
const (
	MsgLoginCharacter = "LoginCharacter"
	MsgCommand        = "Command"
)

// Error frame codes.
const (
	ErrBadMessage   = "BadMessage"
	ErrUnauthorized = "Unauthorized"
)

// ErrorFrame is sent back on the connection that caused a protocol error.
type ErrorFrame struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func badMessage(format string, args ...any) ErrorFrame {
	return ErrorFrame{Error: ErrBadMessage, Message: fmt.Sprintf(format, args...)}
}

func unauthorized() ErrorFrame {
	return ErrorFrame{Error: ErrUnauthorized}
}

// frame is a decoded inbound envelope.
type frame struct {
	Auth        string
	MessageType string
	CharacterID string
	Command     string
	Args        []string
}

func decodeFrame(data []byte) (*frame, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("frame is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("frame must be a JSON object")
	}

	f := &frame{
		Auth:        root.Get("auth").String(),
		MessageType: root.Get("messageType").String(),
		CharacterID: root.Get("characterId").String(),
		Command:     strings.TrimSpace(root.Get("command").String()),
	}

	if args := root.Get("args"); args.Exists() {
		if !args.IsArray() {
			return nil, fmt.Errorf("args must be an array")
		}
		for _, a := range args.Array() {
			f.Args = append(f.Args, a.String())
		}
	} else if fields := strings.Fields(f.Command); len(fields) > 1 {
		// "command": "kill rat" is accepted as shorthand.
		f.Command = fields[0]
		f.Args = fields[1:]
	}

	return f, nil
}
