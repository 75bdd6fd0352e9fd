package commands

import (
	"github.com/pixil98/tickmud/internal/storage"
)

// CommandSet is an in-memory set of commands keyed by name.
type CommandSet map[storage.Identifier]*Command

func (s CommandSet) Get(id storage.Identifier) (*Command, bool) {
	c, ok := s[id]
	return c, ok
}

func (s CommandSet) GetAll() map[storage.Identifier]*Command {
	out := make(CommandSet, len(s))
	for id, c := range s {
		out[id] = c
	}
	return out
}

// Merge returns the commands of s overlaid with every command in other.
func (s CommandSet) Merge(other storage.Storer[*Command]) CommandSet {
	out := s.GetAll()
	if other == nil {
		return out
	}
	for id, c := range other.GetAll() {
		out[id] = c
	}
	return out
}

var directions = map[string]string{
	"north": "n",
	"south": "s",
	"east":  "e",
	"west":  "w",
	"up":    "u",
	"down":  "d",
}

// DefaultCommands returns the built-in command set.
func DefaultCommands() CommandSet {
	set := CommandSet{
		"look": {Handler: "look"},
		"say": {
			Handler: "say",
			Config:  map[string]any{"text": "{{ .Rest }}", "sender_message": `You say, "{{ .Rest }}"`},
			MinArgs: 1,
			Usage:   "say <message>",
		},
		"kill": {
			Handler: "attack",
			MinArgs: 1,
			Usage:   "kill <target>",
		},
		"bash": {
			Handler: "attack",
			Config: map[string]any{
				"stun_ticks":   2,
				"room_message": "{{ .Actor }} slams into {{ index .Args 0 }}!",
			},
			MinArgs: 1,
			Usage:   "bash <target>",
		},
		"flee": {Handler: "flee"},
		"rest": {
			Handler: "position",
			Config:  map[string]any{"state": "resting", "sender_message": "You sit down and rest."},
		},
		"stand": {
			Handler: "position",
			Config:  map[string]any{"state": "normal", "sender_message": "You stand up."},
		},
		"pray": {
			Handler: "pray",
			Config:  map[string]any{"ticks": 3, "heal": 10},
		},
		"go": {
			Handler: "move",
			Config:  map[string]any{"direction": "{{ index .Args 0 }}"},
			MinArgs: 1,
			Usage:   "go <direction>",
		},
		"open": {
			Handler: "door",
			Config:  map[string]any{"open": true},
			MinArgs: 1,
			Usage:   "open <direction>",
		},
		"close": {
			Handler: "door",
			Config:  map[string]any{"open": false},
			MinArgs: 1,
			Usage:   "close <direction>",
		},
	}

	for dir, short := range directions {
		cmd := &Command{Handler: "move", Config: map[string]any{"direction": dir}}
		set[storage.Identifier(dir)] = cmd
		set[storage.Identifier(short)] = cmd
	}
	return set
}
