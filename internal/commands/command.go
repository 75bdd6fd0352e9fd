package commands

import (
	"fmt"
	"strings"
)

// Command defines a command loaded from JSON.
type Command struct {
	Handler string         `json:"handler"`
	Config  map[string]any `json:"config"` // Config passed to handler, string values are templates
	// MinArgs is the number of words the player must supply.
	MinArgs int    `json:"min_args,omitempty"`
	Usage   string `json:"usage,omitempty"`
}

func (c *Command) Validate() error {
	if c.Handler == "" {
		return fmt.Errorf("command handler not set")
	}
	if c.MinArgs < 0 {
		return fmt.Errorf("min_args must not be negative")
	}
	for k := range c.Config {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("config keys must not be blank")
		}
	}
	return nil
}
