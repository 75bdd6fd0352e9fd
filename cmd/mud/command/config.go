package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/storage"
)

type Config struct {
	TickInterval    string           `json:"tick_interval"`
	SaveEvery       *int             `json:"save_every,omitempty"`
	BusPollInterval string           `json:"bus_poll_interval,omitempty"`
	DefaultRoom     string           `json:"default_room,omitempty"`
	Combat          CombatConfig     `json:"combat"`
	Listeners       []ListenerConfig `json:"listeners"`
	Storage         StorageConfig    `json:"storage"`
	Nats            *NatsConfig      `json:"nats,omitempty"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < 100*time.Millisecond {
			el.Add(fmt.Errorf("tick_interval must be at least 100ms"))
		}
	}

	if c.BusPollInterval != "" {
		d, err := time.ParseDuration(c.BusPollInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing bus_poll_interval: %w", err))
		} else if d <= 0 {
			el.Add(fmt.Errorf("bus_poll_interval must be positive"))
		}
	}

	if c.SaveEvery != nil && *c.SaveEvery < 0 {
		el.Add(fmt.Errorf("save_every must not be negative"))
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		err := l.Validate()
		if err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.Combat.Validate())
	el.Add(c.Storage.Validate())
	if c.Nats != nil {
		el.Add(c.Nats.Validate())
	}

	return el.Err()
}

// worldOptions translates the config into world options. It assumes Validate
// has passed.
func (c *Config) worldOptions() []game.WorldOpt {
	var opts []game.WorldOpt
	if d, err := time.ParseDuration(c.TickInterval); err == nil {
		opts = append(opts, game.WithTickInterval(d))
	}
	if c.SaveEvery != nil {
		opts = append(opts, game.WithSaveEvery(*c.SaveEvery))
	}
	if c.DefaultRoom != "" {
		opts = append(opts, game.WithDefaultRoom(storage.Identifier(c.DefaultRoom)))
	}
	return append(opts, game.WithFactionModifiers(c.Combat.Faction.modifiers()))
}

type CombatConfig struct {
	Faction FactionConfig `json:"faction"`
}

func (c *CombatConfig) Validate() error {
	return c.Faction.Validate()
}

type FactionConfig struct {
	PositiveModifier *int `json:"positive_modifier,omitempty"`
	NegativeModifier *int `json:"negative_modifier,omitempty"`
}

func (c *FactionConfig) Validate() error {
	el := errors.NewErrorList()
	if c.PositiveModifier != nil && *c.PositiveModifier < 0 {
		el.Add(fmt.Errorf("combat.faction.positive_modifier must not be negative"))
	}
	if c.NegativeModifier != nil && *c.NegativeModifier < 0 {
		el.Add(fmt.Errorf("combat.faction.negative_modifier must not be negative"))
	}
	return el.Err()
}

func (c *FactionConfig) modifiers() game.FactionModifiers {
	m := game.DefaultFactionModifiers
	if c.PositiveModifier != nil {
		m.Positive = *c.PositiveModifier
	}
	if c.NegativeModifier != nil {
		m.Negative = *c.NegativeModifier
	}
	return m
}
