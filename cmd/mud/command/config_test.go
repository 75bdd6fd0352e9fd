package command

import (
	"testing"

	"github.com/pixil98/go-testutil"
	"github.com/pixil98/tickmud/internal/game"
)

func intPtr(i int) *int { return &i }

func validConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	return &Config{
		TickInterval: "3s",
		Listeners:    []ListenerConfig{{Protocol: ListenerTypeWebSocket, Port: 4000, Path: "/ws"}},
		Storage: StorageConfig{
			Assets: AssetsConfig{
				Areas:   AssetConfig[*game.AreaSpec]{Path: dir},
				Mobiles: AssetConfig[*game.MobileSpec]{Path: dir},
			},
			Persistence: PersistenceConfig{Driver: PersistenceMemory},
		},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := map[string]struct {
		modify func(c *Config)
		expErr string
	}{
		"valid": {
			modify: func(c *Config) {},
		},
		"bad tick interval": {
			modify: func(c *Config) { c.TickInterval = "soon" },
			expErr: "parsing tick_interval",
		},
		"tick interval too short": {
			modify: func(c *Config) { c.TickInterval = "1ms" },
			expErr: "tick_interval must be at least 100ms",
		},
		"bad bus poll interval": {
			modify: func(c *Config) { c.BusPollInterval = "-5ms" },
			expErr: "bus_poll_interval must be positive",
		},
		"negative save every": {
			modify: func(c *Config) { c.SaveEvery = intPtr(-1) },
			expErr: "save_every must not be negative",
		},
		"no listeners": {
			modify: func(c *Config) { c.Listeners = nil },
			expErr: "at least one listener is required",
		},
		"listener without port": {
			modify: func(c *Config) { c.Listeners[0].Port = 0 },
			expErr: "listener 0: port must be set to a positive integer",
		},
		"path on telnet listener": {
			modify: func(c *Config) { c.Listeners[0].Protocol = ListenerTypeTelnet },
			expErr: "path is only valid for websocket listeners",
		},
		"negative faction modifier": {
			modify: func(c *Config) { c.Combat.Faction.NegativeModifier = intPtr(-2) },
			expErr: "combat.faction.negative_modifier must not be negative",
		},
		"missing area path": {
			modify: func(c *Config) { c.Storage.Assets.Areas.Path = "" },
			expErr: "storage.assets.areas: path is required",
		},
		"missing persistence driver": {
			modify: func(c *Config) { c.Storage.Persistence.Driver = "" },
			expErr: "storage.persistence.driver is required",
		},
		"sqlite needs path": {
			modify: func(c *Config) { c.Storage.Persistence.Driver = PersistenceSQLite },
			expErr: "storage.persistence.path is required for the sqlite driver",
		},
		"unknown driver": {
			modify: func(c *Config) { c.Storage.Persistence.Driver = "postgres" },
			expErr: `unknown storage.persistence.driver "postgres"`,
		},
		"bad nats timeout": {
			modify: func(c *Config) { c.Nats = &NatsConfig{StartTimeout: "later"} },
			expErr: "parsing start_timeout",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig(t)
			tt.modify(c)

			err := c.Validate()
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestListenerType_UnmarshalText(t *testing.T) {
	tests := map[string]struct {
		in     string
		exp    ListenerType
		expErr string
	}{
		"telnet":    {in: "telnet", exp: ListenerTypeTelnet},
		"ssh":       {in: "ssh", exp: ListenerTypeSSH},
		"websocket": {in: "websocket", exp: ListenerTypeWebSocket},
		"unknown":   {in: "gopher", expErr: "unknown listener type: gopher"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var lt ListenerType
			err := lt.UnmarshalText([]byte(tt.in))
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "type", lt, tt.exp)
		})
	}
}

func TestFactionConfig_Modifiers(t *testing.T) {
	c := FactionConfig{PositiveModifier: intPtr(3)}
	m := c.modifiers()
	testutil.AssertEqual(t, "positive", m.Positive, 3)
	testutil.AssertEqual(t, "negative", m.Negative, game.DefaultFactionModifiers.Negative)
}

func TestPersistenceConfig_BuildDocumentStore(t *testing.T) {
	tests := map[string]PersistenceDriver{
		"memory": PersistenceMemory,
		"file":   PersistenceFile,
		"sqlite": PersistenceSQLite,
	}

	for name, driver := range tests {
		t.Run(name, func(t *testing.T) {
			c := PersistenceConfig{Driver: driver, Path: t.TempDir() + "/state"}
			store, closer, err := c.BuildDocumentStore()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "store", store != nil, true)
			if err := closer.Close(); err != nil {
				t.Fatalf("closing: %v", err)
			}
		})
	}
}
