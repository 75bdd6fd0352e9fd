package command

import (
	"fmt"
	"io"
	"os"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/tickmud/internal/commands"
	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/storage"
)

type StorageConfig struct {
	Assets      AssetsConfig      `json:"assets"`
	Persistence PersistenceConfig `json:"persistence"`
}

func (c *StorageConfig) Validate() error {
	el := errors.NewErrorList()
	el.Add(c.Assets.Validate())
	el.Add(c.Persistence.Validate())
	return el.Err()
}

// AssetsConfig points at the static content directories.
type AssetsConfig struct {
	Areas   AssetConfig[*game.AreaSpec]   `json:"areas"`
	Mobiles AssetConfig[*game.MobileSpec] `json:"mobiles"`
	// Commands is optional. Commands found there override the built-ins.
	Commands *AssetConfig[*commands.Command] `json:"commands,omitempty"`
}

func (c *AssetsConfig) Validate() error {
	el := errors.NewErrorList()
	el.Add(c.Areas.Validate("storage.assets.areas"))
	el.Add(c.Mobiles.Validate("storage.assets.mobiles"))
	if c.Commands != nil {
		el.Add(c.Commands.Validate("storage.assets.commands"))
	}
	return el.Err()
}

// BuildWorldContent loads mobile templates into a factory registry and builds
// every area from the area assets.
func (c *AssetsConfig) BuildWorldContent() ([]*game.Area, error) {
	mobiles, err := c.Mobiles.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating mobile store: %w", err)
	}
	areas, err := c.Areas.BuildFileStore()
	if err != nil {
		return nil, fmt.Errorf("creating area store: %w", err)
	}

	reg := game.NewRegistry()
	if err := game.RegisterMobiles(reg, mobiles); err != nil {
		return nil, fmt.Errorf("registering mobiles: %w", err)
	}

	return game.BuildAreas(areas, reg), nil
}

// BuildCommandHandler compiles the built-in commands overlaid with any command
// assets.
func (c *AssetsConfig) BuildCommandHandler() (*commands.Handler, error) {
	set := commands.DefaultCommands()
	if c.Commands != nil {
		custom, err := c.Commands.BuildFileStore()
		if err != nil {
			return nil, fmt.Errorf("creating command store: %w", err)
		}
		set = set.Merge(custom)
	}

	h := commands.NewHandler(set)
	if err := h.CompileAll(); err != nil {
		return nil, fmt.Errorf("compiling commands: %w", err)
	}
	return h, nil
}

type AssetConfig[T storage.ValidatingSpec] struct {
	Path string `json:"path"`
}

func (c *AssetConfig[T]) Validate(name string) error {
	if c.Path == "" {
		return fmt.Errorf("%s: path is required", name)
	}
	_, err := os.Stat(c.Path)
	if err != nil {
		return fmt.Errorf("%s: invalid path %q: %w", name, c.Path, err)
	}

	return nil
}

func (c *AssetConfig[T]) BuildFileStore() (*storage.FileStore[T], error) {
	return storage.NewFileStore[T](c.Path)
}

type PersistenceDriver string

const (
	PersistenceFile   PersistenceDriver = "file"
	PersistenceSQLite PersistenceDriver = "sqlite"
	PersistenceMemory PersistenceDriver = "memory"
)

// PersistenceConfig selects where world state is saved.
type PersistenceConfig struct {
	Driver PersistenceDriver `json:"driver"`
	Path   string            `json:"path,omitempty"`
}

func (c *PersistenceConfig) Validate() error {
	el := errors.NewErrorList()

	switch c.Driver {
	case PersistenceFile, PersistenceSQLite:
		if c.Path == "" {
			el.Add(fmt.Errorf("storage.persistence.path is required for the %s driver", c.Driver))
		}
	case PersistenceMemory:
	case "":
		el.Add(fmt.Errorf("storage.persistence.driver is required"))
	default:
		el.Add(fmt.Errorf("unknown storage.persistence.driver %q", c.Driver))
	}

	return el.Err()
}

// BuildDocumentStore opens the configured store. The closer releases it.
func (c *PersistenceConfig) BuildDocumentStore() (storage.DocumentStore, io.Closer, error) {
	switch c.Driver {
	case PersistenceFile:
		s, err := storage.NewFileDocumentStore(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, nopCloser{}, nil
	case PersistenceSQLite:
		s, err := storage.OpenSQLite(c.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case PersistenceMemory:
		return storage.NewMemoryStore(), nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown persistence driver %q", c.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
