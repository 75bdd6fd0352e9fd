package command

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pixil98/go-service/service"
	"github.com/pixil98/tickmud/internal/auth"
	"github.com/pixil98/tickmud/internal/bus"
	"github.com/pixil98/tickmud/internal/game"
	"github.com/pixil98/tickmud/internal/listener"
	"github.com/pixil98/tickmud/internal/session"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	authCfg, err := auth.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("loading auth config: %w", err)
	}
	authn, err := auth.NewJWTAuthenticator(authCfg)
	if err != nil {
		return nil, fmt.Errorf("creating authenticator: %w", err)
	}

	areas, err := cfg.Storage.Assets.BuildWorldContent()
	if err != nil {
		return nil, fmt.Errorf("loading world content: %w", err)
	}
	cmds, err := cfg.Storage.Assets.BuildCommandHandler()
	if err != nil {
		return nil, err
	}

	store, closer, err := cfg.Storage.Persistence.BuildDocumentStore()
	if err != nil {
		return nil, fmt.Errorf("opening persistence store: %w", err)
	}

	var busOpts []bus.BusOpt
	if d, err := time.ParseDuration(cfg.BusPollInterval); err == nil {
		busOpts = append(busOpts, bus.WithPollInterval(d))
	}
	b := bus.NewBus(busOpts...)

	world := game.NewWorld(b, store, cfg.worldOptions()...)
	for _, a := range areas {
		world.AddArea(a)
	}
	if world.DefaultRoom() == nil {
		_ = closer.Close()
		return nil, fmt.Errorf("world has no rooms")
	}
	if err := world.Restore(context.Background()); err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("restoring world: %w", err)
	}

	workers := service.WorkerList{
		"bus":   b,
		"world": &worldWorker{world: world, closer: closer},
	}

	var cmOpts []listener.ConnectionManagerOpt
	if cfg.Nats != nil {
		ns, err := cfg.Nats.buildNatsServer()
		if err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		workers["nats"] = ns
		cmOpts = append(cmOpts, listener.WithBroker(ns))
	}

	cm := listener.NewConnectionManager(session.NewManager(world, authn, cmds), cmOpts...)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lw, err := l.BuildListener(cm)
		if err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lw
	}
	workers["listeners"] = &listeners

	return workers, nil
}

// worldWorker runs the tick loop and writes a final save on the way out.
type worldWorker struct {
	world  *game.World
	closer io.Closer
}

func (w *worldWorker) Start(ctx context.Context) error {
	err := w.world.Start(ctx)

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if saveErr := w.world.Save(saveCtx); saveErr != nil {
		slog.ErrorContext(ctx, "final save", "error", saveErr)
	}
	w.world.Shutdown()

	if closeErr := w.closer.Close(); closeErr != nil {
		slog.WarnContext(ctx, "closing persistence store", "error", closeErr)
	}
	return err
}
