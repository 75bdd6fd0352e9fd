package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second * 3
)

type Ticker interface {
	Tick(context.Context) error
}

// MudDriver calls every Ticker in order on a fixed cadence. A tick always runs
// to completion before the next one starts.
type MudDriver struct {
	tickLength time.Duration
	tickers    []Ticker
	now        func() time.Time
}

func NewMudDriver(tickers []Ticker, opts ...MudDriverOpt) *MudDriver {
	d := &MudDriver{
		tickLength: DefaultTickLength,
		tickers:    tickers,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *MudDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			started := d.now()
			err := d.Tick(ctx)
			if err != nil {
				return err
			}
			if elapsed := d.now().Sub(started); elapsed > d.tickLength {
				slog.WarnContext(ctx, "tick overran interval", "elapsed", elapsed, "interval", d.tickLength)
			}
		}
	}
}

func (d *MudDriver) Tick(ctx context.Context) error {
	for _, t := range d.tickers {
		if err := t.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}
