package driver

import "time"

type MudDriverOpt func(*MudDriver)

func WithTickLength(tickLength time.Duration) MudDriverOpt {
	return func(d *MudDriver) {
		if tickLength > 0 {
			d.tickLength = tickLength
		}
	}
}

func WithClock(now func() time.Time) MudDriverOpt {
	return func(d *MudDriver) {
		d.now = now
	}
}
