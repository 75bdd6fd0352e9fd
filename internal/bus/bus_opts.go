package bus

import "time"

type BusOpt func(*Bus)

// WithPollInterval sets how often the delivery loop drains mailboxes.
func WithPollInterval(d time.Duration) BusOpt {
	return func(b *Bus) {
		if d > 0 {
			b.pollInterval = d
		}
	}
}

// WithClock overrides the arrival timestamp source.
func WithClock(now func() time.Time) BusOpt {
	return func(b *Bus) {
		b.now = now
	}
}
