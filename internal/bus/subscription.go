package bus

import (
	"sync"
	"time"
)

type packetKind int

const (
	packetMessage packetKind = iota
	packetTeardown
)

// packet is one mailbox entry: either a regular payload or the teardown marker.
type packet struct {
	kind    packetKind
	payload any
	arrived time.Time
	seq     uint64
}

// Subscription binds a topic to a handler and owns its ordered mailbox.
type Subscription struct {
	topic   string
	handler Handler

	mu      sync.Mutex
	mailbox []packet
	nextSeq uint64
	closing bool
	removed bool
}

// Topic returns the topic the subscription listens on.
func (s *Subscription) Topic() string {
	return s.topic
}

// Active reports whether the subscription will still deliver messages.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closing && !s.removed
}

// Pending returns the number of undelivered packets in the mailbox.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mailbox)
}

// enqueue appends a packet. Once a teardown is queued nothing else is accepted
// since it would be discarded at delivery anyway.
func (s *Subscription) enqueue(kind packetKind, payload any, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing || s.removed {
		return
	}

	s.nextSeq++
	s.mailbox = append(s.mailbox, packet{
		kind:    kind,
		payload: payload,
		arrived: now,
		seq:     s.nextSeq,
	})

	if kind == packetTeardown {
		s.closing = true
	}
}

func (s *Subscription) take() []packet {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.mailbox
	s.mailbox = nil
	return out
}

func (s *Subscription) markRemoved() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removed = true
	s.mailbox = nil
}
