package effects

// Kind labels an effect so callers can ask questions like "is this actor stunned".
type Kind string

const (
	KindStun   Kind = "stun"
	KindPrayer Kind = "prayer"
	KindStatus Kind = "status"
)

// Item is a time limited effect owned by a single actor.
type Item struct {
	Kind  Kind
	Name  string
	Ticks int

	// OnPush runs once when the item enters a queue.
	OnPush func(*Item)
	// OnTick runs after each decrement the item survives.
	OnTick func(*Item)
	// OnExpire runs once when the counter reaches zero or below.
	OnExpire func(*Item)

	cancelled bool
}

// Expired reports whether the item has run out of ticks.
func (i *Item) Expired() bool {
	return i.Ticks <= 0
}

// Expire forces the item to expire on the current pass.
func (i *Item) Expire() {
	i.Ticks = 0
}

// Queue is an ordered collection of effects aged once per owner tick.
type Queue struct {
	items   []*Item
	walking bool
	// pushed holds items added while a decrement pass is running.
	pushed []*Item
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push fires the item's OnPush callback and appends it.
func (q *Queue) Push(item *Item) {
	if item == nil {
		return
	}
	item.cancelled = false
	if item.OnPush != nil {
		item.OnPush(item)
	}
	if q.walking {
		q.pushed = append(q.pushed, item)
		return
	}
	q.items = append(q.items, item)
}

// DecrementAndExpire ages every item by one tick and returns the ones that
// expired. Items pushed while the pass runs are left untouched until the next pass.
func (q *Queue) DecrementAndExpire() []*Item {
	q.walking = true
	defer func() { q.walking = false }()

	var active, expired []*Item
	for _, item := range q.items {
		if item.cancelled {
			continue
		}

		item.Ticks--
		if !item.Expired() && item.OnTick != nil {
			item.OnTick(item)
		}

		// OnTick may have expired or cancelled the item.
		if item.cancelled {
			continue
		}
		if item.Expired() {
			expired = append(expired, item)
			continue
		}
		active = append(active, item)
	}

	for _, item := range expired {
		if item.OnExpire != nil {
			item.OnExpire(item)
		}
	}

	q.items = active
	for _, item := range q.pushed {
		if !item.cancelled {
			q.items = append(q.items, item)
		}
	}
	q.pushed = nil

	return expired
}

// Remove cancels item without firing OnExpire.
func (q *Queue) Remove(item *Item) bool {
	if item == nil {
		return false
	}
	for i, it := range q.items {
		if it == item {
			it.cancelled = true
			q.items = append(q.items[:i:i], q.items[i+1:]...)
			return true
		}
	}
	for i, it := range q.pushed {
		if it == item {
			it.cancelled = true
			q.pushed = append(q.pushed[:i:i], q.pushed[i+1:]...)
			return true
		}
	}
	return false
}

// Clear cancels every pending item without firing OnExpire.
func (q *Queue) Clear() {
	for _, it := range q.items {
		it.cancelled = true
	}
	for _, it := range q.pushed {
		it.cancelled = true
	}
	q.items = nil
	q.pushed = nil
}

// Find returns the first item matching pred, or nil.
func (q *Queue) Find(pred func(*Item) bool) *Item {
	for _, it := range q.all() {
		if pred(it) {
			return it
		}
	}
	return nil
}

// Every reports whether pred holds for all items. An empty queue returns true.
func (q *Queue) Every(pred func(*Item) bool) bool {
	for _, it := range q.all() {
		if !pred(it) {
			return false
		}
	}
	return true
}

// Has reports whether an item of the given kind is pending.
func (q *Queue) Has(kind Kind) bool {
	return q.Find(func(it *Item) bool { return it.Kind == kind }) != nil
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	return len(q.all())
}

func (q *Queue) all() []*Item {
	var out []*Item
	for _, it := range q.items {
		if !it.cancelled {
			out = append(out, it)
		}
	}
	for _, it := range q.pushed {
		if !it.cancelled {
			out = append(out, it)
		}
	}
	return out
}
