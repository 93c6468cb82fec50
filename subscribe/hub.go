// Package subscribe fans out world-delta notifications to interested
// listeners (a debug websocket view, an autosave trigger, a minimap cache)
// without involving them in the tick step itself: the tick loop only ever
// does a non-blocking send into the hub, and a background goroutine owns
// the actual fan-out to subscribers.
package subscribe

import (
	"context"
	"sync"

	channerics "github.com/niceyeti/channerics/channels"
)

// UpdateType classifies what changed so subscribers can filter to only
// the deltas they care about.
type UpdateType int

const (
	Road UpdateType = iota
	Building
	Terrain
)

// Update is one world-delta notification, naming the chunk it touched so
// a subscriber with a spatial view can decide whether to care.
type Update struct {
	Type    UpdateType
	ChunkID int64
	Tick    uint64
}

// inboxSize bounds how many pending updates the hub queues; once it is
// full, Publish drops further updates rather than block the tick step. A
// subscriber whose own channel is full misses the update instead of
// back-pressuring the hub.
const inboxSize = 4096

// Hub is the single fan-in point for world deltas. The tick step calls
// Publish; everything else happens off that goroutine.
type Hub struct {
	in   chan Update
	done <-chan struct{}

	mu   sync.Mutex
	subs map[int]*Subscriber
	next int
}

// Subscriber is a registered listener's view of the hub: Updates carries
// only notifications matching the types it registered for.
type Subscriber struct {
	id      int
	types   map[UpdateType]bool
	out     chan Update
	Updates <-chan Update

	hub *Hub
}

// NewHub starts the hub's fan-out goroutine, which runs until ctx is
// cancelled.
func NewHub(ctx context.Context) *Hub {
	h := &Hub{
		in:   make(chan Update, inboxSize),
		done: ctx.Done(),
		subs: make(map[int]*Subscriber),
	}
	go h.run()
	return h
}

// Publish enqueues an update for fan-out. It never blocks: if the inbox
// is full, the update is dropped rather than stalling the tick step.
func (h *Hub) Publish(u Update) {
	select {
	case h.in <- u:
	default:
	}
}

// Subscribe registers a new listener interested only in the given types.
// An empty types list subscribes to everything.
func (h *Hub) Subscribe(types ...UpdateType) *Subscriber {
	filter := make(map[UpdateType]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}
	out := make(chan Update, 64)
	h.mu.Lock()
	id := h.next
	h.next++
	sub := &Subscriber{id: id, types: filter, out: out, Updates: out, hub: h}
	h.subs[id] = sub
	h.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscriber from the fan-out set. Its Updates
// channel is left open but will never receive again; once the caller
// drops its reference it is garbage collected. It is never closed here,
// since dispatch may be sending to it concurrently and a send on a
// closed channel panics.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	delete(h.subs, sub.id)
	h.mu.Unlock()
}

func (h *Hub) run() {
	for u := range channerics.OrDone[Update](h.done, h.in) {
		h.dispatch(u)
	}
}

// dispatch holds the lock for the full send loop so a concurrent
// Unsubscribe can't race with a send to the channel it removes.
func (h *Hub) dispatch(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subs {
		if len(sub.types) != 0 && !sub.types[u.Type] {
			continue
		}
		select {
		case sub.out <- u:
		default:
			// Slow subscriber: drop rather than block the fan-out goroutine.
		}
	}
}
