package net

import (
	"sort"
	"sync"

	"github.com/citysim/simcore/sim"
	"github.com/google/uuid"
)

// ForceConsumeAfterAttempts bounds how many times Ready/Drain may be polled
// for a tick before it is merged anyway using only the submissions that
// have arrived so far (spec.md §4.K "force-consume deadline"). This counts
// poll attempts, not wall-clock time, so a slow external loop never feeds
// real time into deterministic state (spec.md §4.A).
const ForceConsumeAfterAttempts = 50

// partialTick accumulates the submissions received so far for one future
// tick, across every connected user.
type partialTick struct {
	submitted map[uuid.UUID][]sim.Command
	attempts  int
}

// InputRingBuffer accumulates every connected user's submission per future
// tick (spec.md §4.K "PartialInputs"): a tick is mergeable once every
// registered user has submitted for it, or once ForceConsumeAfterAttempts
// polls have passed with at least one submission.
type InputRingBuffer struct {
	mu      sync.Mutex
	users   map[uuid.UUID]struct{}
	pending map[sim.Tick]*partialTick
}

// NewInputRingBuffer returns an empty buffer with no registered users.
func NewInputRingBuffer() *InputRingBuffer {
	return &InputRingBuffer{
		users:   make(map[uuid.UUID]struct{}),
		pending: make(map[sim.Tick]*partialTick),
	}
}

// AddUser registers client as a participant whose submission Ready waits
// for on every future tick.
func (b *InputRingBuffer) AddUser(client uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users[client] = struct{}{}
}

// RemoveUser drops client from the registered set, so its absence no
// longer holds up any pending tick.
func (b *InputRingBuffer) RemoveUser(client uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.users, client)
}

// Submit records client's command batch for tick, idempotently: a repeat
// submission for a tick already recorded (e.g. replayed via the InputFrame
// resend window) is ignored rather than overwriting the first.
func (b *InputRingBuffer) Submit(client uuid.UUID, tick sim.Tick, cmds []sim.Command) {
	b.mu.Lock()
	defer b.mu.Unlock()
	pt := b.pending[tick]
	if pt == nil {
		pt = &partialTick{submitted: make(map[uuid.UUID][]sim.Command)}
		b.pending[tick] = pt
	}
	if _, ok := pt.submitted[client]; ok {
		return
	}
	pt.submitted[client] = cmds
}

// Ready reports whether tick may be merged: every registered user has
// submitted, or the force-consume deadline has been reached with at least
// one submission. Calling Ready counts as one poll attempt toward that
// deadline.
func (b *InputRingBuffer) Ready(tick sim.Tick) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	pt := b.pending[tick]
	if pt == nil {
		pt = &partialTick{submitted: make(map[uuid.UUID][]sim.Command)}
		b.pending[tick] = pt
	}
	if len(pt.submitted) >= len(b.users) && len(b.users) > 0 {
		return true
	}
	pt.attempts++
	return len(pt.submitted) > 0 && pt.attempts >= ForceConsumeAfterAttempts
}

// Drain merges tick's recorded submissions (whichever users reported in)
// into one command batch ordered by ascending client UUID -- a total order
// every participant can reproduce without needing to agree on arrival
// order -- and discards every tick at or before it, since a tick is never
// revisited once merged.
func (b *InputRingBuffer) Drain(tick sim.Tick) MergedInputs {
	b.mu.Lock()
	defer b.mu.Unlock()

	pt := b.pending[tick]
	var merged []sim.Command
	if pt != nil {
		clients := make([]uuid.UUID, 0, len(pt.submitted))
		for c := range pt.submitted {
			clients = append(clients, c)
		}
		sort.Slice(clients, func(i, j int) bool { return clients[i].String() < clients[j].String() })
		for _, c := range clients {
			merged = append(merged, pt.submitted[c]...)
		}
	}
	for t := range b.pending {
		if t <= tick {
			delete(b.pending, t)
		}
	}
	return MergedInputs{Commands: merged}
}
