package net

import (
	"sync"

	"github.com/citysim/simcore/sim"
	"github.com/google/uuid"
)

// State is a client's place in the join/catch-up/playing state machine
// (spec.md §4.K).
type State uint8

const (
	// StateJoining is the handshake state: the client has connected but
	// has not yet received an initial snapshot.
	StateJoining State = iota
	// StateCatchingUp means the client holds an initial snapshot and is
	// replaying CatchUp batches recorded since it was taken, as fast as it
	// can, before switching to Playing.
	StateCatchingUp
	// StatePlaying means the client is receiving MergedFrame broadcasts in
	// lockstep with the server's own tick rate.
	StatePlaying
)

// Session is the server's view of one connected client.
type Session struct {
	ID    uuid.UUID
	mu    sync.Mutex
	state State

	// SnapshotTick is the tick the client's initial snapshot was taken at;
	// catch-up replays every recorded tick after this one.
	SnapshotTick sim.Tick
	// Acked is the highest tick the server has received an InputFrame for
	// from this client (see Ack).
	Acked sim.Tick
}

// NewSession returns a fresh Session in StateJoining.
func NewSession(id uuid.UUID) *Session {
	return &Session{ID: id, state: StateJoining}
}

// State returns the session's current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// BeginCatchUp transitions Joining -> CatchingUp once an initial snapshot
// at snapshotTick has been sent.
func (s *Session) BeginCatchUp(snapshotTick sim.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateCatchingUp
	s.SnapshotTick = snapshotTick
}

// FinishCatchUp transitions CatchingUp -> Playing. The caller (the
// server's joinHandshake) only calls this once runCatchUp has returned with
// the client within CatchUpTickThreshold ticks of live, per spec.md §4.K.
func (s *Session) FinishCatchUp() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCatchingUp {
		return false
	}
	s.state = StatePlaying
	return true
}

// Ack records the highest tick the server has received an InputFrame for
// from this client, used to report the client's lag back to it in every
// MergedFrame (spec.md §4.K).
func (s *Session) Ack(tick sim.Tick) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tick > s.Acked {
		s.Acked = tick
	}
}
