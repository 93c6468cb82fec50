package net

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net"
	"testing"

	"github.com/citysim/simcore/sim"
	"github.com/google/uuid"
)

type fakeCmd string

func (f fakeCmd) Tag() string { return string(f) }

func init() {
	RegisterCommand(fakeCmd(""))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInputRingBufferMergesInAscendingClientOrderOnceEveryUserSubmits(t *testing.T) {
	b := NewInputRingBuffer()
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	c := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	b.AddUser(a)
	b.AddUser(c)

	b.Submit(c, 5, []sim.Command{fakeCmd("from-c")})
	if b.Ready(5) {
		t.Fatal("tick should not be ready until every user submits")
	}
	b.Submit(a, 5, []sim.Command{fakeCmd("from-a")})
	if !b.Ready(5) {
		t.Fatal("expected tick ready once every registered user submitted")
	}

	merged := b.Drain(5).Commands
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged commands, got %d", len(merged))
	}
	if merged[0].(fakeCmd) != "from-a" {
		t.Fatalf("expected client a's commands first, got %v", merged[0])
	}
}

func TestInputRingBufferSubmitIsIdempotent(t *testing.T) {
	b := NewInputRingBuffer()
	a := uuid.New()
	b.AddUser(a)
	b.Submit(a, 1, []sim.Command{fakeCmd("first")})
	b.Submit(a, 1, []sim.Command{fakeCmd("second")})

	merged := b.Drain(1).Commands
	if len(merged) != 1 || merged[0].(fakeCmd) != "first" {
		t.Fatalf("expected only the first submission to stick, got %v", merged)
	}
}

func TestInputRingBufferForceConsumesAfterDeadline(t *testing.T) {
	b := NewInputRingBuffer()
	a, other := uuid.New(), uuid.New()
	b.AddUser(a)
	b.AddUser(other)
	b.Submit(a, 1, []sim.Command{fakeCmd("only-a")})

	ready := false
	for i := 0; i < ForceConsumeAfterAttempts; i++ {
		if b.Ready(1) {
			ready = true
			break
		}
	}
	if !ready {
		t.Fatal("expected tick to become ready once the force-consume deadline passed")
	}
	merged := b.Drain(1).Commands
	if len(merged) != 1 {
		t.Fatalf("expected only the one submission present, got %d", len(merged))
	}
}

func TestInputRingBufferDrainDiscardsOlderTicks(t *testing.T) {
	b := NewInputRingBuffer()
	a := uuid.New()
	b.AddUser(a)
	b.Submit(a, 1, []sim.Command{fakeCmd("t1")})
	b.Submit(a, 2, []sim.Command{fakeCmd("t2")})
	b.Drain(2)
	if len(b.Drain(1).Commands) != 0 {
		t.Fatal("expected tick 1 discarded once tick 2 was drained")
	}
}

func TestEnvelopeRoundTripsThroughWriteRead(t *testing.T) {
	env, err := EncodeEnvelope(KindInputFrame, InputFrame{Frame: 7, LastN: []TickInput{{Tick: 7, Input: PlayerInput{Commands: []sim.Command{fakeCmd("hi")}}}}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	var buf bytes.Buffer
	if err := writeEnvelope(&buf, env); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := readEnvelope(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	payload, err := got.Decode()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	frame, ok := payload.(InputFrame)
	if !ok {
		t.Fatalf("expected InputFrame, got %T", payload)
	}
	if frame.Frame != 7 || len(frame.LastN) != 1 {
		t.Fatalf("unexpected round-tripped payload: %+v", frame)
	}
}

func TestSessionStateMachineTransitions(t *testing.T) {
	s := NewSession(uuid.New())
	if s.State() != StateJoining {
		t.Fatal("expected initial state Joining")
	}
	s.BeginCatchUp(10)
	if s.State() != StateCatchingUp {
		t.Fatal("expected CatchingUp after BeginCatchUp")
	}
	if !s.FinishCatchUp() {
		t.Fatal("expected FinishCatchUp to succeed from CatchingUp")
	}
	if s.State() != StatePlaying {
		t.Fatal("expected Playing after FinishCatchUp")
	}
	if s.FinishCatchUp() {
		t.Fatal("FinishCatchUp should be a no-op once already Playing")
	}
}

// TestJoinHandshakeEndToEnd drives a real Server.handle against a Client
// over an in-memory net.Pipe, exercising Connect/Accept, fragmented
// WorldSend, batched CatchUp, and ReadyToPlay promotion together.
func TestJoinHandshakeEndToEnd(t *testing.T) {
	serverSide, clientSide := net.Pipe()

	const snapshotTick sim.Tick = 100
	const liveTick sim.Tick = 100 + 2*MaxCatchUpPacketSize + 10 // forces two CatchUp batches
	snapshot := bytes.Repeat([]byte{0xAB}, MaxWorldSendPacketSize+1234)

	srv := NewServer(discardLogger(),
		func() ([]byte, sim.Tick) { return snapshot, snapshotTick },
		func(from, to sim.Tick) []MergedInputs {
			out := make([]MergedInputs, 0, to-from)
			for t := from; t < to; t++ {
				out = append(out, MergedInputs{Commands: []sim.Command{fakeCmd("replay")}})
			}
			return out
		},
		func() sim.Tick { return liveTick },
	)

	done := make(chan struct{})
	go func() {
		srv.handle(context.Background(), serverSide)
		close(done)
	}()

	client := &Client{
		log:      discardLogger(),
		conn:     clientSide,
		CatchUp:  make(chan MergedInputs, 4096),
		Ready:    make(chan ReadyToPlay, 1),
		Incoming: make(chan MergedFrame, 8),
	}
	if err := client.connect("tester"); err != nil {
		t.Fatalf("connect: %v", err)
	}
	if client.StartFrame != snapshotTick {
		t.Fatalf("expected StartFrame %d, got %d", snapshotTick, client.StartFrame)
	}

	if err := client.RunHandshake(); err != nil {
		t.Fatalf("handshake: %v", err)
	}
	if !bytes.Equal(client.Snapshot, snapshot) {
		t.Fatalf("expected reassembled snapshot of length %d, got %d", len(snapshot), len(client.Snapshot))
	}

	ready := <-client.Ready
	if ready.StartFrame != liveTick+1 {
		t.Fatalf("expected StartFrame %d, got %d", liveTick+1, ready.StartFrame)
	}

	var replayed int
	draining := true
	for draining {
		select {
		case <-client.CatchUp:
			replayed++
		default:
			draining = false
		}
	}
	// Mirror runCatchUp's own stopping condition: it leaves the client
	// within CatchUpTickThreshold ticks of live rather than replaying
	// every tick, since Playing picks up the remainder via MergedFrame.
	cursor := snapshotTick + 1
	for cursor <= liveTick && liveTick-cursor > CatchUpTickThreshold {
		end := cursor + MaxCatchUpPacketSize
		if liveTick+1 < end {
			end = liveTick + 1
		}
		cursor = end
	}
	if want := int(cursor - (snapshotTick + 1)); replayed != want {
		t.Fatalf("expected %d replayed ticks, got %d", want, replayed)
	}

	_ = client.Close()
	<-done
}
