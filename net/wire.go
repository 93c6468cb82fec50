// Package net implements lockstep replication over a reliable+unreliable
// transport (spec.md §4.K): a connecting client completes a
// Connect/Accept/WorldSend/CatchUp/ReadyToPlay handshake, then every
// participant (including the server's own local player) advances its World
// only by replaying the MergedInputs stream the server broadcasts each
// tick -- never by applying its own input directly.
package net

import (
	"bytes"
	"encoding/gob"

	"github.com/citysim/simcore/sim"
	"github.com/google/uuid"
)

// Kind tags every message shape that crosses the wire, mirroring the
// teacher's packet-dispatch-by-constant idiom (query_protocol.go's
// queryTypeHandshake/queryTypeInformation).
type Kind uint8

const (
	// Client -> Server, reliable (spec.md §6 ClientReliable).
	KindConnect Kind = iota
	KindWorldAck
	KindCatchUpAck
	KindDisconnect
	// Server -> Client, reliable (spec.md §6 ServerReliable).
	KindAccept
	KindReject
	KindWorldSend
	KindCatchUp
	KindReadyToPlay
	// Client -> Server, unreliable (spec.md §6 ClientUnreliable).
	KindInputFrame
	// Server -> Client, unreliable (spec.md §6 ServerUnreliable).
	KindMergedFrame
)

const (
	// ProtocolVersion is checked in Connect; a mismatch is rejected rather
	// than silently misinterpreted (spec.md §7 "Protocol violation").
	ProtocolVersion uint32 = 1

	// MaxWorldSendPacketSize bounds a single WorldSend fragment's payload
	// (spec.md §4.K/§6).
	MaxWorldSendPacketSize = 60_000

	// MaxCatchUpPacketSize bounds how many MergedInputs batches travel in
	// one CatchUp message (spec.md §4.K/§6).
	MaxCatchUpPacketSize = 256

	// InputResendWindow is how many of the client's most recent ticks
	// accompany every InputFrame for loss tolerance (spec.md §4.K "N≈10").
	InputResendWindow = 10

	// CatchUpTickThreshold is how close (in ticks) a catching-up client
	// must be to the server's live tick before promotion to Playing
	// (spec.md §4.K "within 30 ticks").
	CatchUpTickThreshold sim.Tick = 30
)

// PlayerInput is one client's submitted command batch for a single tick.
type PlayerInput struct {
	Commands []sim.Command
}

// MergedInputs is the server's deterministic merge of every connected
// client's PlayerInput for a single tick (spec.md §4.K); applying the same
// MergedInputs sequence in the same order is the Lockstep invariant
// (spec.md §8 property 6).
type MergedInputs struct {
	Commands []sim.Command
}

// TickInput pairs a Tick with the PlayerInput submitted for it, used in
// the client's resend window (InputFrame.LastN).
type TickInput struct {
	Tick  sim.Tick
	Input PlayerInput
}

// Connect is the first message a client sends after dialing.
type Connect struct {
	Name    string
	Version uint32
}

// WorldAck acknowledges one WorldSend fragment, so the server only ever
// sends the next after the previous was confirmed (spec.md §4.K
// "ack-after-each").
type WorldAck struct{}

// CatchUpAck acknowledges a CatchUp batch; UpToTick is the tick just after
// the batch's last one (FromTick plus the batch length).
type CatchUpAck struct {
	UpToTick sim.Tick
}

// Disconnect is a clean, voluntary disconnect notice.
type Disconnect struct{}

// Accept admits a connecting client, assigning it a UserID and the tick
// its world snapshot was taken at.
type Accept struct {
	UserID     uuid.UUID
	StartFrame sim.Tick
}

// Reject refuses a connecting client (version mismatch, server full, ...).
type Reject struct {
	Reason string
}

// WorldSend carries one fragment of the bincode-equivalent (gob) world
// snapshot; IsOver marks the final fragment (spec.md §4.K).
type WorldSend struct {
	IsOver bool
	Bytes  []byte
}

// CatchUp carries a contiguous batch of MergedInputs recorded since the
// snapshot tick, starting at FromTick, for the client to replay.
type CatchUp struct {
	FromTick sim.Tick
	Inputs   []MergedInputs
}

// ReadyToPlay promotes a caught-up client to Playing: the client applies
// FinalInputs and then resumes live lockstep at StartFrame.
type ReadyToPlay struct {
	StartFrame  sim.Tick
	FinalInputs MergedInputs
}

// InputFrame is a client's per-tick command submission, accompanied by the
// last InputResendWindow ticks' worth of inputs so one dropped datagram is
// recovered from the next instead of stalling the tick (spec.md §4.K).
type InputFrame struct {
	Frame sim.Tick
	LastN []TickInput
}

// MergedFrame broadcasts one tick's authoritative merge; Ack tells the
// receiving client the highest tick the server has itself seen from it, so
// the client can gauge its own lag (spec.md §4.K "acknowledgements of each
// client's lag").
type MergedFrame struct {
	Frame  sim.Tick
	Merged MergedInputs
	Ack    sim.Tick
}

func init() {
	gob.Register(Connect{})
	gob.Register(WorldAck{})
	gob.Register(CatchUpAck{})
	gob.Register(Disconnect{})
	gob.Register(Accept{})
	gob.Register(Reject{})
	gob.Register(WorldSend{})
	gob.Register(CatchUp{})
	gob.Register(ReadyToPlay{})
	gob.Register(InputFrame{})
	gob.Register(MergedFrame{})
}

// RegisterCommand makes a concrete sim.Command implementation gob-encodable
// inside a PlayerInput/MergedInputs' Commands slice. Every WorldCommand
// variant must call this once at init, mirroring gob's usual
// register-your-concrete-types-behind-an-interface requirement.
func RegisterCommand(c sim.Command) {
	gob.Register(c)
}

// Envelope is the tagged union written to the wire: Kind identifies which
// payload type Body gob-decodes into.
type Envelope struct {
	Kind Kind
	Body []byte
}

// EncodeEnvelope gob-encodes payload and wraps it with its Kind tag.
func EncodeEnvelope(kind Kind, payload any) (Envelope, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Body: buf.Bytes()}, nil
}

// Decode gob-decodes e.Body into a fresh value of the type matching e.Kind.
func (e Envelope) Decode() (any, error) {
	switch e.Kind {
	case KindConnect:
		var v Connect
		return v, gobDecode(e.Body, &v)
	case KindWorldAck:
		var v WorldAck
		return v, gobDecode(e.Body, &v)
	case KindCatchUpAck:
		var v CatchUpAck
		return v, gobDecode(e.Body, &v)
	case KindDisconnect:
		var v Disconnect
		return v, gobDecode(e.Body, &v)
	case KindAccept:
		var v Accept
		return v, gobDecode(e.Body, &v)
	case KindReject:
		var v Reject
		return v, gobDecode(e.Body, &v)
	case KindWorldSend:
		var v WorldSend
		return v, gobDecode(e.Body, &v)
	case KindCatchUp:
		var v CatchUp
		return v, gobDecode(e.Body, &v)
	case KindReadyToPlay:
		var v ReadyToPlay
		return v, gobDecode(e.Body, &v)
	case KindInputFrame:
		var v InputFrame
		return v, gobDecode(e.Body, &v)
	case KindMergedFrame:
		var v MergedFrame
		return v, gobDecode(e.Body, &v)
	default:
		return nil, nil
	}
}

func gobDecode(b []byte, v any) error {
	err := gob.NewDecoder(bytes.NewReader(b)).Decode(v)
	return err
}
