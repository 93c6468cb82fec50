package net

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/citysim/simcore/sim"
	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/sandertv/go-raknet"
)

// SnapshotFunc returns the current world snapshot encoded to bytes and the
// tick it was taken at, used to seed a newly joined client (spec.md §4.K
// WorldSend). The World package supplies this via its persist codec so
// package net never imports World directly.
type SnapshotFunc func() (data []byte, tick sim.Tick)

// ReplayFunc returns the recorded MergedInputs batches for every tick in
// [from, to), used to drive a catching-up client forward (spec.md §4.K
// CatchUp).
type ReplayFunc func(from, to sim.Tick) []MergedInputs

// LiveTickFunc returns the server's current authoritative tick.
type LiveTickFunc func() sim.Tick

// Server accepts RakNet connections from clients and drives the
// join/catch-up/playing state machine, merging per-tick submissions via an
// InputRingBuffer and broadcasting the result as MergedFrame (spec.md
// §4.K), following the teacher's registerQueryServer/atomic-handle idiom
// for exposing server-wide state to connection handlers.
type Server struct {
	log *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*clientConn

	input    *InputRingBuffer
	snapshot SnapshotFunc
	replay   ReplayFunc
	live     LiveTickFunc
}

type clientConn struct {
	session *Session
	conn    net.Conn
}

// NewServer returns a Server ready to Listen. snapshot, replay and live
// supply the world state the join handshake needs without package net
// importing World.
func NewServer(log *slog.Logger, snapshot SnapshotFunc, replay ReplayFunc, live LiveTickFunc) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		log:      log,
		sessions: make(map[uuid.UUID]*clientConn),
		input:    NewInputRingBuffer(),
		snapshot: snapshot,
		replay:   replay,
		live:     live,
	}
}

// Listen accepts connections on addr until ctx is cancelled, handing each
// accepted connection to handle in its own goroutine.
func (s *Server) Listen(ctx context.Context, addr string) error {
	listener, err := raknet.Listen(addr)
	if err != nil {
		return fmt.Errorf("net: listen %s: %w", addr, err)
	}
	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn("accept failed", "error", err)
			continue
		}
		go s.handle(ctx, conn)
	}
}

// handle drives one client's entire lifetime: Connect/Accept, the
// WorldSend snapshot transfer, the CatchUp replay, ReadyToPlay promotion,
// and finally the live InputFrame/Disconnect loop (spec.md §4.K/§6).
func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	id, sess, err := s.greet(conn)
	if err != nil {
		s.log.Warn("handshake rejected", "error", err)
		return
	}

	s.mu.Lock()
	s.sessions[id] = &clientConn{session: sess, conn: conn}
	s.mu.Unlock()
	s.input.AddUser(id)
	s.log.Info("client connected", "client", id)

	defer func() {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		s.input.RemoveUser(id)
		s.log.Info("client disconnected", "client", id)
	}()

	if err := s.joinHandshake(conn, sess); err != nil {
		s.log.Warn("join handshake failed", "client", id, "error", err)
		return
	}

	for {
		env, err := readEnvelope(conn)
		if err != nil {
			if err != io.EOF {
				s.log.Warn("read failed", "client", id, "error", err)
			}
			return
		}
		payload, err := env.Decode()
		if err != nil {
			s.log.Warn("decode failed", "client", id, "error", err)
			continue
		}
		switch v := payload.(type) {
		case InputFrame:
			s.submitInputFrame(id, v)
			sess.Ack(v.Frame)
		case Disconnect:
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

// greet reads the client's Connect and replies Accept or Reject, returning
// the newly assigned session on success.
func (s *Server) greet(conn net.Conn) (uuid.UUID, *Session, error) {
	env, err := readEnvelope(conn)
	if err != nil {
		return uuid.UUID{}, nil, err
	}
	payload, err := env.Decode()
	if err != nil {
		return uuid.UUID{}, nil, err
	}
	connectMsg, ok := payload.(Connect)
	if !ok {
		s.reject(conn, "expected Connect")
		return uuid.UUID{}, nil, fmt.Errorf("net: protocol violation: expected Connect, got %T", payload)
	}
	if connectMsg.Version != ProtocolVersion {
		s.reject(conn, fmt.Sprintf("protocol version mismatch: server=%d client=%d", ProtocolVersion, connectMsg.Version))
		return uuid.UUID{}, nil, fmt.Errorf("net: version mismatch for %q", connectMsg.Name)
	}

	id := uuid.New()
	_, tick := s.snapshot()
	env, err = EncodeEnvelope(KindAccept, Accept{UserID: id, StartFrame: tick})
	if err != nil {
		return uuid.UUID{}, nil, err
	}
	if err := writeEnvelope(conn, env); err != nil {
		return uuid.UUID{}, nil, err
	}
	return id, NewSession(id), nil
}

func (s *Server) reject(conn net.Conn, reason string) {
	env, err := EncodeEnvelope(KindReject, Reject{Reason: reason})
	if err != nil {
		return
	}
	_ = writeEnvelope(conn, env)
}

// joinHandshake runs the WorldSend/CatchUp/ReadyToPlay sequence against an
// already-Accepted connection.
func (s *Server) joinHandshake(conn net.Conn, sess *Session) error {
	data, snapshotTick := s.snapshot()
	if err := s.sendWorldSnapshot(conn, data); err != nil {
		return fmt.Errorf("world send: %w", err)
	}
	sess.BeginCatchUp(snapshotTick)

	if err := s.runCatchUp(conn, sess); err != nil {
		return fmt.Errorf("catch up: %w", err)
	}
	sess.FinishCatchUp()

	live := s.live()
	final := s.input.Drain(live)
	env, err := EncodeEnvelope(KindReadyToPlay, ReadyToPlay{StartFrame: live + 1, FinalInputs: final})
	if err != nil {
		return err
	}
	return writeEnvelope(conn, env)
}

// sendWorldSnapshot fragments data into chunks of at most
// MaxWorldSendPacketSize bytes, sending the next only after the previous
// is acked (spec.md §4.K "ack-after-each").
func (s *Server) sendWorldSnapshot(conn net.Conn, data []byte) error {
	if len(data) == 0 {
		env, err := EncodeEnvelope(KindWorldSend, WorldSend{IsOver: true})
		if err != nil {
			return err
		}
		if err := writeEnvelope(conn, env); err != nil {
			return err
		}
		return s.expectAck(conn, KindWorldAck)
	}
	for i := 0; i < len(data); i += MaxWorldSendPacketSize {
		end := i + MaxWorldSendPacketSize
		if end > len(data) {
			end = len(data)
		}
		env, err := EncodeEnvelope(KindWorldSend, WorldSend{IsOver: end >= len(data), Bytes: data[i:end]})
		if err != nil {
			return err
		}
		if err := writeEnvelope(conn, env); err != nil {
			return err
		}
		if err := s.expectAck(conn, KindWorldAck); err != nil {
			return err
		}
	}
	return nil
}

// runCatchUp streams recorded MergedInputs in batches of at most
// MaxCatchUpPacketSize until the client is within CatchUpTickThreshold
// ticks of live (spec.md §4.K).
func (s *Server) runCatchUp(conn net.Conn, sess *Session) error {
	cursor := sess.SnapshotTick + 1
	for {
		live := s.live()
		if cursor > live || live-cursor <= CatchUpTickThreshold {
			return nil
		}
		end := cursor + MaxCatchUpPacketSize
		if live+1 < end {
			end = live + 1
		}
		batch := s.replay(cursor, end)
		env, err := EncodeEnvelope(KindCatchUp, CatchUp{FromTick: cursor, Inputs: batch})
		if err != nil {
			return err
		}
		if err := writeEnvelope(conn, env); err != nil {
			return err
		}
		if err := s.expectAck(conn, KindCatchUpAck); err != nil {
			return err
		}
		cursor = end
	}
}

func (s *Server) expectAck(conn net.Conn, want Kind) error {
	env, err := readEnvelope(conn)
	if err != nil {
		return err
	}
	if env.Kind != want {
		return fmt.Errorf("net: protocol violation: expected ack kind %d, got %d", want, env.Kind)
	}
	_, err = env.Decode()
	return err
}

// submitInputFrame records frame's current tick plus every tick in its
// resend window (spec.md §4.K "last_n"); Submit is idempotent so replays
// of already-recorded ticks are harmless.
func (s *Server) submitInputFrame(client uuid.UUID, frame InputFrame) {
	for _, ti := range frame.LastN {
		s.input.Submit(client, ti.Tick, ti.Input.Commands)
	}
}

// Step merges tick's input (if ready or force-consumable) and broadcasts
// it to every Playing session, returning the merged batch for the server's
// own World to apply -- the server advances its authoritative World the
// same way every client does, by replaying MergedInputs, never by applying
// local input directly.
func (s *Server) Step(tick sim.Tick) (MergedInputs, bool) {
	if !s.input.Ready(tick) {
		return MergedInputs{}, false
	}
	merged := s.input.Drain(tick)
	s.broadcastMerged(tick, merged)
	return merged, true
}

func (s *Server) broadcastMerged(tick sim.Tick, merged MergedInputs) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, cc := range s.sessions {
		if cc.session.State() != StatePlaying {
			continue
		}
		env, err := EncodeEnvelope(KindMergedFrame, MergedFrame{Frame: tick, Merged: merged, Ack: cc.session.Acked})
		if err != nil {
			s.log.Error("encode merged frame failed", "error", err)
			continue
		}
		if err := writeEnvelope(cc.conn, env); err != nil {
			s.log.Warn("broadcast write failed", "client", id, "error", err)
		}
	}
}

func writeEnvelope(w io.Writer, e Envelope) error {
	compressed := snappy.Encode(nil, e.Body)
	var header bytes.Buffer
	header.WriteByte(byte(e.Kind))
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(compressed)))
	header.Write(lenBuf[:])
	if _, err := w.Write(header.Bytes()); err != nil {
		return err
	}
	_, err := w.Write(compressed)
	return err
}

func readEnvelope(r io.Reader) (Envelope, error) {
	var head [5]byte
	if _, err := io.ReadFull(r, head[:]); err != nil {
		return Envelope{}, err
	}
	kind := Kind(head[0])
	n := binary.BigEndian.Uint32(head[1:])
	compressed := make([]byte, n)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return Envelope{}, err
	}
	body, err := snappy.Decode(nil, compressed)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Kind: kind, Body: body}, nil
}
