package net

import (
	"context"
	"fmt"
	"log/slog"
	"net"

	"github.com/citysim/simcore/sim"
	"github.com/google/uuid"
	"github.com/sandertv/go-raknet"
)

// Client is the connecting side of the lockstep link (spec.md §4.K/§6): it
// dials, completes the Connect/Accept/WorldSend/CatchUp/ReadyToPlay
// handshake via RunHandshake, then submits its own PlayerInput every tick
// and receives the server's MergedFrame to replay -- never applying its
// own input directly.
type Client struct {
	log  *slog.Logger
	conn net.Conn

	// UserID and StartFrame are filled in once Dial's Accept arrives.
	UserID     uuid.UUID
	StartFrame sim.Tick

	// Snapshot holds the reassembled world snapshot bytes once
	// RunHandshake's WorldSend phase completes.
	Snapshot []byte
	// CatchUp delivers every MergedInputs batch recorded during the
	// CatchUp phase, in tick order, for the caller to replay before
	// Ready fires.
	CatchUp chan MergedInputs
	// Ready delivers the single ReadyToPlay message once caught up.
	Ready chan ReadyToPlay
	// Incoming delivers every live MergedFrame in arrival order.
	Incoming chan MergedFrame

	recent []TickInput
}

// Dial connects to addr and completes Connect/Accept, returning an error
// if the server rejects the connection. Call RunHandshake next to drive
// the WorldSend/CatchUp/ReadyToPlay sequence.
func Dial(ctx context.Context, addr, name string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, err := raknet.Dialer{}.DialContext(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("net: dial %s: %w", addr, err)
	}
	c := &Client{
		log:      log,
		conn:     conn,
		CatchUp:  make(chan MergedInputs, 256),
		Ready:    make(chan ReadyToPlay, 1),
		Incoming: make(chan MergedFrame, 64),
	}
	if err := c.connect(name); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) connect(name string) error {
	env, err := EncodeEnvelope(KindConnect, Connect{Name: name, Version: ProtocolVersion})
	if err != nil {
		return err
	}
	if err := writeEnvelope(c.conn, env); err != nil {
		return err
	}

	env, err = readEnvelope(c.conn)
	if err != nil {
		return err
	}
	payload, err := env.Decode()
	if err != nil {
		return err
	}
	switch v := payload.(type) {
	case Accept:
		c.UserID, c.StartFrame = v.UserID, v.StartFrame
		return nil
	case Reject:
		return fmt.Errorf("net: connection rejected: %s", v.Reason)
	default:
		return fmt.Errorf("net: protocol violation: expected Accept/Reject, got %T", payload)
	}
}

// RunHandshake blocks through the WorldSend fragments (acking each) and
// the CatchUp batches (acking each) until ReadyToPlay arrives, then starts
// the live read loop. Call it once after Dial succeeds, before Submit.
func (c *Client) RunHandshake() error {
	if err := c.receiveWorldSend(); err != nil {
		return fmt.Errorf("world send: %w", err)
	}
	if err := c.receiveCatchUp(); err != nil {
		return fmt.Errorf("catch up: %w", err)
	}
	go c.readLoop()
	return nil
}

func (c *Client) receiveWorldSend() error {
	var buf []byte
	for {
		env, err := readEnvelope(c.conn)
		if err != nil {
			return err
		}
		payload, err := env.Decode()
		if err != nil {
			return err
		}
		frag, ok := payload.(WorldSend)
		if !ok {
			return fmt.Errorf("net: protocol violation: expected WorldSend, got %T", payload)
		}
		buf = append(buf, frag.Bytes...)
		ackEnv, err := EncodeEnvelope(KindWorldAck, WorldAck{})
		if err != nil {
			return err
		}
		if err := writeEnvelope(c.conn, ackEnv); err != nil {
			return err
		}
		if frag.IsOver {
			c.Snapshot = buf
			return nil
		}
	}
}

func (c *Client) receiveCatchUp() error {
	for {
		env, err := readEnvelope(c.conn)
		if err != nil {
			return err
		}
		payload, err := env.Decode()
		if err != nil {
			return err
		}
		switch v := payload.(type) {
		case CatchUp:
			for _, mi := range v.Inputs {
				c.CatchUp <- mi
			}
			ackEnv, err := EncodeEnvelope(KindCatchUpAck, CatchUpAck{UpToTick: v.FromTick + sim.Tick(len(v.Inputs))})
			if err != nil {
				return err
			}
			if err := writeEnvelope(c.conn, ackEnv); err != nil {
				return err
			}
		case ReadyToPlay:
			c.Ready <- v
			return nil
		default:
			return fmt.Errorf("net: protocol violation: expected CatchUp/ReadyToPlay, got %T", payload)
		}
	}
}

func (c *Client) readLoop() {
	defer close(c.Incoming)
	for {
		env, err := readEnvelope(c.conn)
		if err != nil {
			c.log.Info("connection closed", "error", err)
			return
		}
		payload, err := env.Decode()
		if err != nil {
			c.log.Warn("decode failed", "error", err)
			continue
		}
		if mf, ok := payload.(MergedFrame); ok {
			c.Incoming <- mf
		}
	}
}

// Submit sends this tick's locally-issued command batch, accompanied by
// the last InputResendWindow ticks' worth of input so one dropped
// datagram is recovered from the next instead of stalling the tick
// (spec.md §4.K).
func (c *Client) Submit(tick sim.Tick, cmds []sim.Command) error {
	c.recent = append(c.recent, TickInput{Tick: tick, Input: PlayerInput{Commands: cmds}})
	if len(c.recent) > InputResendWindow {
		c.recent = c.recent[len(c.recent)-InputResendWindow:]
	}
	lastN := make([]TickInput, len(c.recent))
	copy(lastN, c.recent)
	env, err := EncodeEnvelope(KindInputFrame, InputFrame{Frame: tick, LastN: lastN})
	if err != nil {
		return err
	}
	return writeEnvelope(c.conn, env)
}

// Disconnect sends a clean, voluntary disconnect notice.
func (c *Client) Disconnect() error {
	env, err := EncodeEnvelope(KindDisconnect, Disconnect{})
	if err != nil {
		return err
	}
	return writeEnvelope(c.conn, env)
}

// Close closes the underlying connection without sending Disconnect.
func (c *Client) Close() error {
	return c.conn.Close()
}
