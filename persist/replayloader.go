package persist

import "fmt"

// ReplaySpeed is a discrete playback multiplier for a SimulationReplayLoader
// (spec.md §4.L). Speed 0 means single-step: the caller advances explicitly
// one tick at a time regardless of wall-clock time.
type ReplaySpeed int

const (
	ReplaySpeedStep    ReplaySpeed = 0
	ReplaySpeedNormal  ReplaySpeed = 1
	ReplaySpeedFast    ReplaySpeed = 3
	ReplaySpeedFaster  ReplaySpeed = 100
	ReplaySpeedInstant ReplaySpeed = 10000
)

var validReplaySpeeds = map[ReplaySpeed]bool{
	ReplaySpeedStep:    true,
	ReplaySpeedNormal:  true,
	ReplaySpeedFast:    true,
	ReplaySpeedFaster:  true,
	ReplaySpeedInstant: true,
}

// SimulationReplayLoader walks a ReplayLog forward from a starting tick,
// handing each tick's recorded commands to an Applier. It tracks only
// position and speed; the caller decides how often to call Advance (e.g.
// once per render frame for live speeds, or in a tight loop for
// ReplaySpeedInstant).
type SimulationReplayLoader struct {
	log     *ReplayLog
	apply   Applier
	tick    uint64
	endTick uint64
	speed   ReplaySpeed
	paused  bool
}

// Applier receives the commands recorded for a tick and applies them to a
// world, returning an error if the world rejects one.
type Applier func(tick uint64, commands [][]byte) error

// NewSimulationReplayLoader constructs a loader positioned at startTick,
// replaying up to (but not including) endTick.
func NewSimulationReplayLoader(log *ReplayLog, apply Applier, startTick, endTick uint64) *SimulationReplayLoader {
	return &SimulationReplayLoader{log: log, apply: apply, tick: startTick, endTick: endTick, speed: ReplaySpeedNormal}
}

func (r *SimulationReplayLoader) SetSpeed(speed ReplaySpeed) error {
	if !validReplaySpeeds[speed] {
		return fmt.Errorf("persist: invalid replay speed %d", speed)
	}
	r.speed = speed
	return nil
}

func (r *SimulationReplayLoader) Speed() ReplaySpeed { return r.speed }
func (r *SimulationReplayLoader) Tick() uint64        { return r.tick }
func (r *SimulationReplayLoader) Done() bool          { return r.tick >= r.endTick }

func (r *SimulationReplayLoader) Pause()  { r.paused = true }
func (r *SimulationReplayLoader) Resume() { r.paused = false }

// AdvanceFrame steps the replay by the number of ticks implied by the
// current speed for one frame (speed 0 advances zero ticks; the caller
// must use AdvanceNTicks to single-step instead).
func (r *SimulationReplayLoader) AdvanceFrame() error {
	if r.paused || r.speed == ReplaySpeedStep {
		return nil
	}
	return r.AdvanceNTicks(uint64(r.speed))
}

// AdvanceNTicks applies up to n ticks starting at the loader's current
// position, stopping early at endTick. Ticks with no recorded entry (no
// commands were submitted that tick) are skipped without error.
func (r *SimulationReplayLoader) AdvanceNTicks(n uint64) error {
	for i := uint64(0); i < n && r.tick < r.endTick; i++ {
		commands, ok, err := r.log.At(r.tick)
		if err != nil {
			return err
		}
		if ok {
			if err := r.apply(r.tick, commands); err != nil {
				return fmt.Errorf("persist: apply replay tick %d: %w", r.tick, err)
			}
		}
		r.tick++
	}
	return nil
}

// SeekTo repositions the loader at tick without applying anything,
// used after loading a snapshot taken at that tick.
func (r *SimulationReplayLoader) SeekTo(tick uint64) {
	r.tick = tick
}
