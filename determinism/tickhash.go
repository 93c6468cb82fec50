package determinism

import "github.com/citysim/simcore/sim"

// TickHash folds a tick's applied command batch into a single digest,
// used to compare a replica's command log against a recorded one cheaply
// (spec.md §8 property 6 "Lockstep": divergence must surface, not hide).
// It only hashes command tags, not full world state, so it is a necessary
// but not sufficient check — use World.StateHash (world package) alongside
// it for a stronger comparison when that's available.
func TickHash(entry sim.LogEntry) uint64 {
	h := New()
	h.Uint64(uint64(entry.Tick))
	for _, cmd := range entry.Commands {
		h.Bytes([]byte(cmd.Tag()))
	}
	return h.Sum()
}
