package determinism

import (
	"testing"

	"github.com/citysim/simcore/sim"
)

type fakeCmd string

func (f fakeCmd) Tag() string { return string(f) }

func TestTickHashMatchesForIdenticalEntries(t *testing.T) {
	a := sim.LogEntry{Tick: 10, Commands: []sim.Command{fakeCmd("connect"), fakeCmd("say")}}
	b := sim.LogEntry{Tick: 10, Commands: []sim.Command{fakeCmd("connect"), fakeCmd("say")}}
	if TickHash(a) != TickHash(b) {
		t.Fatalf("expected identical entries to hash the same")
	}
}

func TestTickHashDiffersForDifferentCommandOrder(t *testing.T) {
	a := sim.LogEntry{Tick: 10, Commands: []sim.Command{fakeCmd("connect"), fakeCmd("say")}}
	b := sim.LogEntry{Tick: 10, Commands: []sim.Command{fakeCmd("say"), fakeCmd("connect")}}
	if TickHash(a) == TickHash(b) {
		t.Fatalf("expected different command order to change the hash")
	}
}
