package sim

import "testing"

type fakeCmd string

func (f fakeCmd) Tag() string { return string(f) }

func TestClockAdvancesMonotonically(t *testing.T) {
	var c Clock
	if c.GetTick() != 0 {
		t.Fatalf("expected initial tick 0, got %d", c.GetTick())
	}
	for i := Tick(1); i <= 5; i++ {
		if got := c.Tick(); got != i {
			t.Fatalf("tick %d: got %d", i, got)
		}
	}
}

func TestCommandLogOrdersByTick(t *testing.T) {
	log := NewCommandLog()
	log.Append(1, fakeCmd("a"), fakeCmd("b"))
	log.Append(2, fakeCmd("c"))

	all := log.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(all))
	}
	if all[0].Tick != 1 || len(all[0].Commands) != 2 {
		t.Fatalf("unexpected first entry: %+v", all[0])
	}
	if log.LastTick() != 2 {
		t.Fatalf("expected last tick 2, got %d", log.LastTick())
	}

	since := log.Since(2)
	if len(since) != 1 || since[0].Tick != 2 {
		t.Fatalf("Since(2) = %+v", since)
	}
}
