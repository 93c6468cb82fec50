package persist

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type sampleSnapshot struct {
	Tick  uint64
	Money int64
	Name  string
}

func TestEncodeDecodeSnapshotBinaryRoundTrips(t *testing.T) {
	in := sampleSnapshot{Tick: 42, Money: 1234, Name: "citysim"}
	encoded, err := EncodeSnapshotBytes(FormatBinary, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSnapshot[sampleSnapshot](bytes.NewReader(encoded), FormatBinary)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestEncodeDecodeSnapshotJSONRoundTrips(t *testing.T) {
	in := sampleSnapshot{Tick: 7, Money: -5, Name: "debug"}
	encoded, err := EncodeSnapshotBytes(FormatJSON, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSnapshot[sampleSnapshot](bytes.NewReader(encoded), FormatJSON)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestSaveLoadFromDiskRoundTripsBinaryCompressed(t *testing.T) {
	dir := t.TempDir()
	in := sampleSnapshot{Tick: 100, Money: 999, Name: "saved"}
	encoded, err := EncodeSnapshotBytes(FormatBinary, in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := SaveToDisk(dir, FormatBinary, encoded); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "world.bc")); err != nil {
		t.Fatalf("expected world.bc to exist: %v", err)
	}
	loaded, err := LoadFromDisk(dir, FormatBinary)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	out, err := DecodeSnapshot[sampleSnapshot](bytes.NewReader(loaded), FormatBinary)
	if err != nil {
		t.Fatalf("decode loaded: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestSaveToDiskLeavesNoTempFilesBehind(t *testing.T) {
	dir := t.TempDir()
	encoded, _ := EncodeSnapshotBytes(FormatJSON, sampleSnapshot{Tick: 1})
	if err := SaveToDisk(dir, FormatJSON, encoded); err != nil {
		t.Fatalf("save: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Fatalf("leftover temp file: %s", e.Name())
		}
	}
}

func TestReplayLogAppendAndRangeReturnsInTickOrder(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenReplayLog(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	if err := log.Append(5, [][]byte{[]byte("a")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(2, [][]byte{[]byte("b")}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := log.Append(9, [][]byte{[]byte("c")}); err != nil {
		t.Fatalf("append: %v", err)
	}

	var seen []uint64
	err = log.Range(0, 100, func(tick uint64, commands [][]byte) error {
		seen = append(seen, tick)
		return nil
	})
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	want := []uint64{2, 5, 9}
	if len(seen) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(seen))
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("expected ascending tick order %v, got %v", want, seen)
		}
	}
}

func TestReplayLogAtReturnsFalseForMissingTick(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenReplayLog(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	_, ok, err := log.At(123)
	if err != nil {
		t.Fatalf("at: %v", err)
	}
	if ok {
		t.Fatalf("expected no entry for unwritten tick")
	}
}

func TestReplayLogTruncateDropsOlderTicks(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenReplayLog(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	for _, tick := range []uint64{1, 2, 3, 10} {
		if err := log.Append(tick, [][]byte{[]byte("x")}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	if err := log.Truncate(5); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, ok, _ := log.At(3); ok {
		t.Fatalf("expected tick 3 to be truncated")
	}
	if _, ok, _ := log.At(10); !ok {
		t.Fatalf("expected tick 10 to survive truncation")
	}
}

func TestSimulationReplayLoaderAdvanceNTicksAppliesInOrder(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenReplayLog(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	log.Append(0, [][]byte{[]byte("c0")})
	log.Append(2, [][]byte{[]byte("c2")})

	var applied []uint64
	loader := NewSimulationReplayLoader(log, func(tick uint64, commands [][]byte) error {
		applied = append(applied, tick)
		return nil
	}, 0, 5)

	if err := loader.AdvanceNTicks(3); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(applied) != 2 || applied[0] != 0 || applied[1] != 2 {
		t.Fatalf("expected ticks [0 2] applied, got %v", applied)
	}
	if loader.Tick() != 3 {
		t.Fatalf("expected loader at tick 3, got %d", loader.Tick())
	}
}

func TestSimulationReplayLoaderSetSpeedRejectsInvalid(t *testing.T) {
	loader := &SimulationReplayLoader{}
	if err := loader.SetSpeed(ReplaySpeed(7)); err == nil {
		t.Fatalf("expected error for invalid speed")
	}
	if err := loader.SetSpeed(ReplaySpeedFast); err != nil {
		t.Fatalf("expected valid speed to be accepted: %v", err)
	}
}

func TestSimulationReplayLoaderDonePastEndTick(t *testing.T) {
	dir := t.TempDir()
	log, err := OpenReplayLog(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer log.Close()

	loader := NewSimulationReplayLoader(log, func(uint64, [][]byte) error { return nil }, 0, 2)
	if loader.Done() {
		t.Fatalf("expected not done at start")
	}
	if err := loader.AdvanceNTicks(10); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if !loader.Done() {
		t.Fatalf("expected done after advancing past endTick")
	}
}

func TestNetInfoSaveLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	in := NetInfo{Addr: "127.0.0.1:19132", ProtocolTag: "citysim-1", MOTD: "hello"}
	if err := SaveNetInfo(dir, in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := LoadNetInfo(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v, want %+v", out, in)
	}
}

func TestWriteDebugDumpProducesReadableTOML(t *testing.T) {
	dir := t.TempDir()
	err := WriteDebugDump(dir, DebugDump{Tick: 50, SoulCount: 3, BuildingCount: 1, Format: "binary"})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "debug.toml"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(b) == 0 {
		t.Fatalf("expected non-empty debug dump")
	}
}
