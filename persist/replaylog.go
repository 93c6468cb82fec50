package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/df-mc/goleveldb/leveldb"
	"github.com/df-mc/goleveldb/leveldb/iterator"
	"github.com/df-mc/goleveldb/leveldb/opt"
	"github.com/df-mc/goleveldb/leveldb/util"
)

// TickCommands is one replay-log entry: the ordered, merged command batch
// that was applied at a single tick (mirrors the shape the lockstep input
// buffer hands to the world each step).
type TickCommands struct {
	Tick     uint64
	Commands [][]byte // each already gob-encoded via net.Envelope
}

// ReplayLog is an append-only, tick-keyed command log backed by LevelDB,
// used both to persist history for crash recovery and to drive the replay
// loader (spec.md §4.L). Keys are big-endian tick numbers so a range scan
// visits entries in tick order.
type ReplayLog struct {
	db *leveldb.DB
}

// OpenReplayLog opens (creating if absent) the replay log at dir.
func OpenReplayLog(dir string) (*ReplayLog, error) {
	db, err := leveldb.OpenFile(dir, &opt.Options{})
	if err != nil {
		return nil, fmt.Errorf("persist: open replay log at %s: %w", dir, err)
	}
	return &ReplayLog{db: db}, nil
}

func (l *ReplayLog) Close() error {
	return l.db.Close()
}

func tickKey(tick uint64) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], tick)
	return k[:]
}

// Append writes the commands applied at tick, overwriting any entry
// already present for that tick.
func (l *ReplayLog) Append(tick uint64, commands [][]byte) error {
	var buf bytes.Buffer
	if err := EncodeSnapshot(&buf, FormatBinary, TickCommands{Tick: tick, Commands: commands}); err != nil {
		return fmt.Errorf("persist: encode replay entry for tick %d: %w", tick, err)
	}
	if err := l.db.Put(tickKey(tick), buf.Bytes(), nil); err != nil {
		return fmt.Errorf("persist: write replay entry for tick %d: %w", tick, err)
	}
	return nil
}

// At returns the commands recorded for tick, or (nil, false) if none were
// recorded (a tick with no submitted commands is never written).
func (l *ReplayLog) At(tick uint64) ([][]byte, bool, error) {
	raw, err := l.db.Get(tickKey(tick), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("persist: read replay entry for tick %d: %w", tick, err)
	}
	entry, err := DecodeSnapshot[TickCommands](bytes.NewReader(raw), FormatBinary)
	if err != nil {
		return nil, false, err
	}
	return entry.Commands, true, nil
}

// Range iterates ticks in [from, to) in ascending order, calling fn with
// each recorded entry. Iteration stops early if fn returns an error.
func (l *ReplayLog) Range(from, to uint64, fn func(tick uint64, commands [][]byte) error) error {
	var it iterator.Iterator
	it = l.db.NewIterator(&util.Range{Start: tickKey(from), Limit: tickKey(to)}, nil)
	defer it.Release()

	for it.Next() {
		tick := binary.BigEndian.Uint64(it.Key())
		entry, err := DecodeSnapshot[TickCommands](bytes.NewReader(it.Value()), FormatBinary)
		if err != nil {
			return err
		}
		if err := fn(tick, entry.Commands); err != nil {
			return err
		}
	}
	return it.Error()
}

// Truncate drops every entry with tick < before, used after a snapshot is
// durably written so the log only needs to cover ticks since that point.
func (l *ReplayLog) Truncate(before uint64) error {
	batch := new(leveldb.Batch)
	it := l.db.NewIterator(&util.Range{Limit: tickKey(before)}, nil)
	defer it.Release()
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	if err := it.Error(); err != nil {
		return err
	}
	if batch.Len() == 0 {
		return nil
	}
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("persist: truncate replay log before tick %d: %w", before, err)
	}
	return nil
}
