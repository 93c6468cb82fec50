package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// SnapshotFileName is the on-disk file name for a world snapshot in the
// given format (spec.md §6 Persistence layout: world.json | world.bc).
func SnapshotFileName(format Format) string {
	if format == FormatJSON {
		return "world.json"
	}
	return "world.bc"
}

// SaveToDisk atomically writes v (already encoded to bytes by the caller
// via EncodeSnapshotBytes) to <dir>/<SnapshotFileName(format)>, zstd
// compressing binary snapshots (JSON stays uncompressed so it remains
// directly readable for debugging). The write is atomic: it writes to a
// temp file in the same directory then renames over the destination,
// following the plugin manager's rename-into-place idiom so a crash mid
// write never corrupts the previous snapshot.
func SaveToDisk(dir string, format Format, encoded []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: ensure directory %s: %w", dir, err)
	}
	payload := encoded
	if format != FormatJSON {
		var err error
		payload, err = compress(encoded)
		if err != nil {
			return fmt.Errorf("persist: compress snapshot: %w", err)
		}
	}

	dest := filepath.Join(dir, SnapshotFileName(format))
	tmp, err := os.CreateTemp(dir, ".snapshot-*.tmp")
	if err != nil {
		return fmt.Errorf("persist: create temp snapshot file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("persist: write temp snapshot file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: close temp snapshot file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("persist: rename snapshot into place: %w", err)
	}
	return nil
}

// LoadFromDisk reads and, for binary snapshots, decompresses the snapshot
// bytes at <dir>/<SnapshotFileName(format)>.
func LoadFromDisk(dir string, format Format) ([]byte, error) {
	path := filepath.Join(dir, SnapshotFileName(format))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("persist: read snapshot %s: %w", path, err)
	}
	if format == FormatJSON {
		return raw, nil
	}
	return decompress(raw)
}

func compress(b []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(b, nil), nil
}

func decompress(b []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(b, nil)
}
