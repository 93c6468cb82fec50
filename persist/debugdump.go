package persist

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml"
)

// DebugDump is a human-readable summary written alongside a snapshot for
// operators inspecting a save directory without decoding the snapshot
// itself; it deliberately carries only scalar/summary fields, not the full
// world state.
type DebugDump struct {
	Tick          uint64 `toml:"tick"`
	SoulCount     int    `toml:"soul_count"`
	BuildingCount int    `toml:"building_count"`
	Format        string `toml:"snapshot_format"`
}

const debugDumpFileName = "debug.toml"

// WriteDebugDump marshals d to TOML and writes it to dir/debug.toml.
func WriteDebugDump(dir string, d DebugDump) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: ensure directory %s: %w", dir, err)
	}
	encoded, err := toml.Marshal(d)
	if err != nil {
		return fmt.Errorf("persist: encode debug dump: %w", err)
	}
	path := filepath.Join(dir, debugDumpFileName)
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("persist: write debug dump to %s: %w", path, err)
	}
	return nil
}
