package persist

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// NetInfo is the small, always-JSON sidecar file describing how to reach a
// running server (spec.md §6): unlike the world snapshot, whose format
// follows the configured Format, this file is JSON regardless so external
// tooling (browsers, launchers) can read it without decoding gob.
type NetInfo struct {
	Addr        string `json:"addr"`
	ProtocolTag string `json:"protocol_tag"`
	MOTD        string `json:"motd,omitempty"`
}

const netInfoFileName = "netinfo.json"

// SaveNetInfo writes the netinfo sidecar, overwriting any existing one.
// It is small and rewritten often, so unlike SaveToDisk it is not staged
// through a temp file.
func SaveNetInfo(dir string, info NetInfo) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persist: ensure directory %s: %w", dir, err)
	}
	b, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("persist: marshal netinfo: %w", err)
	}
	path := filepath.Join(dir, netInfoFileName)
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("persist: write netinfo to %s: %w", path, err)
	}
	return nil
}

// LoadNetInfo reads the netinfo sidecar at dir.
func LoadNetInfo(dir string) (NetInfo, error) {
	var info NetInfo
	path := filepath.Join(dir, netInfoFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		return info, fmt.Errorf("persist: read netinfo from %s: %w", path, err)
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, fmt.Errorf("persist: unmarshal netinfo: %w", err)
	}
	return info, nil
}
