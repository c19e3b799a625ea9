package relayer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// loadCursors reads the persisted per-event-type cursor map, tolerating
// a missing file by returning an empty map — the relayer then starts
// each event type from the beginning of its stream.
func loadCursors(path string) (Cursors, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Cursors{}, nil
		}
		return nil, fmt.Errorf("read cursor file: %w", err)
	}
	c := Cursors{}
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("unmarshal cursor file: %w", err)
	}
	return c, nil
}

// saveCursors writes the full per-event-type cursor map atomically:
// write to a temp file in the same directory, then rename over the
// destination, so a crash mid-write never leaves a truncated cursor
// file on disk.
func saveCursors(path string, c Cursors) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cursor: %w", err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("ensure cursor dir: %w", err)
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("write cursor temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("rename cursor temp file: %w", err)
	}
	return nil
}
