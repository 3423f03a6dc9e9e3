// Package persistence holds the file-based read/write helpers for the
// core's canonical artifacts: wallet manifests, the identity journal, and
// timestamped job reports.
package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// WriteJSON serializes v to path with stable 2-space indentation, creating
// parent directories as needed. Used for wallets.json, identities.json, and
// timestamped reports.
func WriteJSON(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJSON deserializes path into v.
func ReadJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Exists reports whether path is present on disk.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
