// pkg/release/sentinel.go
//
// The pause sentinel: everything phases 5-7 need, written at the repository
// root when a release pauses before committing. Resume continues from the
// sentinel; abort just deletes it, without rolling back file edits.

package release

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/CodeMonkeyCybersecurity/versio/pkg/versio_err"
)

// SentinelName is the resume sentinel file at the repository root.
const SentinelName = ".versio-paused"

// Sentinel carries the staged state of a paused release.
type Sentinel struct {
	Digest   string            `json:"digest"`
	Files    []string          `json:"files"`
	Versions map[string]string `json:"versions"`
	Tags     []string          `json:"tags"`
}

// WriteSentinel persists the staged state.
func WriteSentinel(root string, s *Sentinel) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return versio_err.VCSError(err, "can't serialize the pause sentinel")
	}
	path := filepath.Join(root, SentinelName)
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return versio_err.VCSError(err, "can't write %s", SentinelName)
	}
	return nil
}

// ReadSentinel loads a paused release; nil when no release is paused.
func ReadSentinel(root string) (*Sentinel, error) {
	data, err := os.ReadFile(filepath.Join(root, SentinelName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, versio_err.VCSError(err, "can't read %s", SentinelName)
	}
	var s Sentinel
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, versio_err.VCSError(err, "%s is corrupt; --abort and release again", SentinelName)
	}
	return &s, nil
}

// RemoveSentinel deletes the sentinel, completing or aborting the pause.
func RemoveSentinel(root string) error {
	err := os.Remove(filepath.Join(root, SentinelName))
	if err != nil && !os.IsNotExist(err) {
		return versio_err.VCSError(err, "can't remove %s", SentinelName)
	}
	return nil
}
