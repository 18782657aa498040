package policy

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"
)

// State is a serializable snapshot of a bandit's per-arm statistics.
type State struct {
	Arms []Arm `msgpack:"arms"`
}

// Marshal encodes the state as msgpack.
func (s State) Marshal() ([]byte, error) {
	return msgpack.Marshal(s)
}

// Unmarshal decodes a msgpack-encoded state.
func Unmarshal(data []byte) (State, error) {
	var s State
	if err := msgpack.Unmarshal(data, &s); err != nil {
		return State{}, fmt.Errorf("policy: decode snapshot: %w", err)
	}
	return s, nil
}

// SaveFile writes the state to path, creating parent directories as
// needed. The write is not atomic; the snapshot is advisory state that a
// fresh run can live without.
func SaveFile(path string, s State) error {
	data, err := s.Marshal()
	if err != nil {
		return fmt.Errorf("policy: encode snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("policy: create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("policy: write snapshot: %w", err)
	}
	return nil
}

// LoadFile reads a state snapshot from path. A missing file is not an
// error: it returns an empty state and ok=false.
func LoadFile(path string) (State, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return State{}, false, nil
		}
		return State{}, false, fmt.Errorf("policy: read snapshot: %w", err)
	}
	s, err := Unmarshal(data)
	if err != nil {
		return State{}, false, err
	}
	return s, true, nil
}
