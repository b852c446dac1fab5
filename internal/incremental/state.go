package incremental

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/efebarandurmaz/blueprint/internal/walker"
)

// RunState stores the fingerprints and cached output of the last run.
type RunState struct {
	// Version for schema compatibility
	Version string `json:"version"`
	// Timestamp of last successful run
	LastRun time.Time `json:"last_run"`
	// Language used in the run
	Language string `json:"language"`
	// TreeHash of the whole source tree at last run
	TreeHash string `json:"tree_hash"`
	// Fingerprints maps file path to fingerprint from last run
	Fingerprints map[string]*Fingerprint `json:"fingerprints"`

	// Cached output, reused verbatim when the tree hash matches.
	Diagrams    map[string][]string `json:"diagrams,omitempty"`
	Stats       walker.Stats        `json:"stats"`
	EntryPoints []string            `json:"entry_points,omitempty"`
}

const stateVersion = "1.0.0"
const stateFileName = ".blueprint-state.json"

// NewRunState creates a new empty state.
func NewRunState(language string) *RunState {
	return &RunState{
		Version:      stateVersion,
		LastRun:      time.Now(),
		Language:     language,
		Fingerprints: make(map[string]*Fingerprint),
	}
}

// LoadState loads run state from the state directory. Returns nil without
// error when no state file exists (first run).
func LoadState(dir string) (*RunState, error) {
	path := filepath.Join(dir, stateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var state RunState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}

	return &state, nil
}

// Save persists the run state to the state directory.
func (s *RunState) Save(dir string) error {
	s.LastRun = time.Now()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(dir, stateFileName), data, 0o644)
}
