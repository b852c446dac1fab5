package incremental

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/efebarandurmaz/blueprint/internal/plugins"
	"github.com/efebarandurmaz/blueprint/internal/walker"
)

// Config configures the incremental tracker.
type Config struct {
	StateDir string // Directory for the state file, usually the output dir
	Language string // e.g. "csharp"
	Force    bool   // Regenerate even when nothing changed
}

// Result captures the outcome of an incremental analysis.
type Result struct {
	TotalFiles     int           `json:"total_files"`
	ChangedFiles   []string      `json:"changed_files"`
	NewFiles       []string      `json:"new_files"`
	UnchangedFiles []string      `json:"unchanged_files"`
	DeletedFiles   []string      `json:"deleted_files"`
	UpToDate       bool          `json:"up_to_date"`
	IsFirstRun     bool          `json:"is_first_run"`
	ForcedFull     bool          `json:"forced_full"`
	Duration       time.Duration `json:"duration"`

	treeHash string
	prev     *RunState
}

// Tracker detects whether the source tree changed since the last run and
// holds the cached output for reuse when it did not.
type Tracker struct {
	config *Config
	logger *slog.Logger
}

// NewTracker creates a tracker for the given configuration.
func NewTracker(cfg *Config) *Tracker {
	return &Tracker{
		config: cfg,
		logger: slog.Default(),
	}
}

// Analyze compares the current source files against the previous run.
// Entry points depend on every caller in the program, so a single changed
// file invalidates the whole diagram set; the per-file breakdown exists
// for reporting, not partial regeneration.
func (t *Tracker) Analyze(files []plugins.SourceFile) (*Result, error) {
	start := time.Now()
	result := &Result{TotalFiles: len(files)}

	prev, err := LoadState(t.config.StateDir)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	result.prev = prev
	if prev == nil {
		result.IsFirstRun = true
	}

	currentFPs := ComputeFingerprints(files)
	result.treeHash = TreeHash(currentFPs)

	if t.config.Force {
		result.ForcedFull = true
		for _, f := range files {
			result.ChangedFiles = append(result.ChangedFiles, f.Path)
		}
		sort.Strings(result.ChangedFiles)
		result.Duration = time.Since(start)
		return result, nil
	}

	for _, f := range files {
		switch {
		case prev == nil:
			result.NewFiles = append(result.NewFiles, f.Path)
		case prev.Fingerprints[f.Path] == nil:
			result.NewFiles = append(result.NewFiles, f.Path)
		case prev.Fingerprints[f.Path].FileHash != currentFPs[f.Path].FileHash:
			result.ChangedFiles = append(result.ChangedFiles, f.Path)
		default:
			result.UnchangedFiles = append(result.UnchangedFiles, f.Path)
		}
	}

	if prev != nil {
		for path := range prev.Fingerprints {
			if currentFPs[path] == nil {
				result.DeletedFiles = append(result.DeletedFiles, path)
			}
		}
	}

	sort.Strings(result.ChangedFiles)
	sort.Strings(result.NewFiles)
	sort.Strings(result.UnchangedFiles)
	sort.Strings(result.DeletedFiles)

	result.UpToDate = prev != nil &&
		prev.Language == t.config.Language &&
		prev.TreeHash == result.treeHash

	result.Duration = time.Since(start)

	t.logger.Info("incremental analysis complete",
		"total", result.TotalFiles,
		"changed", len(result.ChangedFiles),
		"new", len(result.NewFiles),
		"unchanged", len(result.UnchangedFiles),
		"deleted", len(result.DeletedFiles),
		"up_to_date", result.UpToDate,
	)

	return result, nil
}

// Cached returns the previous run's output when the tree is up to date.
func (t *Tracker) Cached(result *Result) (map[string][]string, walker.Stats, []string, bool) {
	if !result.UpToDate || result.prev == nil {
		return nil, walker.Stats{}, nil, false
	}
	return result.prev.Diagrams, result.prev.Stats, result.prev.EntryPoints, true
}

// Commit persists fingerprints and output of a successful run as the new
// baseline.
func (t *Tracker) Commit(files []plugins.SourceFile, diagrams map[string][]string, stats walker.Stats, entryPoints []string) error {
	state := NewRunState(t.config.Language)
	state.Fingerprints = ComputeFingerprints(files)
	state.TreeHash = TreeHash(state.Fingerprints)
	state.Diagrams = diagrams
	state.Stats = stats
	state.EntryPoints = entryPoints
	return state.Save(t.config.StateDir)
}

// FormatReport returns a human-readable report of incremental analysis.
func FormatReport(result *Result) string {
	var s string
	s += "╔══════════════════════════════════════════╗\n"
	s += "║     Incremental Generation Report        ║\n"
	s += "╠══════════════════════════════════════════╣\n"

	switch {
	case result.IsFirstRun:
		s += "║ Mode: First Run (full generation)        \n"
	case result.ForcedFull:
		s += "║ Mode: Forced Full Regeneration           \n"
	case result.UpToDate:
		s += "║ Mode: Up To Date (cached output)         \n"
	default:
		s += "║ Mode: Regeneration (sources changed)     \n"
	}

	s += fmt.Sprintf("║ Total Files:     %d\n", result.TotalFiles)
	s += fmt.Sprintf("║ Changed Files:   %d\n", len(result.ChangedFiles))
	s += fmt.Sprintf("║ New Files:       %d\n", len(result.NewFiles))
	s += fmt.Sprintf("║ Unchanged:       %d\n", len(result.UnchangedFiles))
	s += fmt.Sprintf("║ Deleted:         %d\n", len(result.DeletedFiles))
	s += fmt.Sprintf("║ Analysis Time:   %s\n", result.Duration.Round(time.Millisecond))

	if len(result.ChangedFiles) > 0 {
		s += "╠══════════════════════════════════════════╣\n"
		s += "║ Changed Files:                           \n"
		for _, f := range result.ChangedFiles {
			s += fmt.Sprintf("║   ~ %s\n", f)
		}
	}

	if len(result.NewFiles) > 0 {
		s += "╠══════════════════════════════════════════╣\n"
		s += "║ New Files:                               \n"
		for _, f := range result.NewFiles {
			s += fmt.Sprintf("║   + %s\n", f)
		}
	}

	if len(result.DeletedFiles) > 0 {
		s += "╠══════════════════════════════════════════╣\n"
		s += "║ Deleted Files:                           \n"
		for _, f := range result.DeletedFiles {
			s += fmt.Sprintf("║   - %s\n", f)
		}
	}

	s += "╚══════════════════════════════════════════╝\n"
	return s
}
