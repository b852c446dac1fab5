package snapshot

import (
	"fmt"
	"sort"
	"strings"
)

// DiffType indicates the kind of change.
type DiffType string

const (
	DiffAdded    DiffType = "added"
	DiffRemoved  DiffType = "removed"
	DiffModified DiffType = "modified"
)

// SnapshotDiff represents the complete diff between two snapshots.
type SnapshotDiff struct {
	OldID        string        `json:"old_id"`
	NewID        string        `json:"new_id"`
	OldTag       string        `json:"old_tag,omitempty"`
	NewTag       string        `json:"new_tag,omitempty"`
	DiagramDiffs []DiagramDiff `json:"diagram_diffs"`
	StatsDiff    StatsDiff     `json:"stats_diff"`
	Summary      DiffSummary   `json:"summary"`
}

// DiagramDiff represents a change to a single diagram.
type DiagramDiff struct {
	Title        string     `json:"title"`
	Type         DiffType   `json:"type"`
	OldHash      string     `json:"old_hash,omitempty"`
	NewHash      string     `json:"new_hash,omitempty"`
	OldLines     int        `json:"old_lines,omitempty"`
	NewLines     int        `json:"new_lines,omitempty"`
	HunkCount    int        `json:"hunk_count,omitempty"`
	LinesAdded   int        `json:"lines_added,omitempty"`
	LinesRemoved int        `json:"lines_removed,omitempty"`
	Hunks        []DiffHunk `json:"hunks,omitempty"`
}

// DiffHunk represents a contiguous block of changes in a diagram.
type DiffHunk struct {
	OldStart int        `json:"old_start"`
	OldCount int        `json:"old_count"`
	NewStart int        `json:"new_start"`
	NewCount int        `json:"new_count"`
	Lines    []DiffLine `json:"lines"`
}

// DiffLine is a single line in a diff hunk.
type DiffLine struct {
	Type    string `json:"type"` // "context", "add", "remove"
	Content string `json:"content"`
	OldNum  int    `json:"old_num,omitempty"`
	NewNum  int    `json:"new_num,omitempty"`
}

// StatsDiff captures walk statistic deltas between two snapshots.
type StatsDiff struct {
	EntryPointsDelta       int `json:"entry_points_delta"`
	DiagramsKeptDelta      int `json:"diagrams_kept_delta"`
	DiagramsDiscardedDelta int `json:"diagrams_discarded_delta"`
	GroupsCollapsedDelta   int `json:"groups_collapsed_delta"`
	EdgesEmittedDelta      int `json:"edges_emitted_delta"`
}

// DiffSummary provides aggregate stats about the diff.
type DiffSummary struct {
	DiagramsAdded    int `json:"diagrams_added"`
	DiagramsRemoved  int `json:"diagrams_removed"`
	DiagramsModified int `json:"diagrams_modified"`
	TotalAdded       int `json:"total_lines_added"`
	TotalRemoved     int `json:"total_lines_removed"`
}

// Diff computes the differences between two snapshots. If store is provided,
// line-level diffs are computed for modified diagrams.
func Diff(old, new *Snapshot, store *Store) (*SnapshotDiff, error) {
	d := &SnapshotDiff{
		OldID:  old.ID,
		NewID:  new.ID,
		OldTag: old.Tag,
		NewTag: new.Tag,
	}

	d.DiagramDiffs = diffManifests(old.Manifest, new.Manifest)

	if store != nil {
		// Non-fatal: manifest-level diffs still stand without hunks.
		_ = enrichWithLineDiffs(d, old, new, store)
	}

	d.StatsDiff = StatsDiff{
		EntryPointsDelta:       new.Stats.EntryPoints - old.Stats.EntryPoints,
		DiagramsKeptDelta:      new.Stats.DiagramsKept - old.Stats.DiagramsKept,
		DiagramsDiscardedDelta: new.Stats.DiagramsDiscarded - old.Stats.DiagramsDiscarded,
		GroupsCollapsedDelta:   new.Stats.GroupsCollapsed - old.Stats.GroupsCollapsed,
		EdgesEmittedDelta:      new.Stats.EdgesEmitted - old.Stats.EdgesEmitted,
	}

	d.Summary = computeSummary(d)
	return d, nil
}

func diffManifests(oldEntries, newEntries []DiagramEntry) []DiagramDiff {
	oldMap := make(map[string]DiagramEntry, len(oldEntries))
	for _, e := range oldEntries {
		oldMap[e.Title] = e
	}
	newMap := make(map[string]DiagramEntry, len(newEntries))
	for _, e := range newEntries {
		newMap[e.Title] = e
	}

	var diffs []DiagramDiff

	for title, oldEntry := range oldMap {
		if newEntry, ok := newMap[title]; ok {
			if oldEntry.ContentHash != newEntry.ContentHash {
				diffs = append(diffs, DiagramDiff{
					Title:    title,
					Type:     DiffModified,
					OldHash:  oldEntry.ContentHash,
					NewHash:  newEntry.ContentHash,
					OldLines: oldEntry.Lines,
					NewLines: newEntry.Lines,
				})
			}
		} else {
			diffs = append(diffs, DiagramDiff{
				Title:    title,
				Type:     DiffRemoved,
				OldHash:  oldEntry.ContentHash,
				OldLines: oldEntry.Lines,
			})
		}
	}

	for title, newEntry := range newMap {
		if _, ok := oldMap[title]; !ok {
			diffs = append(diffs, DiagramDiff{
				Title:    title,
				Type:     DiffAdded,
				NewHash:  newEntry.ContentHash,
				NewLines: newEntry.Lines,
			})
		}
	}

	sort.Slice(diffs, func(i, j int) bool {
		return diffs[i].Title < diffs[j].Title
	})

	return diffs
}

func enrichWithLineDiffs(d *SnapshotDiff, old, new *Snapshot, store *Store) error {
	oldDiagrams, err := store.LoadDiagrams(old)
	if err != nil {
		return fmt.Errorf("load old diagrams: %w", err)
	}
	newDiagrams, err := store.LoadDiagrams(new)
	if err != nil {
		return fmt.Errorf("load new diagrams: %w", err)
	}

	for i, dd := range d.DiagramDiffs {
		switch dd.Type {
		case DiffModified:
			hunks := computeHunks(oldDiagrams[dd.Title], newDiagrams[dd.Title])
			d.DiagramDiffs[i].Hunks = hunks
			d.DiagramDiffs[i].HunkCount = len(hunks)
			for _, h := range hunks {
				for _, l := range h.Lines {
					switch l.Type {
					case "add":
						d.DiagramDiffs[i].LinesAdded++
					case "remove":
						d.DiagramDiffs[i].LinesRemoved++
					}
				}
			}
		case DiffAdded:
			d.DiagramDiffs[i].LinesAdded = len(newDiagrams[dd.Title])
		case DiffRemoved:
			d.DiagramDiffs[i].LinesRemoved = len(oldDiagrams[dd.Title])
		}
	}

	return nil
}

// computeHunks produces LCS-based hunks with three lines of context.
func computeHunks(oldLines, newLines []string) []DiffHunk {
	lcs := longestCommonSubsequence(oldLines, newLines)
	rawDiff := buildRawDiff(oldLines, newLines, lcs)
	return groupIntoHunks(rawDiff, 3)
}

type rawDiffLine struct {
	typ     string // "context", "add", "remove"
	content string
	oldNum  int
	newNum  int
}

func longestCommonSubsequence(a, b []string) [][]int {
	m, n := len(a), len(b)
	dp := make([][]int, m+1)
	for i := range dp {
		dp[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for j := 1; j <= n; j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else if dp[i-1][j] > dp[i][j-1] {
				dp[i][j] = dp[i-1][j]
			} else {
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp
}

func buildRawDiff(oldLines, newLines []string, dp [][]int) []rawDiffLine {
	var result []rawDiffLine
	i, j := len(oldLines), len(newLines)

	for i > 0 || j > 0 {
		if i > 0 && j > 0 && oldLines[i-1] == newLines[j-1] {
			result = append(result, rawDiffLine{
				typ: "context", content: oldLines[i-1],
				oldNum: i, newNum: j,
			})
			i--
			j--
		} else if j > 0 && (i == 0 || dp[i][j-1] >= dp[i-1][j]) {
			result = append(result, rawDiffLine{
				typ: "add", content: newLines[j-1],
				newNum: j,
			})
			j--
		} else {
			result = append(result, rawDiffLine{
				typ: "remove", content: oldLines[i-1],
				oldNum: i,
			})
			i--
		}
	}

	// Reverse (we built it backwards)
	for left, right := 0, len(result)-1; left < right; left, right = left+1, right-1 {
		result[left], result[right] = result[right], result[left]
	}

	return result
}

func groupIntoHunks(rawDiff []rawDiffLine, contextLines int) []DiffHunk {
	if len(rawDiff) == 0 {
		return nil
	}

	type region struct{ start, end int }
	var regions []region

	for i, line := range rawDiff {
		if line.typ != "context" {
			if len(regions) == 0 || i > regions[len(regions)-1].end+contextLines*2 {
				regions = append(regions, region{start: i, end: i})
			} else {
				regions[len(regions)-1].end = i
			}
		}
	}

	var hunks []DiffHunk
	for _, r := range regions {
		start := r.start - contextLines
		if start < 0 {
			start = 0
		}
		end := r.end + contextLines + 1
		if end > len(rawDiff) {
			end = len(rawDiff)
		}

		hunk := DiffHunk{}
		for k := start; k < end; k++ {
			line := rawDiff[k]
			hunk.Lines = append(hunk.Lines, DiffLine{
				Type:    line.typ,
				Content: line.content,
				OldNum:  line.oldNum,
				NewNum:  line.newNum,
			})
		}

		if len(hunk.Lines) > 0 {
			for _, l := range hunk.Lines {
				if l.OldNum > 0 {
					if hunk.OldStart == 0 || l.OldNum < hunk.OldStart {
						hunk.OldStart = l.OldNum
					}
					hunk.OldCount++
				}
				if l.NewNum > 0 {
					if hunk.NewStart == 0 || l.NewNum < hunk.NewStart {
						hunk.NewStart = l.NewNum
					}
					hunk.NewCount++
				}
			}
			hunks = append(hunks, hunk)
		}
	}

	return hunks
}

func computeSummary(d *SnapshotDiff) DiffSummary {
	var s DiffSummary
	for _, dd := range d.DiagramDiffs {
		switch dd.Type {
		case DiffAdded:
			s.DiagramsAdded++
		case DiffRemoved:
			s.DiagramsRemoved++
		case DiffModified:
			s.DiagramsModified++
		}
		s.TotalAdded += dd.LinesAdded
		s.TotalRemoved += dd.LinesRemoved
	}
	return s
}

// FormatDiff returns a human-readable string representation of the diff.
func FormatDiff(d *SnapshotDiff) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Diff: %s -> %s\n", d.OldID, d.NewID))
	if d.OldTag != "" || d.NewTag != "" {
		sb.WriteString(fmt.Sprintf("Tags: %s -> %s\n", d.OldTag, d.NewTag))
	}

	sb.WriteString(fmt.Sprintf("Diagrams: +%d -%d ~%d\n",
		d.Summary.DiagramsAdded, d.Summary.DiagramsRemoved, d.Summary.DiagramsModified))
	sb.WriteString(fmt.Sprintf("Lines: +%d -%d\n\n",
		d.Summary.TotalAdded, d.Summary.TotalRemoved))

	for _, dd := range d.DiagramDiffs {
		icon := "~"
		switch dd.Type {
		case DiffAdded:
			icon = "+"
		case DiffRemoved:
			icon = "-"
		}
		sb.WriteString(fmt.Sprintf("  %s %s", icon, dd.Title))
		if dd.Type == DiffModified && dd.HunkCount > 0 {
			sb.WriteString(fmt.Sprintf(" (+%d/-%d in %d hunks)", dd.LinesAdded, dd.LinesRemoved, dd.HunkCount))
		}
		sb.WriteString("\n")
	}

	sd := d.StatsDiff
	if sd != (StatsDiff{}) {
		sb.WriteString("\nWalk Stats:\n")
		sb.WriteString(fmt.Sprintf("  entry points %+d, kept %+d, discarded %+d, collapsed %+d, edges %+d\n",
			sd.EntryPointsDelta, sd.DiagramsKeptDelta, sd.DiagramsDiscardedDelta,
			sd.GroupsCollapsedDelta, sd.EdgesEmittedDelta))
	}

	return sb.String()
}
