// Package snapshot captures point-in-time diagram sets so runs can be
// compared, tagged and restored.
package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/efebarandurmaz/blueprint/internal/walker"
)

// Snapshot represents a point-in-time capture of one generation run.
type Snapshot struct {
	ID          string            `json:"id"`
	ParentID    string            `json:"parent_id,omitempty"`
	Tag         string            `json:"tag,omitempty"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
	Language    string            `json:"language"`
	InputPath   string            `json:"input_path"`
	ContentHash string            `json:"content_hash"`
	Stats       walker.Stats      `json:"stats"`
	EntryPoints []string          `json:"entry_points,omitempty"`
	Manifest    []DiagramEntry    `json:"manifest"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// DiagramEntry records one rendered diagram with its content hash.
type DiagramEntry struct {
	Title       string `json:"title"`
	ContentHash string `json:"content_hash"`
	Lines       int    `json:"lines"`
}

// Index is a lightweight listing of all snapshots for fast lookup.
type Index struct {
	Snapshots []Summary `json:"snapshots"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary is the minimal info for listing snapshots.
type Summary struct {
	ID           string    `json:"id"`
	ParentID     string    `json:"parent_id,omitempty"`
	Tag          string    `json:"tag,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	Language     string    `json:"language"`
	DiagramCount int       `json:"diagram_count"`
}

// New builds a snapshot from a rendered diagram set.
func New(language, inputPath string, diagrams map[string][]string, stats walker.Stats, entryPoints []string) *Snapshot {
	snap := &Snapshot{
		CreatedAt:   time.Now(),
		Language:    language,
		InputPath:   inputPath,
		Stats:       stats,
		EntryPoints: entryPoints,
		Metadata:    make(map[string]string),
	}

	titles := make([]string, 0, len(diagrams))
	for t := range diagrams {
		titles = append(titles, t)
	}
	sort.Strings(titles)

	for _, title := range titles {
		content := diagramContent(diagrams[title])
		snap.Manifest = append(snap.Manifest, DiagramEntry{
			Title:       title,
			ContentHash: ContentHash([]byte(content)),
			Lines:       len(diagrams[title]),
		})
	}

	snap.ContentHash = manifestHash(snap.Manifest)
	snap.ID = snapshotID(snap)
	return snap
}

// ContentHash computes SHA-256 of content.
func ContentHash(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}

func diagramContent(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

func manifestHash(entries []DiagramEntry) string {
	h := sha256.New()
	for _, e := range entries {
		h.Write([]byte(e.Title))
		h.Write([]byte(e.ContentHash))
	}
	return hex.EncodeToString(h.Sum(nil))
}

func snapshotID(snap *Snapshot) string {
	data, _ := json.Marshal(struct {
		Time    int64  `json:"t"`
		Content string `json:"c"`
	}{
		Time:    snap.CreatedAt.UnixNano(),
		Content: snap.ContentHash,
	})
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:8])
}

// Summary returns a lightweight summary of this snapshot.
func (s *Snapshot) Summary() Summary {
	return Summary{
		ID:           s.ID,
		ParentID:     s.ParentID,
		Tag:          s.Tag,
		CreatedAt:    s.CreatedAt,
		Language:     s.Language,
		DiagramCount: len(s.Manifest),
	}
}
