package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	snapshotsDir = "snapshots"
	objectsDir   = "objects"
	indexFile    = "index.json"
)

// Store provides content-addressable storage for diagram snapshots.
// Identical diagrams across snapshots share one object on disk.
type Store struct {
	mu      sync.RWMutex
	rootDir string
	index   *Index
}

// NewStore creates or opens a snapshot store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}

	dirs := []string{
		filepath.Join(rootDir, snapshotsDir),
		filepath.Join(rootDir, objectsDir),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store directory %s: %w", dir, err)
		}
	}

	if err := s.loadIndex(); err != nil {
		s.index = &Index{
			Snapshots: []Summary{},
			UpdatedAt: time.Now(),
		}
	}

	return s, nil
}

// Save persists a snapshot and its diagram contents.
func (s *Store) Save(snap *Snapshot, diagrams map[string][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for title, lines := range diagrams {
		content := []byte(diagramContent(lines))
		if err := s.writeObject(ContentHash(content), content); err != nil {
			return fmt.Errorf("store object %s: %w", title, err)
		}
	}

	snapDir := filepath.Join(s.rootDir, snapshotsDir, snap.ID)
	if err := os.MkdirAll(snapDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	snapData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(filepath.Join(snapDir, "snapshot.json"), snapData, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.index.Snapshots = append(s.index.Snapshots, snap.Summary())
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Load retrieves a snapshot by ID.
func (s *Store) Load(id string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(id)
}

func (s *Store) load(id string) (*Snapshot, error) {
	snapPath := filepath.Join(s.rootDir, snapshotsDir, id, "snapshot.json")
	data, err := os.ReadFile(snapPath)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}

	return &snap, nil
}

// LoadDiagrams retrieves a snapshot's diagram set from the object store.
func (s *Store) LoadDiagrams(snap *Snapshot) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagrams := make(map[string][]string, len(snap.Manifest))
	for _, entry := range snap.Manifest {
		content, err := s.readObject(entry.ContentHash)
		if err != nil {
			return nil, fmt.Errorf("read object for %s: %w", entry.Title, err)
		}
		diagrams[entry.Title] = strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	}

	return diagrams, nil
}

// List returns all snapshot summaries, newest first.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]Summary, len(s.index.Snapshots))
	copy(result, s.index.Snapshots)

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

// Resolve finds a snapshot by ID or tag.
func (s *Store) Resolve(ref string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, summary := range s.index.Snapshots {
		if summary.ID == ref || (summary.Tag != "" && summary.Tag == ref) {
			return s.load(summary.ID)
		}
	}
	return nil, fmt.Errorf("snapshot %q not found", ref)
}

// Tag assigns a tag to a snapshot.
func (s *Store) Tag(id, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(id)
	if err != nil {
		return err
	}

	snap.Tag = tag
	snapData, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	snapPath := filepath.Join(s.rootDir, snapshotsDir, id, "snapshot.json")
	if err := os.WriteFile(snapPath, snapData, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	for i, summary := range s.index.Snapshots {
		if summary.ID == id {
			s.index.Snapshots[i].Tag = tag
			break
		}
	}
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Delete removes a snapshot. Shared objects stay in place.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapDir := filepath.Join(s.rootDir, snapshotsDir, id)
	if err := os.RemoveAll(snapDir); err != nil {
		return fmt.Errorf("remove snapshot dir: %w", err)
	}

	filtered := s.index.Snapshots[:0]
	for _, summary := range s.index.Snapshots {
		if summary.ID != id {
			filtered = append(filtered, summary)
		}
	}
	s.index.Snapshots = filtered
	s.index.UpdatedAt = time.Now()

	return s.saveIndex()
}

// Restore writes a snapshot's diagrams back to the target directory as
// .puml files.
func (s *Store) Restore(snap *Snapshot, targetDir string) error {
	diagrams, err := s.LoadDiagrams(snap)
	if err != nil {
		return fmt.Errorf("load diagrams: %w", err)
	}

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("create target dir: %w", err)
	}
	for title, lines := range diagrams {
		outPath := filepath.Join(targetDir, title+".puml")
		if err := os.WriteFile(outPath, []byte(diagramContent(lines)), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", title, err)
		}
	}

	return nil
}

// writeObject stores content by its hash.
func (s *Store) writeObject(hash string, content []byte) error {
	prefix := hash[:2]
	dir := filepath.Join(s.rootDir, objectsDir, prefix)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	objPath := filepath.Join(dir, hash[2:])
	if _, err := os.Stat(objPath); err == nil {
		return nil // Already exists (content-addressable dedup)
	}

	return os.WriteFile(objPath, content, 0o644)
}

// readObject retrieves content by its hash.
func (s *Store) readObject(hash string) ([]byte, error) {
	prefix := hash[:2]
	objPath := filepath.Join(s.rootDir, objectsDir, prefix, hash[2:])
	return os.ReadFile(objPath)
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &Index{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}
