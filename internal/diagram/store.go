package diagram

import "sort"

// HeaderLen is the number of header lines written when a diagram starts
// (@startuml, title, autoactivate, hide footbox). A finalized buffer must
// have grown past the header to survive; revisit if the header changes.
const HeaderLen = 4

// Store maps diagram titles to their buffers for one generation run. A Store
// is owned by a single run and passed in explicitly; it is not safe for
// concurrent use — concurrent walks use one Store per worker and Merge.
type Store struct {
	buffers   map[string]*Buffer
	finalized map[string]bool
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		buffers:   make(map[string]*Buffer),
		finalized: make(map[string]bool),
	}
}

// BeginOrReuse returns the buffer for title, creating an empty one the first
// time the title is seen.
func (s *Store) BeginOrReuse(title string) *Buffer {
	if b, ok := s.buffers[title]; ok {
		return b
	}
	b := NewBuffer()
	s.buffers[title] = b
	return b
}

// Finalize closes the diagram for title: if the buffer grew past the header
// block the end marker is appended and the diagram kept, otherwise the entry
// is discarded entirely. Returns whether the diagram was kept. Finalizing an
// unknown title is a no-op; a title already finalized stays kept and gets no
// second end marker.
func (s *Store) Finalize(title string) bool {
	b, ok := s.buffers[title]
	if !ok {
		return false
	}
	if s.finalized[title] {
		return true
	}
	if b.Len() <= HeaderLen {
		delete(s.buffers, title)
		return false
	}
	b.Append("@enduml")
	s.finalized[title] = true
	return true
}

// Finalized reports whether the diagram for title has been kept and closed.
// A finalized buffer accepts no further lines.
func (s *Store) Finalized(title string) bool {
	return s.finalized[title]
}

// Len returns the number of diagrams currently held.
func (s *Store) Len() int {
	return len(s.buffers)
}

// Merge moves all diagrams from other into s. Titles are unique per
// (module, type, method) so collisions only occur if the same method was
// walked twice; the first finalized diagram wins.
func (s *Store) Merge(other *Store) {
	for title, b := range other.buffers {
		if _, ok := s.buffers[title]; !ok {
			s.buffers[title] = b
			if other.finalized[title] {
				s.finalized[title] = true
			}
		}
	}
}

// Diagrams returns the finished output: title to ordered lines.
func (s *Store) Diagrams() map[string][]string {
	out := make(map[string][]string, len(s.buffers))
	for title, b := range s.buffers {
		out[title] = b.Lines()
	}
	return out
}

// Titles returns all titles in sorted order for deterministic output.
func (s *Store) Titles() []string {
	titles := make([]string, 0, len(s.buffers))
	for t := range s.buffers {
		titles = append(titles, t)
	}
	sort.Strings(titles)
	return titles
}
