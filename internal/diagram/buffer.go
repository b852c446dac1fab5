// Package diagram holds the text being generated for each sequence diagram:
// an append-only command buffer per diagram and the store that owns diagram
// lifecycle (begin, keep, discard).
package diagram

// Buffer is the ordered sequence of text lines for one diagram. Lines are
// only ever appended, except for the single-line retract primitive used to
// collapse empty control-flow groups.
type Buffer struct {
	lines []string
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append adds a line at the end.
func (b *Buffer) Append(line string) {
	b.lines = append(b.lines, line)
}

// Len returns the number of lines.
func (b *Buffer) Len() int {
	return len(b.lines)
}

// Last returns the most recently appended line.
func (b *Buffer) Last() (string, bool) {
	if len(b.lines) == 0 {
		return "", false
	}
	return b.lines[len(b.lines)-1], true
}

// RetractIfLast removes the most recent line iff it equals line, and reports
// whether it did. It compares only the single most recent line, never deeper:
// that is what makes nested empty groups collapse independently, innermost
// first, each undoing exactly its own opening line.
func (b *Buffer) RetractIfLast(line string) bool {
	if len(b.lines) == 0 || b.lines[len(b.lines)-1] != line {
		return false
	}
	b.lines = b.lines[:len(b.lines)-1]
	return true
}

// Lines returns a copy of the buffer contents.
func (b *Buffer) Lines() []string {
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
