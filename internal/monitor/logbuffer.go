package monitor

import "sync"

// defaultLogLines is the retained line count when none is configured.
const defaultLogLines = 256

// LogBuffer is an append-only bounded line sink. Once full, the oldest
// line is dropped for each new one.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type LogBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

// NewLogBuffer creates a buffer retaining at most max lines.
func NewLogBuffer(max int) *LogBuffer {
	if max <= 0 {
		max = defaultLogLines
	}
	return &LogBuffer{max: max}
}

// Append adds a line, evicting the oldest when the buffer is full.
func (b *LogBuffer) Append(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == b.max {
		copy(b.lines, b.lines[1:])
		b.lines = b.lines[:len(b.lines)-1]
	}
	b.lines = append(b.lines, line)
}

// Lines copies out the retained lines, oldest first.
func (b *LogBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Len returns the number of retained lines.
func (b *LogBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}
