package runtime

import (
	"bytes"
	"sync"
)

// LogBuffer is an io.Writer that keeps the last lines written to it. The TUI
// installs it as the log output so log lines do not tear the screen.
type LogBuffer struct {
	mu      sync.RWMutex
	lines   []string
	start   int
	size    int
	partial bytes.Buffer
}

func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = 1
	}
	return &LogBuffer{lines: make([]string, capacity)}
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	n, _ := b.partial.Write(p)
	for {
		idx := bytes.IndexByte(b.partial.Bytes(), '\n')
		if idx < 0 {
			break
		}
		b.push(string(b.partial.Next(idx + 1)[:idx]))
	}
	return n, nil
}

func (b *LogBuffer) push(line string) {
	capacity := len(b.lines)
	if b.size < capacity {
		b.lines[(b.start+b.size)%capacity] = line
		b.size++
		return
	}
	b.lines[b.start] = line
	b.start = (b.start + 1) % capacity
}

// Last returns up to n of the most recent complete lines, oldest first.
func (b *LogBuffer) Last(n int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n > b.size {
		n = b.size
	}
	out := make([]string, 0, n)
	for i := b.size - n; i < b.size; i++ {
		out = append(out, b.lines[(b.start+i)%len(b.lines)])
	}
	return out
}
