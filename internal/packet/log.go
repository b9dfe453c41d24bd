// internal/packet/log.go
package packet

import "sync"

// DefaultLogSize is the default rolling history cap.
const DefaultLogSize = 256

// Log is a bounded in-memory history of exchanges.
// Once full, the oldest entry is overwritten.
type Log struct {
	mu    sync.Mutex
	buf   []Exchange
	next  int
	count int
	total uint64
}

// NewLog returns a Log holding at most size entries.
// size <= 0 selects DefaultLogSize.
func NewLog(size int) *Log {
	if size <= 0 {
		size = DefaultLogSize
	}
	return &Log{buf: make([]Exchange, size)}
}

// Add appends one exchange.
func (l *Log) Add(e Exchange) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.buf[l.next] = e
	l.next = (l.next + 1) % len(l.buf)
	if l.count < len(l.buf) {
		l.count++
	}
	l.total++
}

// Entries returns the retained exchanges, oldest first.
func (l *Log) Entries() []Exchange {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Exchange, 0, l.count)
	start := (l.next - l.count + len(l.buf)) % len(l.buf)
	for i := 0; i < l.count; i++ {
		out = append(out, l.buf[(start+i)%len(l.buf)])
	}
	return out
}

// Len is the number of retained entries.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.count
}

// Total is the number of exchanges ever added, including overwritten ones.
func (l *Log) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Cap is the configured history size.
func (l *Log) Cap() int { return len(l.buf) }

// Reset drops every retained entry.
func (l *Log) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.buf {
		l.buf[i] = Exchange{}
	}
	l.next, l.count = 0, 0
}
