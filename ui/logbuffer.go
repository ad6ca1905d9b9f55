package ui

import (
	"sync"
	"sync/atomic"
	"time"
)

// LogLine is one line of the system log pane.
type LogLine struct {
	Timestamp time.Time
	Message   string
}

// LogDrops holds counters for lines the buffer refused or evicted.
type LogDrops struct {
	Oversized uint64
	Evicted   uint64
}

// LogBuffer keeps the most recent log lines in a ring bounded by line count
// and total bytes. Append may be called from any goroutine.
type LogBuffer struct {
	mu       sync.RWMutex
	lines    []LogLine
	head     int
	count    int
	maxBytes int
	curBytes int
	maxLine  int
	seq      atomic.Uint64

	dropOversized atomic.Uint64
	dropEvicted   atomic.Uint64
}

// NewLogBuffer creates a buffer holding at most maxLines lines and maxBytes
// bytes of text. Lines longer than maxLine bytes are truncated, not dropped;
// a zero limit disables that bound.
func NewLogBuffer(maxLines, maxBytes, maxLine int) *LogBuffer {
	if maxLines <= 0 {
		maxLines = 1
	}
	return &LogBuffer{
		lines:    make([]LogLine, maxLines),
		maxBytes: maxBytes,
		maxLine:  maxLine,
	}
}

// Append stores a line, evicting the oldest ones as needed. It returns false
// when the line cannot fit even in an empty buffer.
func (b *LogBuffer) Append(line LogLine) bool {
	if b == nil {
		return false
	}
	if b.maxLine > 0 && len(line.Message) > b.maxLine {
		line.Message = line.Message[:b.maxLine] + "…"
	}
	size := len(line.Message)
	if b.maxBytes > 0 && size > b.maxBytes {
		b.dropOversized.Add(1)
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for b.count >= len(b.lines) {
		b.evictOldestLocked()
	}
	for b.maxBytes > 0 && b.count > 0 && b.curBytes+size > b.maxBytes {
		b.evictOldestLocked()
	}
	pos := (b.head + b.count) % len(b.lines)
	b.lines[pos] = line
	b.curBytes += size
	b.count++
	b.seq.Add(1)
	return true
}

// Snapshot copies the buffered lines, oldest first, into dst.
func (b *LogBuffer) Snapshot(dst []LogLine) ([]LogLine, uint64) {
	if b == nil {
		return dst[:0], 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if cap(dst) < b.count {
		dst = make([]LogLine, b.count)
	} else {
		dst = dst[:b.count]
	}
	for i := 0; i < b.count; i++ {
		dst[i] = b.lines[(b.head+i)%len(b.lines)]
	}
	return dst, b.seq.Load()
}

// Drops returns the drop counters.
func (b *LogBuffer) Drops() LogDrops {
	if b == nil {
		return LogDrops{}
	}
	return LogDrops{Oversized: b.dropOversized.Load(), Evicted: b.dropEvicted.Load()}
}

func (b *LogBuffer) evictOldestLocked() {
	if b.count == 0 {
		return
	}
	b.curBytes -= len(b.lines[b.head].Message)
	b.lines[b.head] = LogLine{}
	b.head = (b.head + 1) % len(b.lines)
	b.count--
	b.dropEvicted.Add(1)
}
