package ui

import (
	"strings"
	"testing"
	"time"
)

func TestLogBufferEvictsOldest(t *testing.T) {
	buf := NewLogBuffer(2, 0, 0)
	buf.Append(LogLine{Timestamp: time.Unix(1, 0), Message: "a"})
	buf.Append(LogLine{Timestamp: time.Unix(2, 0), Message: "b"})
	buf.Append(LogLine{Timestamp: time.Unix(3, 0), Message: "c"})

	lines, seq := buf.Snapshot(nil)
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Message != "b" || lines[1].Message != "c" {
		t.Fatalf("unexpected order: %+v", lines)
	}
	if seq != 3 {
		t.Fatalf("expected seq 3, got %d", seq)
	}
	if buf.Drops().Evicted != 1 {
		t.Fatalf("expected one eviction, got %+v", buf.Drops())
	}
}

func TestLogBufferByteLimit(t *testing.T) {
	buf := NewLogBuffer(10, 6, 0)
	buf.Append(LogLine{Message: "abcd"})
	buf.Append(LogLine{Message: "ef"})
	buf.Append(LogLine{Message: "gh"})

	lines, _ := buf.Snapshot(nil)
	if len(lines) != 2 || lines[0].Message != "ef" || lines[1].Message != "gh" {
		t.Fatalf("expected byte limit to evict oldest, got %+v", lines)
	}
	if ok := buf.Append(LogLine{Message: "0123456789"}); ok {
		t.Fatalf("expected oversized line to be refused")
	}
	if buf.Drops().Oversized != 1 {
		t.Fatalf("expected oversized drop count 1, got %d", buf.Drops().Oversized)
	}
}

func TestLogBufferTruncatesLongLines(t *testing.T) {
	buf := NewLogBuffer(4, 0, 5)
	buf.Append(LogLine{Message: strings.Repeat("x", 20)})
	lines, _ := buf.Snapshot(nil)
	if lines[0].Message != "xxxxx…" {
		t.Fatalf("expected truncated line, got %q", lines[0].Message)
	}
}
