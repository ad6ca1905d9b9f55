package main

import (
	"bytes"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"statusdash/config"
)

func TestLogFileNameForDate(t *testing.T) {
	when := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	if got := logFileNameForDate(when); got != "22-Jan-2026.log" {
		t.Fatalf("expected log filename to be 22-Jan-2026.log, got %q", got)
	}
}

func TestParseLogFileDate(t *testing.T) {
	parsed, ok := parseLogFileDate("22-Jan-2026.log")
	if !ok {
		t.Fatalf("expected parse to succeed")
	}
	if parsed.Year() != 2026 || parsed.Month() != time.January || parsed.Day() != 22 {
		t.Fatalf("unexpected parsed date: %s", parsed.Format(time.RFC3339))
	}
	if _, ok := parseLogFileDate("notes.txt"); ok {
		t.Fatalf("expected non-log file to be rejected")
	}
}

func TestCleanupOldLogs(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		"20-Jan-2026.log",
		"21-Jan-2026.log",
		"22-Jan-2026.log",
		"notes.txt",
	}
	for _, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("x"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	now := time.Date(2026, time.January, 22, 12, 0, 0, 0, time.UTC)
	if err := cleanupOldLogs(dir, now, 2); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}
	expectMissing := []string{"20-Jan-2026.log"}
	for _, name := range expectMissing {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			t.Fatalf("expected %s to be removed", name)
		} else if !os.IsNotExist(err) {
			t.Fatalf("stat %s: %v", name, err)
		}
	}
	expectPresent := []string{"21-Jan-2026.log", "22-Jan-2026.log", "notes.txt"}
	for _, name := range expectPresent {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to remain: %v", name, err)
		}
	}
}

func TestDailyFileSinkRotatesOnDayChange(t *testing.T) {
	dir := t.TempDir()
	sink, err := newDailyFileSink(dir, 7)
	if err != nil {
		t.Fatalf("newDailyFileSink: %v", err)
	}
	defer sink.Close()

	day1 := time.Date(2026, time.January, 22, 23, 59, 0, 0, time.UTC)
	day2 := day1.Add(2 * time.Minute)
	sink.WriteLine("first", day1)
	firstPath := sink.CurrentPath()
	sink.WriteLine("second", day2)
	secondPath := sink.CurrentPath()

	if firstPath == secondPath {
		t.Fatalf("expected a new file after the day changed, still %s", firstPath)
	}
	if filepath.Base(secondPath) != "23-Jan-2026.log" {
		t.Fatalf("unexpected rotated path %s", secondPath)
	}
	data, err := os.ReadFile(firstPath)
	if err != nil {
		t.Fatalf("read %s: %v", firstPath, err)
	}
	if !strings.Contains(string(data), "2026/01/22 23:59:00 first") {
		t.Fatalf("first file missing line: %q", data)
	}
	data, err = os.ReadFile(secondPath)
	if err != nil {
		t.Fatalf("read %s: %v", secondPath, err)
	}
	if strings.Contains(string(data), "first") || !strings.Contains(string(data), "second") {
		t.Fatalf("second file has wrong content: %q", data)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	lines  []string
	closed bool
}

func (r *recordingSink) WriteLine(line string, _ time.Time) {
	r.mu.Lock()
	r.lines = append(r.lines, line)
	r.mu.Unlock()
}

func (r *recordingSink) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *recordingSink) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

func TestLogFanoutSplitsLinesAcrossSinks(t *testing.T) {
	console := &recordingSink{}
	file := &recordingSink{}
	fanout := newLogFanout(console, file)

	if _, err := fanout.Write([]byte("fetch ok\r\nfetch ")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := fanout.Write([]byte("failed\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	fanout.WriteFileOnlyLine("detail only", time.Now())

	want := []string{"fetch ok", "fetch failed"}
	if got := console.snapshot(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("console lines = %q, want %q", got, want)
	}
	want = append(want, "detail only")
	if got := file.snapshot(); strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("file lines = %q, want %q", got, want)
	}
	if err := fanout.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !console.closed || !file.closed {
		t.Fatalf("expected both sinks closed")
	}
}

func TestSetupLoggingQuietWritesFileOnly(t *testing.T) {
	dir := t.TempDir()
	fanout, err := setupLogging(config.LoggingConfig{Enabled: true, Dir: dir, RetentionDays: 3}, nil)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	if _, err := fanout.Write([]byte("quiet line\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fanout.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one log file, got %d", len(entries))
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "quiet line") {
		t.Fatalf("log file missing line: %q", data)
	}
}

func TestSetupLoggingDisabledUsesConsole(t *testing.T) {
	var buf bytes.Buffer
	fanout, err := setupLogging(config.LoggingConfig{Enabled: false}, &buf)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	fanout.WriteFileOnlyLine("not shown", time.Now())
	if _, err := fanout.Write([]byte("shown\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "not shown") || !strings.HasSuffix(out, " shown\n") {
		t.Fatalf("unexpected console output %q", out)
	}
}

func TestDebugfHonorsVerbose(t *testing.T) {
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		verboseLogging.Store(false)
	})

	debugf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("expected no output without verbose, got %q", buf.String())
	}
	verboseLogging.Store(true)
	debugf("shown %d", 2)
	if got := buf.String(); got != "debug: shown 2\n" {
		t.Fatalf("unexpected debug output %q", got)
	}
}

func TestSetupLoggingReportsFilePath(t *testing.T) {
	dir := t.TempDir()
	fanout, err := setupLogging(config.LoggingConfig{Enabled: true, Dir: dir, RetentionDays: 3}, nil)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	defer fanout.Close()

	path := fanout.FilePath()
	if filepath.Dir(path) != dir || filepath.Ext(path) != ".log" {
		t.Fatalf("unexpected log path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(data), "Logging: session started") {
		t.Fatalf("missing session line: %q", data)
	}

	disabled, err := setupLogging(config.LoggingConfig{Enabled: false}, nil)
	if err != nil {
		t.Fatalf("setupLogging: %v", err)
	}
	if got := disabled.FilePath(); got != "" {
		t.Fatalf("expected no path without file logging, got %q", got)
	}
}
