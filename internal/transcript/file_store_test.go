package transcript

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/life-stream-dev/life-stream-go-chat-relay/internal/config"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func TestFileStoreAppendAndRelease(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 4, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	sink, err := store.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{"Room 1: alice has joined.", "alice: hello"} {
		if err := sink.Append(line); err != nil {
			t.Fatalf("append %q: %v", line, err)
		}
	}

	lines := readLines(t, store.Path(1))
	if len(lines) != 2 || lines[1] != "alice: hello" {
		t.Errorf("unexpected transcript %q", lines)
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(store.Path(1)); !os.IsNotExist(err) {
		t.Errorf("expected transcript file to be removed, stat err=%v", err)
	}
	if err := sink.Append("late"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after release, got %v", err)
	}
	if err := sink.Close(); err != nil {
		t.Errorf("second close should be a no-op, got %v", err)
	}
}

func TestFileStoreReopensEvictedHandles(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), 1, time.Minute)
	if err != nil {
		t.Fatal(err)
	}

	first, _ := store.Open(1)
	second, _ := store.Open(2)

	// with a single cached handle every alternate append reopens a file
	for i := 0; i < 3; i++ {
		if err := first.Append("one"); err != nil {
			t.Fatal(err)
		}
		if err := second.Append("two"); err != nil {
			t.Fatal(err)
		}
	}

	for roomID, want := range map[int]string{1: "one", 2: "two"} {
		lines := readLines(t, store.Path(roomID))
		if len(lines) != 3 {
			t.Errorf("room %d: expected 3 lines, got %q", roomID, lines)
		}
		for _, line := range lines {
			if line != want {
				t.Errorf("room %d: unexpected line %q", roomID, line)
			}
		}
	}
}

func TestFileStoreTruncatesStaleFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, 4, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(store.Path(7), []byte("previous run\n"), 0644); err != nil {
		t.Fatal(err)
	}

	sink, err := store.Open(7)
	if err != nil {
		t.Fatal(err)
	}
	_ = sink.Append("fresh")

	lines := readLines(t, store.Path(7))
	if len(lines) != 1 || lines[0] != "fresh" {
		t.Errorf("expected stale content to be truncated, got %q", lines)
	}
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	sink, _ := store.Open(3)
	_ = sink.Append("a")
	_ = sink.Append("b")

	lines, ok := store.Lines(3)
	if !ok || len(lines) != 2 || lines[0] != "a" || lines[1] != "b" {
		t.Errorf("unexpected lines %q (exists=%v)", lines, ok)
	}

	_ = sink.Close()
	if _, ok := store.Lines(3); ok {
		t.Error("expected transcript to be released")
	}
	if err := sink.Append("c"); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestFromConfigRejectsUnknownBackend(t *testing.T) {
	var cfg config.Config
	cfg.Transcript.Backend = "tape"
	if _, err := FromConfig(cfg); err == nil {
		t.Fatal("expected error for unknown backend")
	}

	cfg.Transcript.Backend = BackendMemory
	store, err := FromConfig(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*MemoryStore); !ok {
		t.Errorf("expected *MemoryStore, got %T", store)
	}
}
