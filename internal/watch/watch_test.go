package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func newTestWatcher(t *testing.T, fired chan struct{}) (*Watcher, string) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "migrations"), 0o755); err != nil {
		t.Fatal(err)
	}
	w, err := New(root, filepath.Join(root, "migrations"), 10*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return w, root
}

func TestRelevantFiltersEvents(t *testing.T) {
	w, root := newTestWatcher(t, make(chan struct{}, 1))
	defer w.fswatcher.Close()

	tests := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{filepath.Join(root, "models.go"), fsnotify.Write, true},
		{filepath.Join(root, "models.go"), fsnotify.Chmod, false},
		{filepath.Join(root, "models_test.go"), fsnotify.Write, false},
		{filepath.Join(root, "notes.txt"), fsnotify.Write, false},
		{filepath.Join(root, ".models.go.swp"), fsnotify.Write, false},
		{filepath.Join(root, "migrations", "m_0001_initial.go"), fsnotify.Write, false},
	}
	for _, tt := range tests {
		if got := w.relevant(fsnotify.Event{Name: tt.name, Op: tt.op}); got != tt.want {
			t.Errorf("relevant(%s, %v) = %v, want %v", tt.name, tt.op, got, tt.want)
		}
	}
}

func TestWatcherFiresOnSourceChange(t *testing.T) {
	fired := make(chan struct{}, 1)
	w, root := newTestWatcher(t, fired)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	if err := os.WriteFile(filepath.Join(root, "models.go"), []byte("package main\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Error("watcher did not fire within 5s")
	}
	cancel()
	<-done
}
