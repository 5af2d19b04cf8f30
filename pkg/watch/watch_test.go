package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func startWatcher(t *testing.T, root string, opts Options) *Watcher {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = 50 * time.Millisecond
	}
	w, err := New(root, opts)
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	t.Cleanup(func() {
		cancel()
		w.Close()
	})
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case ev, ok := <-w.Events():
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestWatcher_ReportsNewDirectory(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{})

	created := filepath.Join(root, "projects")
	if err := os.Mkdir(created, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	ev := waitEvent(t, w)
	found := false
	for _, p := range ev.Paths {
		if p == created {
			found = true
		}
	}
	if !found {
		t.Errorf("event paths %v missing %s", ev.Paths, created)
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{Debounce: 200 * time.Millisecond})

	for i := 0; i < 5; i++ {
		if err := os.Mkdir(filepath.Join(root, string(rune('a'+i))), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	ev := waitEvent(t, w)
	if len(ev.Paths) < 5 {
		t.Errorf("first batch has %d paths, want all 5", len(ev.Paths))
	}

	select {
	case extra := <-w.Events():
		t.Errorf("unexpected second batch: %v", extra.Paths)
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcher_SeesInsideNewDirectory(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, root, Options{})

	parent := filepath.Join(root, "parent")
	if err := os.Mkdir(parent, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	waitEvent(t, w)

	child := filepath.Join(parent, "child")
	if err := os.Mkdir(child, 0755); err != nil {
		t.Fatalf("mkdir child: %v", err)
	}

	ev := waitEvent(t, w)
	found := false
	for _, p := range ev.Paths {
		if p == child {
			found = true
		}
	}
	if !found {
		t.Errorf("event paths %v missing %s", ev.Paths, child)
	}
}

func TestWatcher_SkipsHiddenDirectories(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	w := startWatcher(t, root, Options{})

	if err := os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case ev := <-w.Events():
		t.Errorf("unexpected event for hidden directory: %v", ev.Paths)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcher_StopsOnContextCancel(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, Options{Debounce: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("New() = %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
