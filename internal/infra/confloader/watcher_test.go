package confloader

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "authtoken.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	var changes atomic.Int32
	w.OnChange(func(changed string) {
		if filepath.Base(changed) == "authtoken.yaml" {
			changes.Add(1)
		}
	})

	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(2 * time.Second)
	for changes.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("change callback not invoked within deadline")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestWatcher_Stop(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.Start()

	if err := w.Stop(); err != nil {
		t.Fatal(err)
	}
}
