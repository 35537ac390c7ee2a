package storage

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_ExternalChanges(t *testing.T) {
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatal(err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	has := func(want string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			for _, e := range events {
				if e == want {
					return true
				}
			}
			return false
		}
	}

	go fs.Watch(ctx, logger, func(kind, key string) {
		mu.Lock()
		events = append(events, kind+":"+key)
		mu.Unlock()
	})
	time.Sleep(100 * time.Millisecond)

	const key = "cardgrid:annotation:https://example.com"
	if err := fs.Set(key, []byte(`{"rating":1}`)); err != nil {
		t.Fatal(err)
	}
	time.Sleep(300 * time.Millisecond)
	mu.Lock()
	if len(events) != 0 {
		t.Errorf("own write reported: %v", events)
	}
	mu.Unlock()

	path := filepath.Join(dir, fileName(key))
	_ = os.WriteFile(path, []byte(`{"rating":4}`), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, has("updated:"+key), "external update not reported")

	_ = os.Remove(path)
	eventually(t, 5*time.Second, 50*time.Millisecond, has("deleted:"+key), "external delete not reported")
}
