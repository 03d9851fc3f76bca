package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcher_Run(t *testing.T) {
	file := filepath.Join(t.TempDir(), "next.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o644))

	calls := make(chan struct{}, 10)
	w, err := NewWatcher(file, 20*time.Millisecond, func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitCall(t, calls)
	require.NoError(t, os.WriteFile(file, []byte(`{"tables":[]}`), 0o644))
	waitCall(t, calls)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_InitialCallbackFails(t *testing.T) {
	file := filepath.Join(t.TempDir(), "next.json")
	w, err := NewWatcher(file, 0, func(ctx context.Context) error {
		return errors.New("boom")
	})
	require.NoError(t, err)
	require.ErrorContains(t, w.Run(context.Background()), "boom")
}

func waitCall(t *testing.T, calls <-chan struct{}) {
	t.Helper()
	select {
	case <-calls:
	case <-time.After(5 * time.Second):
		t.Fatal("callback was not called")
	}
}
