package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherCoalescesWriteBursts(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:    []string{dir},
		Debounce: 50 * time.Millisecond,
	}, nil)
	require.NoError(t, err)

	path := filepath.Join(dir, "inv.pdf")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case got := <-events:
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event within deadline")
	}

	// The whole burst lands inside one debounce window.
	select {
	case got := <-events:
		t.Fatalf("unexpected second event for %s", got)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherInitialScanEmitsExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.pdf")
	require.NoError(t, os.WriteFile(path, []byte("pdf"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
	}, nil)
	require.NoError(t, err)

	select {
	case got := <-events:
		assert.Equal(t, path, got)
	case <-time.After(2 * time.Second):
		t.Fatal("no event within deadline")
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
