package server

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/edaloom/internal/dataset"
	"github.com/KaramelBytes/edaloom/internal/eda"
)

func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.Load(dataset.Sample{})
	require.NoError(t, err)
	return tbl
}

func TestExpireDropsIdleSessions(t *testing.T) {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	store := NewSessionStore()
	store.now = func() time.Time { return clock }
	tbl := sampleTable(t)

	store.Load("old", tbl)
	store.Load("busy", tbl)
	clock = clock.Add(50 * time.Minute)
	_, ok := store.AddCleaning("busy", eda.DropMissing)
	require.True(t, ok)
	store.Load("new", tbl)

	clock = clock.Add(20 * time.Minute)
	assert.Equal(t, 1, store.Expire(time.Hour))
	_, ok = store.Snapshot("old")
	assert.False(t, ok)
	st, ok := store.Snapshot("busy")
	require.True(t, ok)
	assert.Equal(t, []eda.CleaningAction{eda.DropMissing}, st.Cleaning)
	assert.Equal(t, clock, st.LastUsed)

	clock = clock.Add(2 * time.Hour)
	assert.Equal(t, 2, store.Expire(time.Hour))
	assert.Equal(t, 0, store.Len())
}

func TestSweepSessionsRunsUntilCancelled(t *testing.T) {
	srv := New(Config{SessionSecret: "s", SessionIdle: 20 * time.Millisecond, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	srv.store.Load("a", sampleTable(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.sweepSessions(ctx)
		close(done)
	}()
	assert.Eventually(t, func() bool { return srv.store.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
