package outbox

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/razeware/emitron/internal/adapter"
	"github.com/razeware/emitron/internal/domain"
	"github.com/razeware/emitron/internal/store"
)

type fakeTransmitter struct {
	sent    []domain.SyncRequest
	failFor map[int]error
}

func (f *fakeTransmitter) Transmit(_ context.Context, req domain.SyncRequest) error {
	if err, ok := f.failFor[req.ContentID]; ok {
		return err
	}
	f.sent = append(f.sent, req)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "emitron.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	e := NewEngine(st, adapter.NullLogger())
	clock := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return e, st
}

func TestBookmarkDeleteCollapsesCreate(t *testing.T) {
	e, st := newTestEngine(t)

	require.NoError(t, e.CreateBookmark(1))
	require.NoError(t, e.DeleteBookmark(1))

	pending, err := st.PendingSyncRequests(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, domain.SyncTypeDeleteBookmark, pending[0].Type)
}

func TestProgressUpdatesKeepLatest(t *testing.T) {
	e, st := newTestEngine(t)

	require.NoError(t, e.UpdateProgress(1, 10))
	require.NoError(t, e.UpdateProgress(1, 60))
	require.NoError(t, e.MarkComplete(1))

	pending, err := st.PendingSyncRequests(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, domain.SyncTypeMarkComplete, pending[0].Type)
}

func TestWatchTimeAccumulates(t *testing.T) {
	e, st := newTestEngine(t)

	require.NoError(t, e.RecordWatchTime(1, 30))
	require.NoError(t, e.RecordWatchTime(1, 15))

	req, err := st.SyncRequestFor(1, domain.SyncCategoryWatchStat)
	require.NoError(t, err)
	seconds, ok := req.Attribute(domain.SyncAttributeSeconds)
	require.True(t, ok)
	require.Equal(t, 45, seconds)
}

func TestFlushDrainsOldestFirst(t *testing.T) {
	e, _ := newTestEngine(t)
	tx := &fakeTransmitter{}

	require.NoError(t, e.UpdateProgress(1, 50))
	require.NoError(t, e.CreateBookmark(2))

	require.NoError(t, e.flushOnce(context.Background(), tx))
	require.Len(t, tx.sent, 2)
	require.Equal(t, 1, tx.sent[0].ContentID)
	require.Equal(t, 2, tx.sent[1].ContentID)

	// Nothing left to send on the next pass.
	require.NoError(t, e.flushOnce(context.Background(), tx))
	require.Len(t, tx.sent, 2)
}

func TestFlushStopsAtFirstFailure(t *testing.T) {
	e, st := newTestEngine(t)
	tx := &fakeTransmitter{failFor: map[int]error{1: errors.New("network down")}}

	require.NoError(t, e.UpdateProgress(1, 50))
	require.NoError(t, e.CreateBookmark(2))

	require.NoError(t, e.flushOnce(context.Background(), tx))
	require.Empty(t, tx.sent)

	// Both requests stay queued for the next tick.
	pending, err := st.PendingSyncRequests(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	// Once the network recovers, the same pass drains both in order.
	tx.failFor = nil
	require.NoError(t, e.flushOnce(context.Background(), tx))
	require.Len(t, tx.sent, 2)
	require.Equal(t, 1, tx.sent[0].ContentID)
}

func TestRunDrainsOnTick(t *testing.T) {
	e, st := newTestEngine(t)
	tx := &fakeTransmitter{}
	e.PollInterval = 10 * time.Millisecond

	require.NoError(t, e.UpdateProgress(1, 50))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx, tx) }()

	deadline := time.After(2 * time.Second)
	for {
		pending, err := st.PendingSyncRequests(10)
		require.NoError(t, err)
		if len(pending) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("outbox never drained")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	require.NoError(t, <-done)
}
