package history_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saitan/internal/archive"
	"saitan/internal/history"
	"saitan/internal/services"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(context.Background(), filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRun(id string, started time.Time) *archive.Run {
	return &archive.Run{
		ID:       id,
		URL:      "https://example.com/page",
		Started:  started,
		Finished: started.Add(3 * time.Second),
		Results: archive.Results{
			archive.ActionChecksum: {
				Action: archive.ActionChecksum,
				Status: archive.StatusOK,
				Value:  "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
			},
			archive.ActionSnapshot: {
				Action:   archive.ActionSnapshot,
				Status:   archive.StatusFailed,
				Kind:     services.KindNetwork,
				Err:      errors.New("http status 502"),
				Duration: 1500 * time.Millisecond,
			},
			archive.ActionLocalCapture: {
				Action: archive.ActionLocalCapture,
				Status: archive.StatusOK,
				Value:  "/tmp/example_com_page.warc.gz",
			},
		},
	}
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, sampleRun("run-1", started)))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "run-1", entry.ID)
	assert.Equal(t, "https://example.com/page", entry.URL)
	assert.True(t, entry.Started.Equal(started))
	assert.True(t, entry.Finished.Equal(started.Add(3*time.Second)))

	require.Len(t, entry.Outcomes, 3)
	assert.Equal(t, "snapshot", entry.Outcomes[0].Action)
	assert.Equal(t, "local-capture", entry.Outcomes[1].Action)
	assert.Equal(t, "checksum", entry.Outcomes[2].Action)

	failed := entry.Outcomes[0]
	assert.Equal(t, "failed", failed.Status)
	assert.Equal(t, string(services.KindNetwork), failed.Kind)
	assert.Equal(t, "http status 502", failed.Error)
	assert.Equal(t, 1500*time.Millisecond, failed.Duration)
}

func TestListNewestFirstWithLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "middle", "new"} {
		require.NoError(t, store.Record(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	entries, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "new", entries[0].ID)
	assert.Equal(t, "middle", entries[1].ID)
}

func TestRecordRejectsDuplicateRunID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	run := sampleRun("dup", time.Now())

	require.NoError(t, store.Record(ctx, run))
	require.Error(t, store.Record(ctx, run))

	entries, err := store.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRecordNilRun(t *testing.T) {
	store := openStore(t)
	require.Error(t, store.Record(context.Background(), nil))
}

func TestReopenKeepsHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, sampleRun("persisted", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := history.Open(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persisted", entries[0].ID)
	assert.Equal(t, path, reopened.Path())
}

func TestOpenRefusesUnknownLedgerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "PRAGMA user_version = 99")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = history.Open(ctx, path)
	require.Error(t, err)
	assert.ErrorIs(t, err, history.ErrSchemaMismatch)
	assert.Contains(t, err.Error(), "version 99")
}
