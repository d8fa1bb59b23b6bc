package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uninspired/inspire-wall/backend/internal/model/thread"
)

func TestSnapshotsLatestMissing(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Latest()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSnapshotsSaveAndReopen(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2025, time.May, 24, 12, 0, 0, 0, time.UTC)

	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Save(thread.DefaultDrop(), thread.Sample()[:3], at))
	require.NoError(t, s.Close())

	reopened, err := Open(dir)
	require.NoError(t, err)
	defer reopened.Close()

	entry, err := reopened.Latest()
	require.NoError(t, err)
	assert.Equal(t, "drop_003", entry.Drop.ID)
	require.Len(t, entry.Threads, 3)
	assert.Equal(t, 89, entry.Threads[0].Reactions.Get(thread.Heart))
	assert.True(t, entry.SavedAt.Equal(at))

	byDrop, err := reopened.ForDrop("drop_003")
	require.NoError(t, err)
	assert.Len(t, byDrop.Threads, 3)
}
