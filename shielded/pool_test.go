package shielded

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

func newTestProvider(t *testing.T) db.Provider {
	t.Helper()
	provider, err := db.NewBoltProvider(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })
	return provider
}

func testCommitment(b byte) []byte {
	c := make([]byte, 32)
	c[0] = b
	return c
}

func appendNote(t *testing.T, provider db.Provider, pool *Pool, cm []byte, height uint64) uint64 {
	t.Helper()
	var position uint64
	err := provider.Update(func(dbtx db.Tx) error {
		var err error
		position, err = pool.AppendCommitment(dbtx, &types.ShieldedNote{Commitment: cm}, height)
		return err
	})
	require.NoError(t, err)
	return position
}

func poolRoot(t *testing.T, provider db.Provider, pool *Pool) []byte {
	t.Helper()
	var root []byte
	err := provider.View(func(dbtx db.Tx) error {
		var err error
		root, err = pool.Root(dbtx)
		return err
	})
	require.NoError(t, err)
	return root
}

func snapshot(t *testing.T, provider db.Provider, pool *Pool, height uint64) {
	t.Helper()
	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.SnapshotRoot(dbtx, height)
	}))
}

func TestEmptyPoolRoot(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	root := poolRoot(t, provider, pool)
	assert.Equal(t, EmptyRoot(), root)

	err := provider.View(func(dbtx db.Tx) error {
		size, err := pool.Size(dbtx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), size)
		return nil
	})
	require.NoError(t, err)
}

func TestAppendCommitmentAssignsSequentialPositions(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	assert.Equal(t, uint64(0), appendNote(t, provider, pool, testCommitment(1), 0))
	assert.Equal(t, uint64(1), appendNote(t, provider, pool, testCommitment(2), 0))
	assert.Equal(t, uint64(2), appendNote(t, provider, pool, testCommitment(3), 1))

	assert.NotEqual(t, EmptyRoot(), poolRoot(t, provider, pool))
}

func TestAppendDuplicateCommitmentRejected(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	appendNote(t, provider, pool, testCommitment(1), 0)

	err := provider.Update(func(dbtx db.Tx) error {
		_, err := pool.AppendCommitment(dbtx, &types.ShieldedNote{Commitment: testCommitment(1)}, 1)
		return err
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateID))
}

func TestEveryAppendChangesRoot(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	seen := map[string]bool{string(poolRoot(t, provider, pool)): true}
	for i := byte(1); i <= 8; i++ {
		appendNote(t, provider, pool, testCommitment(i), uint64(i))
		root := string(poolRoot(t, provider, pool))
		assert.False(t, seen[root], "root repeated after append %d", i)
		seen[root] = true
	}
}

func TestRewindRestoresRootByteForByte(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	appendNote(t, provider, pool, testCommitment(1), 0)
	appendNote(t, provider, pool, testCommitment(2), 0)
	snapshot(t, provider, pool, 0)
	rootAfterBlock0 := poolRoot(t, provider, pool)

	appendNote(t, provider, pool, testCommitment(3), 1)
	snapshot(t, provider, pool, 1)
	require.NotEqual(t, rootAfterBlock0, poolRoot(t, provider, pool))

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.RewindTo(dbtx, 0)
	}))
	assert.Equal(t, rootAfterBlock0, poolRoot(t, provider, pool))
}

func TestPositionCounterNeverRewinds(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	appendNote(t, provider, pool, testCommitment(1), 0)
	snapshot(t, provider, pool, 0)
	appendNote(t, provider, pool, testCommitment(2), 1)
	snapshot(t, provider, pool, 1)

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.RewindTo(dbtx, 0)
	}))

	// A note appended after the rewind must not reuse position 1.
	assert.Equal(t, uint64(2), appendNote(t, provider, pool, testCommitment(3), 1))

	err := provider.View(func(dbtx db.Tx) error {
		size, err := pool.Size(dbtx)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), size)
		return nil
	})
	require.NoError(t, err)
}

func TestRewindToEmpty(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	appendNote(t, provider, pool, testCommitment(1), 0)
	snapshot(t, provider, pool, 0)
	require.NotEqual(t, EmptyRoot(), poolRoot(t, provider, pool))

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.RewindToEmpty(dbtx)
	}))
	assert.Equal(t, EmptyRoot(), poolRoot(t, provider, pool))
}

func TestRewindWithoutSnapshotFails(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()

	err := provider.Update(func(dbtx db.Tx) error {
		return pool.RewindTo(dbtx, 5)
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestNullifierLifecycle(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()
	nf := testCommitment(9)

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.RevealNullifier(dbtx, nf, 3, "tx-1")
	}))

	err := provider.View(func(dbtx db.Tx) error {
		revealed, err := pool.HasNullifier(dbtx, nf)
		require.NoError(t, err)
		assert.True(t, revealed)
		return nil
	})
	require.NoError(t, err)

	err = provider.Update(func(dbtx db.Tx) error {
		return pool.RevealNullifier(dbtx, nf, 4, "tx-2")
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNullifierReuse))

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.UnrevealNullifier(dbtx, nf)
	}))

	err = provider.Update(func(dbtx db.Tx) error {
		return pool.UnrevealNullifier(dbtx, nf)
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestMarkNoteSpentAndUnspent(t *testing.T) {
	provider := newTestProvider(t)
	pool := NewPool()
	cm := testCommitment(1)
	nf := testCommitment(2)

	appendNote(t, provider, pool, cm, 0)

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.MarkNoteSpent(dbtx, cm, nf)
	}))
	err := provider.View(func(dbtx db.Tx) error {
		note, err := pool.Note(dbtx, cm)
		require.NoError(t, err)
		require.NotNil(t, note)
		assert.True(t, note.Spent())
		assert.Equal(t, nf, note.Nullifier)
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return pool.MarkNoteUnspent(dbtx, cm)
	}))
	err = provider.View(func(dbtx db.Tx) error {
		note, err := pool.Note(dbtx, cm)
		require.NoError(t, err)
		require.NotNil(t, note)
		assert.False(t, note.Spent())
		return nil
	})
	require.NoError(t, err)
}
