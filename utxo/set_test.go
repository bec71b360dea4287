package utxo

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

func create(t *testing.T, provider db.Provider, set *Set, u *types.Utxo) {
	t.Helper()
	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return set.Create(dbtx, u)
	}))
}

func TestCreateAndBalance(t *testing.T) {
	provider := newTestProvider(t)
	set := NewSet()

	create(t, provider, set, &types.Utxo{ID: "out-1", TxHash: "tx-1", Address: "t1aaa", Amount: 40})
	create(t, provider, set, &types.Utxo{ID: "out-2", TxHash: "tx-1", Address: "t1aaa", Amount: 60})
	create(t, provider, set, &types.Utxo{ID: "out-3", TxHash: "tx-2", Address: "t1bbb", Amount: 5})

	err := provider.View(func(dbtx db.Tx) error {
		balance, err := set.BalanceOf(dbtx, "t1aaa")
		require.NoError(t, err)
		assert.Equal(t, uint64(100), balance.Uint64())

		balance, err = set.BalanceOf(dbtx, "t1ccc")
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
		return nil
	})
	require.NoError(t, err)
}

func TestCreateDuplicateIDRejected(t *testing.T) {
	provider := newTestProvider(t)
	set := NewSet()

	create(t, provider, set, &types.Utxo{ID: "out-1", TxHash: "tx-1", Address: "t1aaa", Amount: 40})

	err := provider.Update(func(dbtx db.Tx) error {
		return set.Create(dbtx, &types.Utxo{ID: "out-1", TxHash: "tx-2", Address: "t1bbb", Amount: 1})
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateID))
}

func TestSpendTransitions(t *testing.T) {
	provider := newTestProvider(t)
	set := NewSet()

	create(t, provider, set, &types.Utxo{ID: "out-1", TxHash: "tx-1", Address: "t1aaa", Amount: 40})

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return set.Spend(dbtx, "out-1", "tx-2")
	}))

	err := provider.View(func(dbtx db.Tx) error {
		u, err := set.Get(dbtx, "out-1")
		require.NoError(t, err)
		require.NotNil(t, u)
		assert.False(t, u.Unspent())
		assert.Equal(t, "tx-2", u.SpentBy)

		// Spent outputs no longer count toward the balance.
		balance, err := set.BalanceOf(dbtx, "t1aaa")
		require.NoError(t, err)
		assert.True(t, balance.IsZero())
		return nil
	})
	require.NoError(t, err)

	err = provider.Update(func(dbtx db.Tx) error {
		return set.Spend(dbtx, "out-1", "tx-3")
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAlreadySpent))

	err = provider.Update(func(dbtx db.Tx) error {
		return set.Spend(dbtx, "missing", "tx-3")
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}

func TestUnspendRestoresBalance(t *testing.T) {
	provider := newTestProvider(t)
	set := NewSet()

	create(t, provider, set, &types.Utxo{ID: "out-1", TxHash: "tx-1", Address: "t1aaa", Amount: 40})

	err := provider.Update(func(dbtx db.Tx) error {
		return set.Unspend(dbtx, "out-1")
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotSpent))

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return set.Spend(dbtx, "out-1", "tx-2")
	}))
	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return set.Unspend(dbtx, "out-1")
	}))

	err = provider.View(func(dbtx db.Tx) error {
		balance, err := set.BalanceOf(dbtx, "t1aaa")
		require.NoError(t, err)
		assert.Equal(t, uint64(40), balance.Uint64())
		return nil
	})
	require.NoError(t, err)
}

func TestRemove(t *testing.T) {
	provider := newTestProvider(t)
	set := NewSet()

	create(t, provider, set, &types.Utxo{ID: "out-1", TxHash: "tx-1", Address: "t1aaa", Amount: 40})

	require.NoError(t, provider.Update(func(dbtx db.Tx) error {
		return set.Remove(dbtx, "out-1")
	}))

	err := provider.View(func(dbtx db.Tx) error {
		u, err := set.Get(dbtx, "out-1")
		require.NoError(t, err)
		assert.Nil(t, u)
		return nil
	})
	require.NoError(t, err)

	err = provider.Update(func(dbtx db.Tx) error {
		return set.Remove(dbtx, "out-1")
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotFound))
}
