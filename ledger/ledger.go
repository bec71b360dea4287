package ledger

import (
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/events"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/monitoring"
	"github.com/LayerTwo-Labs/orchard-sandbox/shielded"
	"github.com/LayerTwo-Labs/orchard-sandbox/store"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
	"github.com/LayerTwo-Labs/orchard-sandbox/utxo"
	"github.com/LayerTwo-Labs/orchard-sandbox/validator"
	"github.com/LayerTwo-Labs/orchard-sandbox/zkverify"
)

// Ledger is the single-writer engine over the transparent output set and the
// shielded pool. Connect and Disconnect each run inside one storage
// transaction, so a block's effects land or roll back atomically.
type Ledger struct {
	mu       sync.RWMutex
	provider db.Provider
	chain    *ChainIndex
	pool     *shielded.Pool
	utxos    *utxo.Set
	txStore  *store.TxStore
	state    *store.ChainStateStore
	checker  *validator.Validator
	eventBus *events.EventBus
}

func NewLedger(provider db.Provider, verifier zkverify.Verifier, depositCeiling uint64, eventBus *events.EventBus) *Ledger {
	pool := shielded.NewPool()
	utxos := utxo.NewSet()
	return &Ledger{
		provider: provider,
		chain:    NewChainIndex(),
		pool:     pool,
		utxos:    utxos,
		txStore:  store.NewTxStore(),
		state:    store.NewChainStateStore(),
		checker:  validator.New(utxos, pool, verifier, depositCeiling),
		eventBus: eventBus,
	}
}

// Propose assembles a candidate block extending the current tip. The block
// carries no tree root yet; that is only known once it connects.
func (l *Ledger) Propose(txs []*types.Transaction) (*types.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b *types.Block
	err := l.provider.View(func(dbtx db.Tx) error {
		tip, err := l.chain.Tip(dbtx)
		if err != nil {
			return err
		}
		b = &types.Block{
			Height:       0,
			ParentHash:   types.GenesisParentHash,
			Timestamp:    time.Now().UnixNano(),
			Transactions: txs,
		}
		if tip != nil {
			b.Height = tip.Height + 1
			b.ParentHash = tip.Hash
		}
		b.Hash = b.ComputeHash()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks a candidate block against the current tip state without
// applying anything. A nil error means Connect would accept it, provided the
// tip does not move in between.
func (l *Ledger) Validate(b *types.Block) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.provider.View(func(dbtx db.Tx) error {
		if err := l.chain.CheckExtends(dbtx, b); err != nil {
			return err
		}
		return l.validateBlockTxs(dbtx, b)
	})
}

// Connect validates b against the tip state and applies its effects. Every
// write happens inside one storage transaction: on any verdict the partial
// effects are discarded and the chain is untouched.
func (l *Ledger) Connect(b *types.Block) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	started := time.Now()
	err := l.provider.Update(func(dbtx db.Tx) error {
		if err := l.chain.CheckExtends(dbtx, b); err != nil {
			return err
		}
		if err := l.validateBlockTxs(dbtx, b); err != nil {
			return err
		}

		for _, t := range b.Transactions {
			if err := l.applyTx(dbtx, b, t); err != nil {
				return err
			}
		}

		root, err := l.pool.Root(dbtx)
		if err != nil {
			return err
		}
		b.TreeRoot = root

		if err := l.chain.Append(dbtx, b); err != nil {
			return err
		}
		if err := l.pool.SnapshotRoot(dbtx, b.Height); err != nil {
			return err
		}
		size, err := l.pool.Size(dbtx)
		if err != nil {
			return err
		}
		monitoring.SetPoolSize(size)
		if err := l.state.Set(dbtx, store.ChainStateKeyTipHash, []byte(b.Hash)); err != nil {
			return err
		}
		return l.state.Set(dbtx, store.ChainStateKeyTreeRoot, root)
	})
	if err != nil {
		logx.Warn("LEDGER", fmt.Sprintf("Block rejected | height=%d | hash=%s | err=%v", b.Height, b.Hash, err))
		return err
	}

	logx.Info("LEDGER", fmt.Sprintf("Block connected | height=%d | hash=%s | txs=%d | root=%s", b.Height, b.Hash, len(b.Transactions), hex.EncodeToString(b.TreeRoot)))
	monitoring.SetBlockHeight(b.Height)
	monitoring.RecordBlockConnected(len(b.Transactions), time.Since(started))
	if l.eventBus != nil {
		l.eventBus.Publish(events.NewBlockConnected(b.Height, b.Hash, hex.EncodeToString(b.TreeRoot), len(b.Transactions)))
	}
	for _, t := range b.Transactions {
		monitoring.IncreaseAppliedTxCount(string(t.Kind))
		if l.eventBus != nil {
			l.eventBus.Publish(events.NewTransactionApplied(t.Hash(), string(t.Kind), b.Height, b.Hash))
		}
	}
	return nil
}

// Disconnect rolls the tip block back, restoring the exact pre-connection
// state. Only the tip can be disconnected; deeper rollbacks repeat the call.
func (l *Ledger) Disconnect(height uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var b *types.Block
	err := l.provider.Update(func(dbtx db.Tx) error {
		tip, err := l.chain.Tip(dbtx)
		if err != nil {
			return err
		}
		if tip == nil {
			return errors.New(errors.ErrCodeNotTip, fmt.Sprintf("%d", height), "chain is empty")
		}
		if tip.Height != height {
			return errors.New(errors.ErrCodeNotTip, fmt.Sprintf("%d", height), fmt.Sprintf("tip is at height %d", tip.Height))
		}
		b = tip

		for i := len(b.Transactions) - 1; i >= 0; i-- {
			if err := l.revertTx(dbtx, b.Transactions[i]); err != nil {
				return err
			}
		}

		if b.Height == 0 {
			if err := l.pool.RewindToEmpty(dbtx); err != nil {
				return err
			}
		} else if err := l.pool.RewindTo(dbtx, b.Height-1); err != nil {
			return err
		}

		if err := l.chain.MarkOrphaned(dbtx, b.Height); err != nil {
			return err
		}

		if b.Height == 0 {
			if err := l.state.Delete(dbtx, store.ChainStateKeyTipHash); err != nil {
				return err
			}
			return l.state.Delete(dbtx, store.ChainStateKeyTreeRoot)
		}
		root, err := l.pool.Root(dbtx)
		if err != nil {
			return err
		}
		if err := l.state.Set(dbtx, store.ChainStateKeyTipHash, []byte(b.ParentHash)); err != nil {
			return err
		}
		return l.state.Set(dbtx, store.ChainStateKeyTreeRoot, root)
	})
	if err != nil {
		return err
	}

	logx.Info("LEDGER", fmt.Sprintf("Block disconnected | height=%d | hash=%s", b.Height, b.Hash))
	monitoring.IncreaseDisconnectedBlockCount()
	if b.Height > 0 {
		monitoring.SetBlockHeight(b.Height - 1)
	}
	if l.eventBus != nil {
		l.eventBus.Publish(events.NewBlockDisconnected(b.Height, b.Hash, hex.EncodeToString(b.TreeRoot)))
		for i := len(b.Transactions) - 1; i >= 0; i-- {
			t := b.Transactions[i]
			l.eventBus.Publish(events.NewTransactionReverted(t.Hash(), b.Height, b.Hash))
		}
	}
	return nil
}

// Tip returns the current active tip block, nil when the chain is empty.
func (l *Ledger) Tip() (*types.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var tip *types.Block
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		tip, err = l.chain.Tip(dbtx)
		return err
	})
	return tip, err
}

// Block returns any recorded block by hash, active or orphaned.
func (l *Ledger) Block(hash string) (*types.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b *types.Block
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		b, err = l.chain.BlockByHash(dbtx, hash)
		return err
	})
	return b, err
}

// BlockAtHeight returns the active-chain block at height, nil when the
// height is beyond the tip or only holds orphaned blocks.
func (l *Ledger) BlockAtHeight(height uint64) (*types.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var b *types.Block
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		b, err = l.chain.ActiveBlock(dbtx, height)
		return err
	})
	return b, err
}

// Transaction returns the stored record for a transaction on the active
// chain, nil if it never connected or was rolled back.
func (l *Ledger) Transaction(hash string) (*types.TxRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var rec *types.TxRecord
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		rec, err = l.txStore.Get(dbtx, hash)
		return err
	})
	return rec, err
}

// BalanceOf sums the unspent transparent outputs held by address.
func (l *Ledger) BalanceOf(address string) (*uint256.Int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var balance *uint256.Int
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		balance, err = l.utxos.BalanceOf(dbtx, address)
		return err
	})
	return balance, err
}

// Output returns the transparent output record for an output ID.
func (l *Ledger) Output(id string) (*types.Utxo, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var u *types.Utxo
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		u, err = l.utxos.Get(dbtx, id)
		return err
	})
	return u, err
}

// PoolRoot returns the current note commitment tree root.
func (l *Ledger) PoolRoot() ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var root []byte
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		root, err = l.pool.Root(dbtx)
		return err
	})
	return root, err
}

// PoolSize returns the pool-lifetime position counter.
func (l *Ledger) PoolSize() (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var size uint64
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		size, err = l.pool.Size(dbtx)
		return err
	})
	return size, err
}

// Note returns the shielded note record for a commitment, nil if absent.
func (l *Ledger) Note(commitment []byte) (*types.ShieldedNote, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var note *types.ShieldedNote
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		note, err = l.pool.Note(dbtx, commitment)
		return err
	})
	return note, err
}

// HasNullifier reports whether nf has been revealed on the active chain.
func (l *Ledger) HasNullifier(nf []byte) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var revealed bool
	err := l.provider.View(func(dbtx db.Tx) error {
		var err error
		revealed, err = l.pool.HasNullifier(dbtx, nf)
		return err
	})
	return revealed, err
}
