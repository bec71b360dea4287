package ledger

import (
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/store"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// ChainIndex maintains the single active chain of blocks. Every block ever
// connected stays on record; disconnected blocks are flipped to orphaned
// rather than deleted.
type ChainIndex struct {
	blocks *store.BlockStore
	state  *store.ChainStateStore
}

func NewChainIndex() *ChainIndex {
	return &ChainIndex{
		blocks: store.NewBlockStore(),
		state:  store.NewChainStateStore(),
	}
}

// Tip returns the highest active block, or nil when the chain is empty.
func (ci *ChainIndex) Tip(tx db.Tx) (*types.Block, error) {
	height, ok, err := ci.state.GetUint64(tx, store.ChainStateKeyTipHeight)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return ci.blocks.GetActive(tx, height)
}

// CheckExtends verifies that b extends the current tip by exactly one
// height and references its hash. A genesis block must sit at height zero
// under the all-zero parent sentinel.
func (ci *ChainIndex) CheckExtends(tx db.Tx, b *types.Block) error {
	tip, err := ci.Tip(tx)
	if err != nil {
		return err
	}

	if tip == nil {
		if b.Height != 0 {
			return errors.New(errors.ErrCodeDiscontinuity, b.Hash, fmt.Sprintf("first block must have height 0, got %d", b.Height))
		}
		if b.ParentHash != types.GenesisParentHash {
			return errors.New(errors.ErrCodeDiscontinuity, b.Hash, "genesis block must reference the zero parent hash")
		}
	} else {
		if b.Height != tip.Height+1 {
			existing, err := ci.blocks.HasActive(tx, b.Height)
			if err != nil {
				return err
			}
			if existing {
				return errors.New(errors.ErrCodeDuplicateHeight, b.Hash, fmt.Sprintf("active block already connected at height %d", b.Height))
			}
			return errors.New(errors.ErrCodeDiscontinuity, b.Hash, fmt.Sprintf("block height %d does not extend tip height %d", b.Height, tip.Height))
		}
		if b.ParentHash != tip.Hash {
			return errors.New(errors.ErrCodeDiscontinuity, b.Hash, fmt.Sprintf("parent hash %s does not match tip hash %s", b.ParentHash, tip.Hash))
		}
	}
	return nil
}

// Append admits b as the new tip.
func (ci *ChainIndex) Append(tx db.Tx, b *types.Block) error {
	if err := ci.CheckExtends(tx, b); err != nil {
		return err
	}

	b.Status = types.BlockStatusActive
	if err := ci.blocks.Put(tx, b); err != nil {
		return err
	}
	return ci.state.SetUint64(tx, store.ChainStateKeyTipHeight, b.Height)
}

// MarkOrphaned flips the active block at height to orphaned and moves the
// tip back to height-1 (or clears it for genesis).
func (ci *ChainIndex) MarkOrphaned(tx db.Tx, height uint64) error {
	if _, err := ci.blocks.MarkOrphaned(tx, height); err != nil {
		return err
	}
	if height == 0 {
		return ci.state.Delete(tx, store.ChainStateKeyTipHeight)
	}
	return ci.state.SetUint64(tx, store.ChainStateKeyTipHeight, height-1)
}

// BlockByHash returns any recorded block, active or orphaned.
func (ci *ChainIndex) BlockByHash(tx db.Tx, hash string) (*types.Block, error) {
	return ci.blocks.GetByHash(tx, hash)
}

// ActiveBlock returns the active block at height, nil if none.
func (ci *ChainIndex) ActiveBlock(tx db.Tx, height uint64) (*types.Block, error) {
	return ci.blocks.GetActive(tx, height)
}
