package store

import (
	"encoding/binary"
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// BlockStore persists block records keyed by hash, with an active-height
// index. Orphaned blocks keep their records (fork residue); the height index
// only ever points at the active block for a height.
type BlockStore struct{}

func NewBlockStore() *BlockStore { return &BlockStore{} }

func heightKey(height uint64) []byte {
	key := make([]byte, len(PrefixBlockHeight)+8)
	copy(key, PrefixBlockHeight)
	binary.BigEndian.PutUint64(key[len(PrefixBlockHeight):], height)
	return key
}

func blockKey(hash string) []byte {
	return []byte(PrefixBlock + hash)
}

// Put stores the block record and, when active, points the height index at it.
func (s *BlockStore) Put(tx db.Tx, b *types.Block) error {
	raw, err := jsonx.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal block %d: %w", b.Height, err)
	}
	if err := tx.Put(blockKey(b.Hash), raw); err != nil {
		return fmt.Errorf("failed to write block %d: %w", b.Height, err)
	}
	if b.Status == types.BlockStatusActive {
		if err := tx.Put(heightKey(b.Height), []byte(b.Hash)); err != nil {
			return fmt.Errorf("failed to index block %d: %w", b.Height, err)
		}
	}
	return nil
}

// GetByHash returns the block with the given hash, nil if absent.
func (s *BlockStore) GetByHash(tx db.Tx, hash string) (*types.Block, error) {
	value, err := tx.Get(blockKey(hash))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	return types.ParseBlock(value)
}

// GetActive returns the active block at height, nil if the height is empty.
func (s *BlockStore) GetActive(tx db.Tx, height uint64) (*types.Block, error) {
	hash, err := tx.Get(heightKey(height))
	if err != nil {
		return nil, err
	}
	if hash == nil {
		return nil, nil
	}
	return s.GetByHash(tx, string(hash))
}

// HasActive reports whether some active block occupies height.
func (s *BlockStore) HasActive(tx db.Tx, height uint64) (bool, error) {
	return tx.Has(heightKey(height))
}

// MarkOrphaned flips the active block at height to orphaned and clears the
// height index entry. The block record itself is retained.
func (s *BlockStore) MarkOrphaned(tx db.Tx, height uint64) (*types.Block, error) {
	b, err := s.GetActive(tx, height)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, nil
	}
	b.Status = types.BlockStatusOrphaned
	raw, err := jsonx.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal block %d: %w", b.Height, err)
	}
	if err := tx.Put(blockKey(b.Hash), raw); err != nil {
		return nil, fmt.Errorf("failed to write block %d: %w", b.Height, err)
	}
	if err := tx.Delete(heightKey(height)); err != nil {
		return nil, fmt.Errorf("failed to unindex block %d: %w", b.Height, err)
	}
	return b, nil
}
