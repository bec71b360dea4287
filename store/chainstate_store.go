package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// ChainStateStore holds the small keyed cache of chain-wide scalars. It is
// derived state: every value must be re-derivable from the block, output and
// tree records.
type ChainStateStore struct{}

func NewChainStateStore() *ChainStateStore { return &ChainStateStore{} }

func chainStateKey(name string) []byte {
	return []byte(PrefixChainState + name)
}

func (s *ChainStateStore) Set(tx db.Tx, name string, value []byte) error {
	entry := &types.ChainStateEntry{
		Key:       name,
		Value:     value,
		UpdatedAt: time.Now().Unix(),
	}
	raw, err := jsonx.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal chain state %s: %w", name, err)
	}
	return tx.Put(chainStateKey(name), raw)
}

func (s *ChainStateStore) Get(tx db.Tx, name string) (*types.ChainStateEntry, error) {
	value, err := tx.Get(chainStateKey(name))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var entry types.ChainStateEntry
	if err := jsonx.Unmarshal(value, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal chain state %s: %w", name, err)
	}
	return &entry, nil
}

func (s *ChainStateStore) Delete(tx db.Tx, name string) error {
	return tx.Delete(chainStateKey(name))
}

// SetUint64 stores a counter value big-endian.
func (s *ChainStateStore) SetUint64(tx db.Tx, name string, v uint64) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, v)
	return s.Set(tx, name, value)
}

// GetUint64 reads a counter value; ok is false when the key is unset.
func (s *ChainStateStore) GetUint64(tx db.Tx, name string) (uint64, bool, error) {
	entry, err := s.Get(tx, name)
	if err != nil {
		return 0, false, err
	}
	if entry == nil {
		return 0, false, nil
	}
	if len(entry.Value) != 8 {
		return 0, false, fmt.Errorf("invalid chain state %s length: %d", name, len(entry.Value))
	}
	return binary.BigEndian.Uint64(entry.Value), true, nil
}
