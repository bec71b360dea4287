package store

import (
	"encoding/hex"
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// NullifierStore persists the revealed nullifier set keyed by nullifier value.
type NullifierStore struct{}

func NewNullifierStore() *NullifierStore { return &NullifierStore{} }

func nullifierKey(nf []byte) []byte {
	return []byte(PrefixNullifier + hex.EncodeToString(nf))
}

func (s *NullifierStore) Put(tx db.Tx, rec *types.NullifierRecord) error {
	raw, err := jsonx.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal nullifier %x: %w", rec.Nullifier, err)
	}
	return tx.Put(nullifierKey(rec.Nullifier), raw)
}

func (s *NullifierStore) Get(tx db.Tx, nf []byte) (*types.NullifierRecord, error) {
	value, err := tx.Get(nullifierKey(nf))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var rec types.NullifierRecord
	if err := jsonx.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal nullifier %x: %w", nf, err)
	}
	return &rec, nil
}

func (s *NullifierStore) Has(tx db.Tx, nf []byte) (bool, error) {
	return tx.Has(nullifierKey(nf))
}

func (s *NullifierStore) Delete(tx db.Tx, nf []byte) error {
	return tx.Delete(nullifierKey(nf))
}
