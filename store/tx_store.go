package store

import (
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// TxStore persists connected transaction records keyed by hash.
type TxStore struct{}

func NewTxStore() *TxStore { return &TxStore{} }

func txKey(hash string) []byte {
	return []byte(PrefixTx + hash)
}

func (s *TxStore) Put(tx db.Tx, rec *types.TxRecord) error {
	raw, err := jsonx.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal tx %s: %w", rec.TxHash, err)
	}
	return tx.Put(txKey(rec.TxHash), raw)
}

func (s *TxStore) Get(tx db.Tx, hash string) (*types.TxRecord, error) {
	value, err := tx.Get(txKey(hash))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var rec types.TxRecord
	if err := jsonx.Unmarshal(value, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tx %s: %w", hash, err)
	}
	return &rec, nil
}

func (s *TxStore) Delete(tx db.Tx, hash string) error {
	return tx.Delete(txKey(hash))
}
