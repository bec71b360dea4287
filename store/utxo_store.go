package store

import (
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// UtxoStore persists transparent output records keyed by id, with a
// per-address index used for balance queries. Spending never deletes a
// record; it fills SpentBy so disconnect can clear it again.
type UtxoStore struct{}

func NewUtxoStore() *UtxoStore { return &UtxoStore{} }

func utxoKey(id string) []byte {
	return []byte(PrefixUtxo + id)
}

func utxoAddrKey(address, id string) []byte {
	return []byte(PrefixUtxoAddr + address + ":" + id)
}

func (s *UtxoStore) Put(tx db.Tx, u *types.Utxo) error {
	raw, err := jsonx.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal output %s: %w", u.ID, err)
	}
	if err := tx.Put(utxoKey(u.ID), raw); err != nil {
		return fmt.Errorf("failed to write output %s: %w", u.ID, err)
	}
	return tx.Put(utxoAddrKey(u.Address, u.ID), []byte(u.ID))
}

func (s *UtxoStore) Get(tx db.Tx, id string) (*types.Utxo, error) {
	value, err := tx.Get(utxoKey(id))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var u types.Utxo
	if err := jsonx.Unmarshal(value, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal output %s: %w", id, err)
	}
	return &u, nil
}

func (s *UtxoStore) Has(tx db.Tx, id string) (bool, error) {
	return tx.Has(utxoKey(id))
}

// Update rewrites an existing record in place (spend/unspend transitions).
func (s *UtxoStore) Update(tx db.Tx, u *types.Utxo) error {
	raw, err := jsonx.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to marshal output %s: %w", u.ID, err)
	}
	return tx.Put(utxoKey(u.ID), raw)
}

// Delete removes the record and its address index entry (disconnect of the
// creating block).
func (s *UtxoStore) Delete(tx db.Tx, u *types.Utxo) error {
	if err := tx.Delete(utxoKey(u.ID)); err != nil {
		return err
	}
	return tx.Delete(utxoAddrKey(u.Address, u.ID))
}

// IterateByAddress visits every output record for address.
func (s *UtxoStore) IterateByAddress(tx db.Tx, address string, fn func(u *types.Utxo) bool) error {
	prefix := []byte(PrefixUtxoAddr + address + ":")
	var iterErr error
	err := tx.IteratePrefix(prefix, func(key, value []byte) bool {
		u, err := s.Get(tx, string(value))
		if err != nil {
			iterErr = err
			return false
		}
		if u == nil {
			return true
		}
		return fn(u)
	})
	if err != nil {
		return err
	}
	return iterErr
}
