package utxo

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/store"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// Set is the transparent unspent-output set. Every mutation runs inside the
// caller's storage transaction; the set enforces single-spend transitions but
// not value conservation (that is the validator's rule).
type Set struct {
	outputs *store.UtxoStore
}

func NewSet() *Set {
	return &Set{outputs: store.NewUtxoStore()}
}

// Create inserts a new unspent output.
func (s *Set) Create(tx db.Tx, u *types.Utxo) error {
	exists, err := s.outputs.Has(tx, u.ID)
	if err != nil {
		return err
	}
	if exists {
		return errors.New(errors.ErrCodeDuplicateID, u.ID, "output id already exists")
	}
	return s.outputs.Put(tx, u)
}

// Spend marks an output spent by spendingTxHash. The unspent-to-spent
// transition happens exactly once per active chain history.
func (s *Set) Spend(tx db.Tx, outputID, spendingTxHash string) error {
	u, err := s.outputs.Get(tx, outputID)
	if err != nil {
		return err
	}
	if u == nil {
		return errors.New(errors.ErrCodeNotFound, outputID, "output does not exist")
	}
	if !u.Unspent() {
		return errors.New(errors.ErrCodeAlreadySpent, outputID, fmt.Sprintf("output already spent by %s", u.SpentBy))
	}
	u.SpentBy = spendingTxHash
	return s.outputs.Update(tx, u)
}

// Unspend restores a spent output to unspent (disconnection path).
func (s *Set) Unspend(tx db.Tx, outputID string) error {
	u, err := s.outputs.Get(tx, outputID)
	if err != nil {
		return err
	}
	if u == nil {
		return errors.New(errors.ErrCodeNotFound, outputID, "output does not exist")
	}
	if u.Unspent() {
		return errors.New(errors.ErrCodeNotSpent, outputID, "output is not spent")
	}
	u.SpentBy = ""
	return s.outputs.Update(tx, u)
}

// Remove deletes an output record entirely (disconnection of the block that
// created it).
func (s *Set) Remove(tx db.Tx, outputID string) error {
	u, err := s.outputs.Get(tx, outputID)
	if err != nil {
		return err
	}
	if u == nil {
		return errors.New(errors.ErrCodeNotFound, outputID, "output does not exist")
	}
	return s.outputs.Delete(tx, u)
}

// Get returns the output record, nil if absent.
func (s *Set) Get(tx db.Tx, outputID string) (*types.Utxo, error) {
	return s.outputs.Get(tx, outputID)
}

// BalanceOf sums the unspent outputs destined for address.
func (s *Set) BalanceOf(tx db.Tx, address string) (*uint256.Int, error) {
	balance := uint256.NewInt(0)
	err := s.outputs.IterateByAddress(tx, address, func(u *types.Utxo) bool {
		if u.Unspent() {
			balance.Add(balance, uint256.NewInt(u.Amount))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return balance, nil
}
