package ledger

import (
	"encoding/hex"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/events"
	"github.com/LayerTwo-Labs/orchard-sandbox/monitoring"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// validateBlockTxs runs the transaction validator over every transaction in
// declared order against the tip state, plus block-level conflict checks the
// per-transaction validator cannot see: two transactions in the same block
// spending the same output, revealing the same nullifier or creating the
// same commitment.
func (l *Ledger) validateBlockTxs(dbtx db.Tx, b *types.Block) error {
	seenTxs := make(map[string]struct{})
	seenOutputs := make(map[string]struct{})
	seenNullifiers := make(map[string]struct{})
	seenCommitments := make(map[string]struct{})

	for _, t := range b.Transactions {
		txHash := t.Hash()
		if _, dup := seenTxs[txHash]; dup {
			return l.reject(b, txHash, errors.New(errors.ErrCodeDuplicateID, txHash, "transaction appears twice in block"))
		}
		seenTxs[txHash] = struct{}{}

		if err := l.checker.ValidateTx(dbtx, t); err != nil {
			return l.reject(b, txHash, err)
		}

		for _, in := range t.TransparentInputs {
			if _, dup := seenOutputs[in.OutputID]; dup {
				return l.reject(b, txHash, errors.New(errors.ErrCodeDoubleSpend, in.OutputID, "output already spent by an earlier transaction in this block"))
			}
			seenOutputs[in.OutputID] = struct{}{}
		}
		for _, nf := range t.Nullifiers {
			key := hex.EncodeToString(nf)
			if _, dup := seenNullifiers[key]; dup {
				return l.reject(b, txHash, errors.New(errors.ErrCodeNullifierReuse, key, "nullifier already revealed by an earlier transaction in this block"))
			}
			seenNullifiers[key] = struct{}{}
		}
		for _, out := range t.ShieldedOutputs {
			key := hex.EncodeToString(out.Commitment)
			if _, dup := seenCommitments[key]; dup {
				return l.reject(b, txHash, errors.New(errors.ErrCodeDuplicateID, key, "commitment already created by an earlier transaction in this block"))
			}
			seenCommitments[key] = struct{}{}
		}
	}
	return nil
}

func (l *Ledger) reject(b *types.Block, txHash string, err error) error {
	monitoring.IncreaseRejectedTxCount(string(errors.CodeOf(err)))
	if l.eventBus != nil {
		l.eventBus.Publish(events.NewTransactionRejected(txHash, b.Hash, string(errors.CodeOf(err)), err.Error()))
	}
	return err
}

// applyTx lands one validated transaction's effects: spend inputs, create
// outputs, append commitments, reveal nullifiers, record the transaction.
func (l *Ledger) applyTx(dbtx db.Tx, b *types.Block, t *types.Transaction) error {
	txHash := t.Hash()

	for _, in := range t.TransparentInputs {
		if err := l.utxos.Spend(dbtx, in.OutputID, txHash); err != nil {
			return err
		}
	}
	for i, out := range t.TransparentOutputs {
		if err := l.utxos.Create(dbtx, &types.Utxo{
			ID:      types.OutputID(txHash, i),
			TxHash:  txHash,
			Address: out.Address,
			Amount:  out.Amount,
		}); err != nil {
			return err
		}
	}
	if t.Kind.TouchesShieldedPool() {
		for _, out := range t.ShieldedOutputs {
			if _, err := l.pool.AppendCommitment(dbtx, &types.ShieldedNote{
				Commitment:   out.Commitment,
				EphemeralKey: out.EphemeralKey,
				EncAmount:    out.EncAmount,
				Memo:         out.Memo,
				TxHash:       txHash,
			}, b.Height); err != nil {
				return err
			}
		}
		for i, nf := range t.Nullifiers {
			if err := l.pool.RevealNullifier(dbtx, nf, b.Height, txHash); err != nil {
				return err
			}
			if err := l.pool.MarkNoteSpent(dbtx, t.ShieldedInputs[i], nf); err != nil {
				return err
			}
		}
	}

	return l.txStore.Put(dbtx, &types.TxRecord{
		TxHash: txHash,
		Height: b.Height,
		Kind:   t.Kind,
		Raw:    t.Bytes(),
		Proof:  t.Proof,
	})
}

// revertTx reverses applyTx effect by effect, in the opposite order.
func (l *Ledger) revertTx(dbtx db.Tx, t *types.Transaction) error {
	txHash := t.Hash()

	if err := l.txStore.Delete(dbtx, txHash); err != nil {
		return err
	}

	if t.Kind.TouchesShieldedPool() {
		for i := len(t.Nullifiers) - 1; i >= 0; i-- {
			if err := l.pool.UnrevealNullifier(dbtx, t.Nullifiers[i]); err != nil {
				return err
			}
			if err := l.pool.MarkNoteUnspent(dbtx, t.ShieldedInputs[i]); err != nil {
				return err
			}
		}
		for i := len(t.ShieldedOutputs) - 1; i >= 0; i-- {
			if err := l.pool.RemoveNote(dbtx, t.ShieldedOutputs[i].Commitment); err != nil {
				return err
			}
		}
	}
	for i := len(t.TransparentOutputs) - 1; i >= 0; i-- {
		if err := l.utxos.Remove(dbtx, types.OutputID(txHash, i)); err != nil {
			return err
		}
	}
	for i := len(t.TransparentInputs) - 1; i >= 0; i-- {
		if err := l.utxos.Unspend(dbtx, t.TransparentInputs[i].OutputID); err != nil {
			return err
		}
	}
	return nil
}
