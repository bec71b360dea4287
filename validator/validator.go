package validator

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/shielded"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
	"github.com/LayerTwo-Labs/orchard-sandbox/utxo"
	"github.com/LayerTwo-Labs/orchard-sandbox/wallet"
	"github.com/LayerTwo-Labs/orchard-sandbox/zkverify"
)

// Validator is the stateless transaction rule engine. It inspects the
// current UtxoSet/ShieldedPool views through a read transaction and returns
// a verdict; it never mutates state, so it is safe to run on read-only
// snapshots before the applier serializes writes.
type Validator struct {
	utxos    *utxo.Set
	pool     *shielded.Pool
	verifier zkverify.Verifier

	// depositCeiling caps single deposit outputs when non-zero. Deposits are
	// test-only minting; the ceiling is the caller-side policy hook.
	depositCeiling uint64
}

func New(utxos *utxo.Set, pool *shielded.Pool, verifier zkverify.Verifier, depositCeiling uint64) *Validator {
	return &Validator{
		utxos:          utxos,
		pool:           pool,
		verifier:       verifier,
		depositCeiling: depositCeiling,
	}
}

// ValidateTx checks one transaction against the current views. The returned
// error is a coded LedgerError naming the offending transaction or record.
func (v *Validator) ValidateTx(dbtx db.Tx, t *types.Transaction) error {
	switch t.Kind {
	case types.TxDeposit:
		return v.validateDeposit(t)
	case types.TxTransparent:
		return v.validateTransparent(dbtx, t)
	case types.TxShield:
		return v.validateShield(dbtx, t)
	case types.TxShieldToShield:
		return v.validateShieldToShield(dbtx, t)
	case types.TxDeshield:
		return v.validateDeshield(dbtx, t)
	}
	return errors.New(errors.ErrCodeNotFound, t.Hash(), fmt.Sprintf("unknown transaction kind %q", t.Kind))
}

// validateDeposit accepts structurally well-formed minting. Deposits have no
// inputs by design; conservation is exempted.
func (v *Validator) validateDeposit(t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.TransparentInputs) != 0 || len(t.ShieldedInputs) != 0 ||
		len(t.ShieldedOutputs) != 0 || len(t.Nullifiers) != 0 || len(t.Proof) != 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "deposit must carry transparent outputs only")
	}
	if len(t.TransparentOutputs) == 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "deposit must create at least one output")
	}
	for _, out := range t.TransparentOutputs {
		if err := requireTransparentAddr(out.Address, txHash); err != nil {
			return err
		}
		if v.depositCeiling > 0 && out.Amount > v.depositCeiling {
			return errors.New(errors.ErrCodeAmountMismatch, txHash,
				fmt.Sprintf("deposit of %d exceeds ceiling %d", out.Amount, v.depositCeiling))
		}
	}
	return nil
}

func (v *Validator) validateTransparent(dbtx db.Tx, t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.ShieldedInputs) != 0 || len(t.ShieldedOutputs) != 0 ||
		len(t.Nullifiers) != 0 || len(t.Proof) != 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "transparent transfer must not touch the shielded pool")
	}
	if len(t.TransparentInputs) == 0 || len(t.TransparentOutputs) == 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "transparent transfer needs inputs and outputs")
	}

	inSum, err := v.checkTransparentInputs(dbtx, t)
	if err != nil {
		return err
	}

	// Sums are taken over uint256 so an output set that only balances modulo
	// 2^64 cannot pass conservation.
	outSum := uint256.NewInt(0)
	for _, out := range t.TransparentOutputs {
		if err := requireTransparentAddr(out.Address, txHash); err != nil {
			return err
		}
		outSum.Add(outSum, uint256.NewInt(out.Amount))
	}
	spent := new(uint256.Int).Add(outSum, uint256.NewInt(t.Fee))
	if inSum.Cmp(spent) != 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash,
			fmt.Sprintf("inputs %s != outputs %s + fee %d", inSum.Dec(), outSum.Dec(), t.Fee))
	}
	return nil
}

func (v *Validator) validateShield(dbtx db.Tx, t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.TransparentOutputs) != 0 || len(t.ShieldedInputs) != 0 || len(t.Nullifiers) != 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "shield must consume transparent value and create notes only")
	}
	if len(t.TransparentInputs) == 0 || len(t.ShieldedOutputs) == 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "shield needs transparent inputs and shielded outputs")
	}

	inSum, err := v.checkTransparentInputs(dbtx, t)
	if err != nil {
		return err
	}
	if inSum.LtUint64(t.Fee) {
		return errors.New(errors.ErrCodeAmountMismatch, txHash,
			fmt.Sprintf("fee %d exceeds inputs %s", t.Fee, inSum.Dec()))
	}

	if err := v.checkNewCommitments(dbtx, t); err != nil {
		return err
	}
	return v.checkProof(t)
}

func (v *Validator) validateShieldToShield(dbtx db.Tx, t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.TransparentInputs) != 0 || len(t.TransparentOutputs) != 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "shield-to-shield must have no transparent side effects")
	}
	if len(t.ShieldedOutputs) == 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "shield-to-shield must create notes")
	}
	if err := v.checkSpentNotes(dbtx, t); err != nil {
		return err
	}
	if err := v.checkNewCommitments(dbtx, t); err != nil {
		return err
	}
	return v.checkProof(t)
}

func (v *Validator) validateDeshield(dbtx db.Tx, t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.TransparentInputs) != 0 || len(t.ShieldedOutputs) != 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "deshield must reveal nullifiers and create transparent outputs only")
	}
	if len(t.TransparentOutputs) == 0 {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "deshield must create transparent outputs")
	}
	for _, out := range t.TransparentOutputs {
		if err := requireTransparentAddr(out.Address, txHash); err != nil {
			return err
		}
	}
	if err := v.checkSpentNotes(dbtx, t); err != nil {
		return err
	}
	return v.checkProof(t)
}

// checkTransparentInputs verifies existence, spendability, amount/address
// consistency and signatures for every transparent input. Returns the input
// sum as a uint256 so it stays exact however many inputs are referenced.
func (v *Validator) checkTransparentInputs(dbtx db.Tx, t *types.Transaction) (*uint256.Int, error) {
	txHash := t.Hash()
	digest := t.SigHash()
	seen := make(map[string]bool, len(t.TransparentInputs))
	inSum := uint256.NewInt(0)
	for i := range t.TransparentInputs {
		in := &t.TransparentInputs[i]
		if seen[in.OutputID] {
			return nil, errors.New(errors.ErrCodeDoubleSpend, in.OutputID, "output referenced twice in one transaction")
		}
		seen[in.OutputID] = true

		u, err := v.utxos.Get(dbtx, in.OutputID)
		if err != nil {
			return nil, err
		}
		if u == nil {
			return nil, errors.New(errors.ErrCodeUnknownInput, in.OutputID, "referenced output does not exist")
		}
		if !u.Unspent() {
			return nil, errors.New(errors.ErrCodeDoubleSpend, in.OutputID, fmt.Sprintf("output already spent by %s", u.SpentBy))
		}
		if u.Amount != in.Amount || u.Address != in.Address {
			return nil, errors.New(errors.ErrCodeAmountMismatch, in.OutputID, "input does not match stored output")
		}
		if err := wallet.VerifyInputSignature(in, digest); err != nil {
			return nil, errors.New(errors.ErrCodeBadSignature, txHash, err.Error())
		}
		inSum.Add(inSum, uint256.NewInt(u.Amount))
	}
	return inSum, nil
}

// checkSpentNotes verifies nullifier freshness and that every named input
// note exists and is unspent. Nullifiers[i] spends ShieldedInputs[i].
func (v *Validator) checkSpentNotes(dbtx db.Tx, t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.Nullifiers) == 0 || len(t.Nullifiers) != len(t.ShieldedInputs) {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, "nullifiers and shielded inputs must pair up")
	}
	seen := make(map[string]bool, len(t.Nullifiers))
	for i, nf := range t.Nullifiers {
		nfHex := hex.EncodeToString(nf)
		if seen[nfHex] {
			return errors.New(errors.ErrCodeNullifierReuse, nfHex, "nullifier revealed twice in one transaction")
		}
		seen[nfHex] = true

		revealed, err := v.pool.HasNullifier(dbtx, nf)
		if err != nil {
			return err
		}
		if revealed {
			return errors.New(errors.ErrCodeNullifierReuse, nfHex, "nullifier already revealed")
		}

		note, err := v.pool.Note(dbtx, t.ShieldedInputs[i])
		if err != nil {
			return err
		}
		if note == nil {
			return errors.New(errors.ErrCodeUnknownInput, hex.EncodeToString(t.ShieldedInputs[i]), "spent note does not exist")
		}
		if note.Spent() {
			return errors.New(errors.ErrCodeDoubleSpend, hex.EncodeToString(t.ShieldedInputs[i]), "note already spent")
		}
	}
	return nil
}

// checkNewCommitments rejects commitments that already exist in the pool.
func (v *Validator) checkNewCommitments(dbtx db.Tx, t *types.Transaction) error {
	for _, note := range t.ShieldedOutputs {
		existing, err := v.pool.Note(dbtx, note.Commitment)
		if err != nil {
			return err
		}
		if existing != nil {
			return errors.New(errors.ErrCodeDuplicateID, hex.EncodeToString(note.Commitment), "note commitment already exists")
		}
	}
	return nil
}

func (v *Validator) checkProof(t *types.Transaction) error {
	txHash := t.Hash()
	if len(t.Proof) == 0 {
		return errors.New(errors.ErrCodeProofRejected, txHash, "missing proof")
	}
	if !v.verifier.Verify(t.Proof, PublicInputs(t)) {
		return errors.New(errors.ErrCodeProofRejected, txHash, "proof does not verify")
	}
	return nil
}

func requireTransparentAddr(encoded, txHash string) error {
	kind, err := wallet.AddressKindOf(encoded)
	if err != nil {
		return errors.New(errors.ErrCodeNotFound, txHash, err.Error())
	}
	if kind != types.AddrKindTransparent {
		return errors.New(errors.ErrCodeAmountMismatch, txHash, fmt.Sprintf("address %s is not a t-addr", encoded))
	}
	return nil
}
