package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
)

// TxKind is the closed set of transaction variants the engine understands.
type TxKind string

const (
	TxDeposit        TxKind = "deposit"
	TxTransparent    TxKind = "transparent"
	TxShield         TxKind = "shield"
	TxShieldToShield TxKind = "shield_to_shield"
	TxDeshield       TxKind = "deshield"
)

// TouchesShieldedPool reports whether transactions of this kind carry a proof
// payload and mutate the note commitment tree or nullifier set.
func (k TxKind) TouchesShieldedPool() bool {
	switch k {
	case TxShield, TxShieldToShield, TxDeshield:
		return true
	}
	return false
}

// TransparentInput references an unspent transparent output by id. PubKey and
// Signature authorize the spend; the signature covers the transaction SigHash.
type TransparentInput struct {
	OutputID  string `json:"output_id"`
	Address   string `json:"address"`
	Amount    uint64 `json:"amount"`
	PubKey    []byte `json:"pub_key,omitempty"`
	Signature []byte `json:"signature,omitempty"`
}

// TransparentOutput creates a new spendable output for Address.
type TransparentOutput struct {
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
}

// OutputNote is a shielded note as it appears inside a transaction: the
// commitment binds value, owner and randomness; the amount is encrypted to
// the receiver with EphemeralKey.
type OutputNote struct {
	Commitment   []byte `json:"commitment"`
	EphemeralKey []byte `json:"ephemeral_key"`
	EncAmount    []byte `json:"enc_amount"`
	Memo         []byte `json:"memo,omitempty"`
}

// Transaction is the closed tagged-variant transaction. ShieldedInputs name
// the commitments being consumed; Nullifiers[i] spends ShieldedInputs[i].
// (A production pool would keep spent notes unlinkable; this sandbox models
// the externally visible note/nullifier contract only.)
type Transaction struct {
	Kind               TxKind              `json:"kind"`
	TransparentInputs  []TransparentInput  `json:"transparent_inputs,omitempty"`
	TransparentOutputs []TransparentOutput `json:"transparent_outputs,omitempty"`
	ShieldedInputs     [][]byte            `json:"shielded_inputs,omitempty"`
	ShieldedOutputs    []OutputNote        `json:"shielded_outputs,omitempty"`
	Nullifiers         [][]byte            `json:"nullifiers,omitempty"`
	Fee                uint64              `json:"fee,omitempty"`
	Proof              []byte              `json:"proof,omitempty"`
	Timestamp          int64               `json:"timestamp"`
}

// Bytes returns the canonical JSON encoding of the transaction.
func (tx *Transaction) Bytes() []byte {
	b, _ := jsonx.Marshal(tx)
	return b
}

// Hash returns the hex-encoded blake2b digest of the full transaction.
func (tx *Transaction) Hash() string {
	sum := blake2b.Sum256(tx.Bytes())
	return hex.EncodeToString(sum[:])
}

// SigHash is the digest transparent input signatures commit to. Signatures
// themselves are excluded so signing does not change the signed body.
func (tx *Transaction) SigHash() []byte {
	stripped := *tx
	stripped.TransparentInputs = make([]TransparentInput, len(tx.TransparentInputs))
	for i, in := range tx.TransparentInputs {
		in.Signature = nil
		stripped.TransparentInputs[i] = in
	}
	sum := blake2b.Sum256(stripped.Bytes())
	return sum[:]
}

// OutputID derives the identifier of the i-th transparent output of the
// transaction with hash txHash. Derivation is deterministic so validators and
// appliers agree without extra bookkeeping.
func OutputID(txHash string, index int) string {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(index))
	h, _ := blake2b.New256(nil)
	h.Write([]byte(txHash))
	h.Write(idx[:])
	return hex.EncodeToString(h.Sum(nil))
}

func ParseTx(data []byte) (*Transaction, error) {
	var tx Transaction
	if err := jsonx.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("failed to parse transaction: %w", err)
	}
	return &tx, nil
}
