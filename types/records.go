package types

// Persisted record shapes shared by the store layer and the engine.

// KeyKind distinguishes transparent signing keys from shielded spending keys.
type KeyKind string

const (
	KeyKindTransparent KeyKind = "transparent"
	KeyKindShielded    KeyKind = "shielded"
)

// KeyMaterial is owned by the key-management layer and immutable once stored.
type KeyMaterial struct {
	ID         string  `json:"id"`
	Kind       KeyKind `json:"kind"`
	PrivateKey []byte  `json:"private_key"`
	PublicKey  []byte  `json:"public_key"`
	CreatedAt  int64   `json:"created_at"`
}

// AddressKind mirrors KeyKind at the address level (t-addr / z-addr).
type AddressKind string

const (
	AddrKindTransparent AddressKind = "t-addr"
	AddrKindShielded    AddressKind = "z-addr"
)

type Address struct {
	ID      string      `json:"id"`
	KeyID   string      `json:"key_id"`
	Kind    AddressKind `json:"kind"`
	Encoded string      `json:"encoded"`
}

// Utxo is a transparent output record. SpentBy holds the hash of the spending
// transaction, or "" while unspent; disconnect restores it to "".
type Utxo struct {
	ID      string `json:"id"`
	TxHash  string `json:"tx_hash"`
	Address string `json:"address"`
	Amount  uint64 `json:"amount"`
	SpentBy string `json:"spent_by,omitempty"`
}

func (u *Utxo) Unspent() bool { return u.SpentBy == "" }

// ShieldedNote is a note record as persisted: the in-transaction OutputNote
// plus chain placement and spend tracking. Position is assigned by the
// commitment tree and never reused within a pool's lifetime.
type ShieldedNote struct {
	Commitment   []byte `json:"commitment"`
	EphemeralKey []byte `json:"ephemeral_key"`
	EncAmount    []byte `json:"enc_amount"`
	Memo         []byte `json:"memo,omitempty"`
	Nullifier    []byte `json:"nullifier,omitempty"`
	TxHash       string `json:"tx_hash"`
	Height       uint64 `json:"height"`
	Position     uint64 `json:"position"`
}

func (n *ShieldedNote) Spent() bool { return len(n.Nullifier) > 0 }

// NullifierRecord binds a revealed nullifier to the block and transaction
// that revealed it, so disconnect can strip a block's nullifiers exactly.
type NullifierRecord struct {
	Nullifier []byte `json:"nullifier"`
	Height    uint64 `json:"height"`
	TxHash    string `json:"tx_hash"`
}

// TreeNode is one interior or leaf node of the incremental commitment tree.
// Inactive nodes are retained for deterministic rewind, not deleted.
type TreeNode struct {
	Level    uint64 `json:"level"`
	Position uint64 `json:"position"`
	Hash     []byte `json:"hash"`
	Height   uint64 `json:"height"`
	Active   bool   `json:"active"`
}

// ChainStateEntry is one keyed scalar of the derived chain-state cache.
type ChainStateEntry struct {
	Key       string `json:"key"`
	Value     []byte `json:"value"`
	UpdatedAt int64  `json:"updated_at"`
}

// TxRecord is the persisted form of a connected transaction.
type TxRecord struct {
	TxHash  string `json:"tx_hash"`
	Height  uint64 `json:"height"`
	Kind    TxKind `json:"kind"`
	Raw     []byte `json:"raw"`
	Proof   []byte `json:"proof,omitempty"`
}
