package types

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
)

// BlockStatus marks whether a block is part of the active chain or fork
// residue left behind by a reorganization.
type BlockStatus string

const (
	BlockStatusActive   BlockStatus = "active"
	BlockStatusOrphaned BlockStatus = "orphaned"
)

// GenesisParentHash is the parent hash sentinel carried by the genesis block.
var GenesisParentHash = hex.EncodeToString(make([]byte, 32))

type Block struct {
	Height       uint64         `json:"height"`
	Hash         string         `json:"hash"`
	ParentHash   string         `json:"parent_hash"`
	Timestamp    int64          `json:"timestamp"`
	TreeRoot     []byte         `json:"tree_root"`
	Status       BlockStatus    `json:"status"`
	Transactions []*Transaction `json:"transactions"`
}

// ComputeHash hashes the header fields. TreeRoot is excluded: it is only
// known after the block's commitments have been applied, while the hash must
// be stable from proposal onward.
func (b *Block) ComputeHash() string {
	h, _ := blake2b.New256(nil)
	var height [8]byte
	for i := 0; i < 8; i++ {
		height[7-i] = byte(b.Height >> (8 * i))
	}
	h.Write(height[:])
	h.Write([]byte(b.ParentHash))
	var ts [8]byte
	for i := 0; i < 8; i++ {
		ts[7-i] = byte(uint64(b.Timestamp) >> (8 * i))
	}
	h.Write(ts[:])
	h.Write(b.txMerkleRoot())
	return hex.EncodeToString(h.Sum(nil))
}

// txMerkleRoot folds the transaction hashes pairwise into a single digest,
// duplicating the last hash on odd levels.
func (b *Block) txMerkleRoot() []byte {
	if len(b.Transactions) == 0 {
		return make([]byte, 32)
	}
	hashes := make([][]byte, 0, len(b.Transactions))
	for _, tx := range b.Transactions {
		raw, _ := hex.DecodeString(tx.Hash())
		hashes = append(hashes, raw)
	}
	for len(hashes) > 1 {
		next := make([][]byte, 0, (len(hashes)+1)/2)
		for i := 0; i < len(hashes); i += 2 {
			h, _ := blake2b.New256(nil)
			h.Write(hashes[i])
			if i+1 < len(hashes) {
				h.Write(hashes[i+1])
			} else {
				h.Write(hashes[i])
			}
			next = append(next, h.Sum(nil))
		}
		hashes = next
	}
	return hashes[0]
}

// Nullifiers collects every nullifier revealed by the block's transactions,
// in declared order. These enter the nullifier set on connect.
func (b *Block) Nullifiers() [][]byte {
	var nfs [][]byte
	for _, tx := range b.Transactions {
		nfs = append(nfs, tx.Nullifiers...)
	}
	return nfs
}

// Commitments collects every note commitment created by the block's
// transactions, in declared order. These are appended to the commitment tree
// on connect.
func (b *Block) Commitments() [][]byte {
	var cms [][]byte
	for _, tx := range b.Transactions {
		for _, note := range tx.ShieldedOutputs {
			cms = append(cms, note.Commitment)
		}
	}
	return cms
}

func (b *Block) Bytes() []byte {
	raw, _ := jsonx.Marshal(b)
	return raw
}

func ParseBlock(data []byte) (*Block, error) {
	var b Block
	if err := jsonx.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
