package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeHashDeterministic(t *testing.T) {
	tx := &Transaction{
		Kind:               TxDeposit,
		TransparentOutputs: []TransparentOutput{{Address: "aa", Amount: 100}},
		Timestamp:          42,
	}
	b := &Block{
		Height:       1,
		ParentHash:   GenesisParentHash,
		Timestamp:    1000,
		Transactions: []*Transaction{tx},
	}

	h1 := b.ComputeHash()
	h2 := b.ComputeHash()
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	// TreeRoot and Status are only known after connect and must not move the hash.
	b.TreeRoot = []byte{0x01, 0x02}
	b.Status = BlockStatusOrphaned
	assert.Equal(t, h1, b.ComputeHash())

	b.Height = 2
	assert.NotEqual(t, h1, b.ComputeHash())
}

func TestBlockCollectors(t *testing.T) {
	nf1 := []byte{0x01}
	nf2 := []byte{0x02}
	cm1 := []byte{0x0a}
	cm2 := []byte{0x0b}
	b := &Block{
		Transactions: []*Transaction{
			{
				Kind:            TxShield,
				ShieldedOutputs: []OutputNote{{Commitment: cm1}},
			},
			{
				Kind:            TxShieldToShield,
				Nullifiers:      [][]byte{nf1, nf2},
				ShieldedInputs:  [][]byte{{0xf1}, {0xf2}},
				ShieldedOutputs: []OutputNote{{Commitment: cm2}},
			},
		},
	}

	assert.Equal(t, [][]byte{nf1, nf2}, b.Nullifiers())
	assert.Equal(t, [][]byte{cm1, cm2}, b.Commitments())

	empty := &Block{}
	assert.Empty(t, empty.Nullifiers())
	assert.Empty(t, empty.Commitments())
}

func TestSigHashExcludesSignatures(t *testing.T) {
	tx := &Transaction{
		Kind: TxTransparent,
		TransparentInputs: []TransparentInput{
			{OutputID: "out1", Address: "aa", Amount: 50},
		},
		TransparentOutputs: []TransparentOutput{{Address: "bb", Amount: 50}},
		Timestamp:          7,
	}
	before := tx.SigHash()

	tx.TransparentInputs[0].Signature = []byte{0xde, 0xad}
	assert.Equal(t, before, tx.SigHash())

	// The full hash does see the signature.
	unsigned := &Transaction{
		Kind: TxTransparent,
		TransparentInputs: []TransparentInput{
			{OutputID: "out1", Address: "aa", Amount: 50},
		},
		TransparentOutputs: []TransparentOutput{{Address: "bb", Amount: 50}},
		Timestamp:          7,
	}
	assert.NotEqual(t, unsigned.Hash(), tx.Hash())

	// Changing the signed body moves the sighash.
	tx.TransparentOutputs[0].Amount = 51
	assert.NotEqual(t, before, tx.SigHash())
}

func TestOutputIDDistinctPerIndex(t *testing.T) {
	txHash := "abc123"
	id0 := OutputID(txHash, 0)
	id1 := OutputID(txHash, 1)
	assert.NotEqual(t, id0, id1)
	assert.Equal(t, id0, OutputID(txHash, 0))
}

func TestParseBlockRoundTrip(t *testing.T) {
	b := &Block{
		Height:     3,
		Hash:       "deadbeef",
		ParentHash: "cafe",
		Status:     BlockStatusActive,
		Transactions: []*Transaction{
			{Kind: TxDeposit, TransparentOutputs: []TransparentOutput{{Address: "aa", Amount: 9}}},
		},
	}
	parsed, err := ParseBlock(b.Bytes())
	require.NoError(t, err)
	assert.Equal(t, b.Height, parsed.Height)
	assert.Equal(t, b.Hash, parsed.Hash)
	require.Len(t, parsed.Transactions, 1)
	assert.Equal(t, TxDeposit, parsed.Transactions[0].Kind)
}
