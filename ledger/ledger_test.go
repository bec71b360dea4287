package ledger

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/events"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
	"github.com/LayerTwo-Labs/orchard-sandbox/wallet"
	"github.com/LayerTwo-Labs/orchard-sandbox/zkverify"
)

type harness struct {
	ledger   *Ledger
	wallet   *wallet.Wallet
	verifier *zkverify.StaticVerifier
	bus      *events.EventBus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	provider, err := db.NewBoltProvider(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { provider.Close() })

	verifier := zkverify.NewStaticVerifier()
	bus := events.NewEventBus()
	return &harness{
		ledger:   NewLedger(provider, verifier, 0, bus),
		wallet:   wallet.NewWallet(provider),
		verifier: verifier,
		bus:      bus,
	}
}

func (h *harness) taddr(t *testing.T) (*types.KeyMaterial, string) {
	t.Helper()
	km, err := h.wallet.GenerateKey(types.KeyKindTransparent)
	require.NoError(t, err)
	addr, err := h.wallet.DeriveAddress(km.ID, types.AddrKindTransparent)
	require.NoError(t, err)
	return km, addr.Encoded
}

func (h *harness) zaddr(t *testing.T) (*types.KeyMaterial, string) {
	t.Helper()
	km, err := h.wallet.GenerateKey(types.KeyKindShielded)
	require.NoError(t, err)
	addr, err := h.wallet.DeriveAddress(km.ID, types.AddrKindShielded)
	require.NoError(t, err)
	return km, addr.Encoded
}

func (h *harness) connect(t *testing.T, txs ...*types.Transaction) *types.Block {
	t.Helper()
	b, err := h.ledger.Propose(txs)
	require.NoError(t, err)
	require.NoError(t, h.ledger.Connect(b))
	return b
}

func (h *harness) balance(t *testing.T, addr string) uint64 {
	t.Helper()
	balance, err := h.ledger.BalanceOf(addr)
	require.NoError(t, err)
	return balance.Uint64()
}

func depositTx(addr string, amount uint64) *types.Transaction {
	return &types.Transaction{
		Kind:               types.TxDeposit,
		TransparentOutputs: []types.TransparentOutput{{Address: addr, Amount: amount}},
		Timestamp:          time.Now().UnixNano(),
	}
}

func TestConnectGenesisAndTip(t *testing.T) {
	h := newHarness(t)
	_, addr := h.taddr(t)

	tip, err := h.ledger.Tip()
	require.NoError(t, err)
	assert.Nil(t, tip)

	b := h.connect(t, depositTx(addr, 100))
	assert.Equal(t, uint64(0), b.Height)
	assert.Equal(t, types.GenesisParentHash, b.ParentHash)
	assert.Equal(t, types.BlockStatusActive, b.Status)

	tip, err = h.ledger.Tip()
	require.NoError(t, err)
	require.NotNil(t, tip)
	assert.Equal(t, b.Hash, tip.Hash)
	assert.Equal(t, uint64(100), h.balance(t, addr))
}

func TestConnectRejectsDiscontinuity(t *testing.T) {
	h := newHarness(t)
	_, addr := h.taddr(t)
	tip := h.connect(t, depositTx(addr, 100))

	// Wrong height.
	skipped := &types.Block{
		Height:       5,
		ParentHash:   tip.Hash,
		Timestamp:    time.Now().UnixNano(),
		Transactions: nil,
	}
	skipped.Hash = skipped.ComputeHash()
	err := h.ledger.Connect(skipped)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDiscontinuity))

	// Wrong parent hash.
	wrongParent := &types.Block{
		Height:       1,
		ParentHash:   types.GenesisParentHash,
		Timestamp:    time.Now().UnixNano(),
		Transactions: nil,
	}
	wrongParent.Hash = wrongParent.ComputeHash()
	err = h.ledger.Connect(wrongParent)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDiscontinuity))

	// Height already occupied by an active block.
	duplicate := &types.Block{
		Height:       0,
		ParentHash:   types.GenesisParentHash,
		Timestamp:    time.Now().UnixNano(),
		Transactions: nil,
	}
	duplicate.Hash = duplicate.ComputeHash()
	err = h.ledger.Connect(duplicate)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDuplicateHeight))
}

func TestBlockAtHeight(t *testing.T) {
	h := newHarness(t)
	_, addr := h.taddr(t)
	genesis := h.connect(t, depositTx(addr, 100))
	second := h.connect(t, depositTx(addr, 50))

	b, err := h.ledger.BlockAtHeight(0)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, genesis.Hash, b.Hash)

	b, err = h.ledger.BlockAtHeight(1)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, second.Hash, b.Hash)

	b, err = h.ledger.BlockAtHeight(2)
	require.NoError(t, err)
	assert.Nil(t, b)

	// A disconnected height no longer resolves on the active chain.
	require.NoError(t, h.ledger.Disconnect(1))
	b, err = h.ledger.BlockAtHeight(1)
	require.NoError(t, err)
	assert.Nil(t, b)
}

func TestConnectRejectsWrappedOutputSum(t *testing.T) {
	h := newHarness(t)
	km, from := h.taddr(t)
	_, to := h.taddr(t)
	fundBlock := h.connect(t, depositTx(from, 100))

	// Outputs summing to the input total modulo 2^64 must not mint value.
	tx := &types.Transaction{
		Kind:              types.TxTransparent,
		TransparentInputs: []types.TransparentInput{{OutputID: types.OutputID(fundBlock.Transactions[0].Hash(), 0), Address: from, Amount: 100}},
		TransparentOutputs: []types.TransparentOutput{
			{Address: to, Amount: 1 << 63},
			{Address: to, Amount: 1<<63 + 100},
		},
		Timestamp: time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(tx, km))

	b, err := h.ledger.Propose([]*types.Transaction{tx})
	require.NoError(t, err)
	err = h.ledger.Connect(b)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeAmountMismatch))

	assert.Equal(t, uint64(100), h.balance(t, from))
	assert.Equal(t, uint64(0), h.balance(t, to))
}

func TestFullShieldingScenario(t *testing.T) {
	h := newHarness(t)
	kmA, addrA := h.taddr(t)
	kmB, addrB := h.taddr(t)
	kmX, addrX := h.zaddr(t)
	kmY, addrY := h.zaddr(t)

	emptyRoot, err := h.ledger.PoolRoot()
	require.NoError(t, err)

	// Deposit 100 to A.
	deposit := depositTx(addrA, 100)
	h.connect(t, deposit)
	assert.Equal(t, uint64(100), h.balance(t, addrA))

	// Transfer 100 from A to B.
	transfer := &types.Transaction{
		Kind:               types.TxTransparent,
		TransparentInputs:  []types.TransparentInput{{OutputID: types.OutputID(deposit.Hash(), 0), Address: addrA, Amount: 100}},
		TransparentOutputs: []types.TransparentOutput{{Address: addrB, Amount: 100}},
		Timestamp:          time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(transfer, kmA))
	h.connect(t, transfer)
	assert.Equal(t, uint64(0), h.balance(t, addrA))
	assert.Equal(t, uint64(100), h.balance(t, addrB))

	// Shield 100 from B into a note for X.
	noteX, _, err := wallet.NewNote(addrX, 100, nil)
	require.NoError(t, err)
	shield := &types.Transaction{
		Kind:              types.TxShield,
		TransparentInputs: []types.TransparentInput{{OutputID: types.OutputID(transfer.Hash(), 0), Address: addrB, Amount: 100}},
		ShieldedOutputs:   []types.OutputNote{*noteX},
		Proof:             []byte{0x01},
		Timestamp:         time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(shield, kmB))
	shieldBlock := h.connect(t, shield)
	assert.Equal(t, uint64(0), h.balance(t, addrB))
	assert.NotEqual(t, emptyRoot, shieldBlock.TreeRoot)

	// Move X's note inside the pool to a note for Y.
	noteY, _, err := wallet.NewNote(addrY, 100, nil)
	require.NoError(t, err)
	nfX := wallet.Nullifier(kmX.PrivateKey, noteX.Commitment)
	move := &types.Transaction{
		Kind:            types.TxShieldToShield,
		ShieldedInputs:  [][]byte{noteX.Commitment},
		Nullifiers:      [][]byte{nfX},
		ShieldedOutputs: []types.OutputNote{*noteY},
		Proof:           []byte{0x01},
		Timestamp:       time.Now().UnixNano(),
	}
	moveBlock := h.connect(t, move)
	assert.NotEqual(t, shieldBlock.TreeRoot, moveBlock.TreeRoot)
	assert.Equal(t, uint64(0), h.balance(t, addrA))
	assert.Equal(t, uint64(0), h.balance(t, addrB))

	// Deshield 100 from Y back to A.
	nfY := wallet.Nullifier(kmY.PrivateKey, noteY.Commitment)
	deshield := &types.Transaction{
		Kind:               types.TxDeshield,
		ShieldedInputs:     [][]byte{noteY.Commitment},
		Nullifiers:         [][]byte{nfY},
		TransparentOutputs: []types.TransparentOutput{{Address: addrA, Amount: 100}},
		Proof:              []byte{0x01},
		Timestamp:          time.Now().UnixNano(),
	}
	h.connect(t, deshield)

	// Final state per the walkthrough.
	assert.Equal(t, uint64(100), h.balance(t, addrA))
	assert.Equal(t, uint64(0), h.balance(t, addrB))

	for _, nf := range [][]byte{nfX, nfY} {
		revealed, err := h.ledger.HasNullifier(nf)
		require.NoError(t, err)
		assert.True(t, revealed)
	}

	size, err := h.ledger.PoolSize()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), size)

	spent, err := h.ledger.Note(noteX.Commitment)
	require.NoError(t, err)
	require.NotNil(t, spent)
	assert.True(t, spent.Spent())
	unspent, err := h.ledger.Note(noteY.Commitment)
	require.NoError(t, err)
	require.NotNil(t, unspent)
	assert.True(t, unspent.Spent()) // spent by the deshield

	rec, err := h.ledger.Transaction(move.Hash())
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, types.TxShieldToShield, rec.Kind)
}

func TestDisconnectRestoresShieldToShield(t *testing.T) {
	h := newHarness(t)
	kmA, addrA := h.taddr(t)
	kmX, addrX := h.zaddr(t)
	_, addrY := h.zaddr(t)

	deposit := depositTx(addrA, 100)
	h.connect(t, deposit)

	noteX, _, err := wallet.NewNote(addrX, 100, nil)
	require.NoError(t, err)
	shield := &types.Transaction{
		Kind:              types.TxShield,
		TransparentInputs: []types.TransparentInput{{OutputID: types.OutputID(deposit.Hash(), 0), Address: addrA, Amount: 100}},
		ShieldedOutputs:   []types.OutputNote{*noteX},
		Proof:             []byte{0x01},
		Timestamp:         time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(shield, kmA))
	shieldBlock := h.connect(t, shield)

	noteY, _, err := wallet.NewNote(addrY, 100, nil)
	require.NoError(t, err)
	nfX := wallet.Nullifier(kmX.PrivateKey, noteX.Commitment)
	move := &types.Transaction{
		Kind:            types.TxShieldToShield,
		ShieldedInputs:  [][]byte{noteX.Commitment},
		Nullifiers:      [][]byte{nfX},
		ShieldedOutputs: []types.OutputNote{*noteY},
		Proof:           []byte{0x01},
		Timestamp:       time.Now().UnixNano(),
	}
	moveBlock := h.connect(t, move)

	require.NoError(t, h.ledger.Disconnect(moveBlock.Height))

	// X's note is unspent again, Y's note is gone, the root is restored.
	noteXRec, err := h.ledger.Note(noteX.Commitment)
	require.NoError(t, err)
	require.NotNil(t, noteXRec)
	assert.False(t, noteXRec.Spent())

	noteYRec, err := h.ledger.Note(noteY.Commitment)
	require.NoError(t, err)
	assert.Nil(t, noteYRec)

	revealed, err := h.ledger.HasNullifier(nfX)
	require.NoError(t, err)
	assert.False(t, revealed)

	root, err := h.ledger.PoolRoot()
	require.NoError(t, err)
	assert.Equal(t, shieldBlock.TreeRoot, root)

	// Earlier transparent-side state is untouched.
	assert.Equal(t, uint64(0), h.balance(t, addrA))
	tip, err := h.ledger.Tip()
	require.NoError(t, err)
	require.NotNil(t, tip)
	assert.Equal(t, shieldBlock.Hash, tip.Hash)

	// The disconnected block stays on record as orphaned.
	orphan, err := h.ledger.Block(moveBlock.Hash)
	require.NoError(t, err)
	require.NotNil(t, orphan)
	assert.Equal(t, types.BlockStatusOrphaned, orphan.Status)

	rec, err := h.ledger.Transaction(move.Hash())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestConnectDisconnectRoundTrip(t *testing.T) {
	h := newHarness(t)
	kmA, addrA := h.taddr(t)
	_, addrB := h.taddr(t)

	deposit := depositTx(addrA, 100)
	h.connect(t, deposit)
	sizeBefore, err := h.ledger.PoolSize()
	require.NoError(t, err)
	rootBefore, err := h.ledger.PoolRoot()
	require.NoError(t, err)

	transfer := &types.Transaction{
		Kind:               types.TxTransparent,
		TransparentInputs:  []types.TransparentInput{{OutputID: types.OutputID(deposit.Hash(), 0), Address: addrA, Amount: 100}},
		TransparentOutputs: []types.TransparentOutput{{Address: addrB, Amount: 100}},
		Timestamp:          time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(transfer, kmA))
	b := h.connect(t, transfer)

	require.NoError(t, h.ledger.Disconnect(b.Height))

	assert.Equal(t, uint64(100), h.balance(t, addrA))
	assert.Equal(t, uint64(0), h.balance(t, addrB))

	// The created output is removed, the spent one restored.
	created, err := h.ledger.Output(types.OutputID(transfer.Hash(), 0))
	require.NoError(t, err)
	assert.Nil(t, created)
	restored, err := h.ledger.Output(types.OutputID(deposit.Hash(), 0))
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.True(t, restored.Unspent())

	rootAfter, err := h.ledger.PoolRoot()
	require.NoError(t, err)
	assert.Equal(t, rootBefore, rootAfter)
	sizeAfter, err := h.ledger.PoolSize()
	require.NoError(t, err)
	assert.Equal(t, sizeBefore, sizeAfter)

	// The same block reconnects cleanly.
	require.NoError(t, h.ledger.Connect(b))
	assert.Equal(t, uint64(100), h.balance(t, addrB))
}

func TestValidateRejectsNullifierReuseBlock(t *testing.T) {
	h := newHarness(t)
	kmA, addrA := h.taddr(t)
	kmX, addrX := h.zaddr(t)
	_, addrY := h.zaddr(t)

	deposit := depositTx(addrA, 100)
	h.connect(t, deposit)

	noteX, _, err := wallet.NewNote(addrX, 100, nil)
	require.NoError(t, err)
	shield := &types.Transaction{
		Kind:              types.TxShield,
		TransparentInputs: []types.TransparentInput{{OutputID: types.OutputID(deposit.Hash(), 0), Address: addrA, Amount: 100}},
		ShieldedOutputs:   []types.OutputNote{*noteX},
		Proof:             []byte{0x01},
		Timestamp:         time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(shield, kmA))
	h.connect(t, shield)

	nfX := wallet.Nullifier(kmX.PrivateKey, noteX.Commitment)
	noteY, _, err := wallet.NewNote(addrY, 100, nil)
	require.NoError(t, err)
	move := &types.Transaction{
		Kind:            types.TxShieldToShield,
		ShieldedInputs:  [][]byte{noteX.Commitment},
		Nullifiers:      [][]byte{nfX},
		ShieldedOutputs: []types.OutputNote{*noteY},
		Proof:           []byte{0x01},
		Timestamp:       time.Now().UnixNano(),
	}
	h.connect(t, move)

	// A candidate revealing nfX again must fail validation and never land.
	noteZ, _, err := wallet.NewNote(addrY, 100, nil)
	require.NoError(t, err)
	reuse := &types.Transaction{
		Kind:            types.TxShieldToShield,
		ShieldedInputs:  [][]byte{noteX.Commitment},
		Nullifiers:      [][]byte{nfX},
		ShieldedOutputs: []types.OutputNote{*noteZ},
		Proof:           []byte{0x01},
		Timestamp:       time.Now().UnixNano(),
	}
	candidate, err := h.ledger.Propose([]*types.Transaction{reuse})
	require.NoError(t, err)

	err = h.ledger.Validate(candidate)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNullifierReuse))

	err = h.ledger.Connect(candidate)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNullifierReuse))

	// The rejected candidate never entered the chain.
	rejected, err := h.ledger.Block(candidate.Hash)
	require.NoError(t, err)
	assert.Nil(t, rejected)
	tip, err := h.ledger.Tip()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), tip.Height)
}

func TestConnectRejectsInBlockConflicts(t *testing.T) {
	h := newHarness(t)
	kmA, addrA := h.taddr(t)
	_, addrB := h.taddr(t)

	deposit := depositTx(addrA, 100)
	h.connect(t, deposit)

	// Two transactions spending the same output in one block.
	spend1 := &types.Transaction{
		Kind:               types.TxTransparent,
		TransparentInputs:  []types.TransparentInput{{OutputID: types.OutputID(deposit.Hash(), 0), Address: addrA, Amount: 100}},
		TransparentOutputs: []types.TransparentOutput{{Address: addrB, Amount: 100}},
		Timestamp:          time.Now().UnixNano(),
	}
	require.NoError(t, wallet.SignInputs(spend1, kmA))
	spend2 := &types.Transaction{
		Kind:               types.TxTransparent,
		TransparentInputs:  []types.TransparentInput{{OutputID: types.OutputID(deposit.Hash(), 0), Address: addrA, Amount: 100}},
		TransparentOutputs: []types.TransparentOutput{{Address: addrA, Amount: 100}},
		Timestamp:          time.Now().UnixNano() + 1,
	}
	require.NoError(t, wallet.SignInputs(spend2, kmA))

	candidate, err := h.ledger.Propose([]*types.Transaction{spend1, spend2})
	require.NoError(t, err)
	err = h.ledger.Connect(candidate)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDoubleSpend))

	// Rejection left no partial effects behind.
	assert.Equal(t, uint64(100), h.balance(t, addrA))
	assert.Equal(t, uint64(0), h.balance(t, addrB))
}

func TestDisconnectRequiresTip(t *testing.T) {
	h := newHarness(t)
	_, addrA := h.taddr(t)

	err := h.ledger.Disconnect(0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotTip))

	h.connect(t, depositTx(addrA, 10))
	h.connect(t, depositTx(addrA, 20))

	err = h.ledger.Disconnect(0)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeNotTip))

	require.NoError(t, h.ledger.Disconnect(1))
	require.NoError(t, h.ledger.Disconnect(0))

	tip, err := h.ledger.Tip()
	require.NoError(t, err)
	assert.Nil(t, tip)
	assert.Equal(t, uint64(0), h.balance(t, addrA))
}

func TestConnectPublishesEvents(t *testing.T) {
	h := newHarness(t)
	_, addrA := h.taddr(t)

	_, ch := h.bus.Subscribe()
	b := h.connect(t, depositTx(addrA, 10))

	deadline := time.After(time.Second)
	var got []events.LedgerEvent
	for len(got) < 2 {
		select {
		case ev := <-ch:
			got = append(got, ev)
		case <-deadline:
			t.Fatalf("timed out after %d events", len(got))
		}
	}
	assert.Equal(t, events.EventBlockConnected, got[0].Type())
	assert.Equal(t, b.Hash, got[0].BlockHash())
	assert.Equal(t, events.EventTransactionApplied, got[1].Type())
}
