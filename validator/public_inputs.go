package validator

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/blake2b"

	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// PublicInputs builds the ordered public input list the proof oracle checks
// a shielded transaction's proof against: the net value commitment, then the
// revealed nullifiers, then the created note commitments, in declared order.
// Prover and verifier must agree on this layout exactly.
func PublicInputs(t *types.Transaction) [][]byte {
	inputs := [][]byte{ValueCommitment(t)}
	for _, nf := range t.Nullifiers {
		inputs = append(inputs, nf)
	}
	for _, note := range t.ShieldedOutputs {
		inputs = append(inputs, note.Commitment)
	}
	return inputs
}

// ValueCommitment binds the transparent value flowing across the pool
// boundary. Shield commits to value entering (inputs minus fee), deshield to
// value leaving (outputs plus fee), shield-to-shield to zero. The net value
// is summed and committed as a 256-bit integer so amount sets differing by a
// multiple of 2^64 produce distinct commitments.
func ValueCommitment(t *types.Transaction) []byte {
	net := uint256.NewInt(0)
	switch t.Kind {
	case types.TxShield:
		for _, in := range t.TransparentInputs {
			net.Add(net, uint256.NewInt(in.Amount))
		}
		net.Sub(net, uint256.NewInt(t.Fee))
	case types.TxDeshield:
		for _, out := range t.TransparentOutputs {
			net.Add(net, uint256.NewInt(out.Amount))
		}
		net.Add(net, uint256.NewInt(t.Fee))
	}

	h, _ := blake2b.New256(nil)
	h.Write([]byte("value-commitment"))
	h.Write([]byte(t.Kind))
	value := net.Bytes32()
	h.Write(value[:])
	return h.Sum(nil)
}
