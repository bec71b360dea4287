package wallet

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// NoteSecrets is what the note creator keeps: the randomness that, together
// with the receiver's spending key, lets the receiver later derive the
// nullifier.
type NoteSecrets struct {
	Rseed  []byte
	Amount uint64
}

// NewNote builds a shielded output note for the encoded z-addr. The
// commitment binds value, receiver and fresh randomness; the amount travels
// encrypted under the ephemeral key.
func NewNote(zaddr string, amount uint64, memo []byte) (*types.OutputNote, *NoteSecrets, error) {
	kind, err := AddressKindOf(zaddr)
	if err != nil {
		return nil, nil, err
	}
	if kind != types.AddrKindShielded {
		return nil, nil, fmt.Errorf("note receiver %s is not a z-addr", zaddr)
	}

	rseed := make([]byte, 32)
	if _, err := rand.Read(rseed); err != nil {
		return nil, nil, fmt.Errorf("failed to sample note randomness: %w", err)
	}
	epk := make([]byte, 32)
	if _, err := rand.Read(epk); err != nil {
		return nil, nil, fmt.Errorf("failed to sample ephemeral key: %w", err)
	}

	note := &types.OutputNote{
		Commitment:   Commitment(amount, zaddr, rseed),
		EphemeralKey: epk,
		EncAmount:    encryptAmount(amount, epk, rseed),
		Memo:         memo,
	}
	return note, &NoteSecrets{Rseed: rseed, Amount: amount}, nil
}

// Commitment computes the note commitment: a binding of value, receiver and
// randomness. It must be a pure function of its inputs.
func Commitment(amount uint64, zaddr string, rseed []byte) []byte {
	h, _ := blake2b.New256(nil)
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], amount)
	h.Write([]byte("note-commitment"))
	h.Write(value[:])
	h.Write([]byte(zaddr))
	h.Write(rseed)
	return h.Sum(nil)
}

// Nullifier derives the nullifier for a note from the receiver's spending
// key and the note commitment. Revealing it proves the note was spent
// without pointing at which one (within this sandbox, linkability is broken
// only by the key being secret).
func Nullifier(spendKey, commitment []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte("nullifier"))
	h.Write(spendKey)
	h.Write(commitment)
	return h.Sum(nil)
}

// encryptAmount hides the value with a keystream bound to the ephemeral key
// and note randomness. Enough for an engine sandbox; a real pool would use
// note encryption as specified by the protocol.
func encryptAmount(amount uint64, epk, rseed []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte("amount-key"))
	h.Write(epk)
	h.Write(rseed)
	stream := h.Sum(nil)
	var value [8]byte
	binary.BigEndian.PutUint64(value[:], amount)
	out := make([]byte, 8)
	for i := range value {
		out[i] = value[i] ^ stream[i]
	}
	return out
}
