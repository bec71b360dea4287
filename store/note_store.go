package store

import (
	"encoding/hex"
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// NoteStore persists shielded note records keyed by commitment.
type NoteStore struct{}

func NewNoteStore() *NoteStore { return &NoteStore{} }

func noteKey(commitment []byte) []byte {
	return []byte(PrefixNote + hex.EncodeToString(commitment))
}

func (s *NoteStore) Put(tx db.Tx, n *types.ShieldedNote) error {
	raw, err := jsonx.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal note %x: %w", n.Commitment, err)
	}
	return tx.Put(noteKey(n.Commitment), raw)
}

func (s *NoteStore) Get(tx db.Tx, commitment []byte) (*types.ShieldedNote, error) {
	value, err := tx.Get(noteKey(commitment))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var n types.ShieldedNote
	if err := jsonx.Unmarshal(value, &n); err != nil {
		return nil, fmt.Errorf("failed to unmarshal note %x: %w", commitment, err)
	}
	return &n, nil
}

func (s *NoteStore) Has(tx db.Tx, commitment []byte) (bool, error) {
	return tx.Has(noteKey(commitment))
}

func (s *NoteStore) Delete(tx db.Tx, commitment []byte) error {
	return tx.Delete(noteKey(commitment))
}
