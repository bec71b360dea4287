package shielded

import (
	"bytes"
	"encoding/hex"
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/errors"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/store"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// Pool owns the append-only note commitment tree and the nullifier set. All
// operations run inside the caller's storage transaction; the pool never
// opens its own.
type Pool struct {
	tree       *store.TreeStore
	notes      *store.NoteStore
	nullifiers *store.NullifierStore
}

func NewPool() *Pool {
	return &Pool{
		tree:       store.NewTreeStore(),
		notes:      store.NewNoteStore(),
		nullifiers: store.NewNullifierStore(),
	}
}

// Size returns the pool-lifetime position counter. It only ever grows, even
// across rewinds, so no two notes in the pool's history share a position.
func (p *Pool) Size(tx db.Tx) (uint64, error) {
	return p.tree.MetaUint64(tx, store.PoolMetaKeyNextPosition)
}

// AppendCommitment persists the note, places its commitment at the next
// position and recomputes the node path up to the root. Returns the assigned
// position.
func (p *Pool) AppendCommitment(tx db.Tx, note *types.ShieldedNote, height uint64) (uint64, error) {
	exists, err := p.notes.Has(tx, note.Commitment)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, errors.New(errors.ErrCodeDuplicateID, hex.EncodeToString(note.Commitment), "note commitment already exists")
	}

	position, err := p.tree.MetaUint64(tx, store.PoolMetaKeyNextPosition)
	if err != nil {
		return 0, err
	}

	note.Position = position
	note.Height = height
	if err := p.notes.Put(tx, note); err != nil {
		return 0, err
	}

	if err := p.tree.PutNode(tx, &types.TreeNode{
		Level:    0,
		Position: position,
		Hash:     note.Commitment,
		Height:   height,
		Active:   true,
	}); err != nil {
		return 0, err
	}

	// Hash-combine up to the root, reading the current sibling at each level
	// and falling back to the empty-subtree hash where none exists.
	current := note.Commitment
	currentPos := position
	for level := uint64(0); level < TreeDepth; level++ {
		siblingPos := currentPos ^ 1
		sibling, err := p.tree.GetCurrent(tx, level, siblingPos)
		if err != nil {
			return 0, err
		}
		siblingHash := emptyHashes[level]
		if sibling != nil {
			siblingHash = sibling.Hash
		}

		var parent []byte
		if currentPos%2 == 0 {
			parent = combineHashes(current, siblingHash)
		} else {
			parent = combineHashes(siblingHash, current)
		}

		currentPos /= 2
		if err := p.tree.PutNode(tx, &types.TreeNode{
			Level:    level + 1,
			Position: currentPos,
			Hash:     parent,
			Height:   height,
			Active:   true,
		}); err != nil {
			return 0, err
		}
		current = parent
	}

	if err := p.tree.SetMetaUint64(tx, store.PoolMetaKeyNextPosition, position+1); err != nil {
		return 0, err
	}
	return position, nil
}

// Root returns the current active tree root.
func (p *Pool) Root(tx db.Tx) ([]byte, error) {
	node, err := p.tree.GetCurrent(tx, TreeDepth, 0)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return EmptyRoot(), nil
	}
	return node.Hash, nil
}

// SnapshotRoot records the current root and logical size under the height
// being connected, so RewindTo can later restore them byte for byte.
func (p *Pool) SnapshotRoot(tx db.Tx, height uint64) error {
	size, err := p.Size(tx)
	if err != nil {
		return err
	}
	root, err := p.Root(tx)
	if err != nil {
		return err
	}
	return p.tree.PutRootSnapshot(tx, &store.RootSnapshot{Root: root, Size: size, Height: height})
}

// RewindTo deactivates every tree node version written after priorHeight,
// re-exposing the older versions beneath them, and verifies the restored
// root against the snapshot recorded when priorHeight was connected. The
// position counter is deliberately left untouched.
func (p *Pool) RewindTo(tx db.Tx, priorHeight uint64) error {
	snap, err := p.tree.GetRootSnapshot(tx, priorHeight)
	if err != nil {
		return err
	}
	if snap == nil {
		return errors.New(errors.ErrCodeNotFound, fmt.Sprintf("%d", priorHeight), "no root snapshot for prior height")
	}

	if err := p.tree.DeactivateAbove(tx, snap.Height); err != nil {
		return err
	}

	root, err := p.Root(tx)
	if err != nil {
		return err
	}
	if !bytes.Equal(root, snap.Root) {
		logx.Error("POOL", fmt.Sprintf("Rewound root %x does not match snapshot %x for height %d", root, snap.Root, priorHeight))
		return errors.New(errors.ErrCodeNotFound, fmt.Sprintf("%d", priorHeight), "rewound root does not match recorded snapshot")
	}
	return nil
}

// RewindToEmpty deactivates every tree node version. Used when the block
// being disconnected is the genesis block and there is no prior snapshot.
func (p *Pool) RewindToEmpty(tx db.Tx) error {
	return p.tree.DeactivateAll(tx)
}

// RevealNullifier inserts the nullifier into the set, bound to the revealing
// block and transaction.
func (p *Pool) RevealNullifier(tx db.Tx, nf []byte, height uint64, txHash string) error {
	exists, err := p.nullifiers.Has(tx, nf)
	if err != nil {
		return err
	}
	if exists {
		return errors.New(errors.ErrCodeNullifierReuse, hex.EncodeToString(nf), "nullifier already revealed")
	}
	return p.nullifiers.Put(tx, &types.NullifierRecord{
		Nullifier: nf,
		Height:    height,
		TxHash:    txHash,
	})
}

// UnrevealNullifier removes the nullifier from the set (disconnection path).
func (p *Pool) UnrevealNullifier(tx db.Tx, nf []byte) error {
	exists, err := p.nullifiers.Has(tx, nf)
	if err != nil {
		return err
	}
	if !exists {
		return errors.New(errors.ErrCodeNotFound, hex.EncodeToString(nf), "nullifier is not revealed")
	}
	return p.nullifiers.Delete(tx, nf)
}

// HasNullifier reports whether nf has been revealed on the active chain.
func (p *Pool) HasNullifier(tx db.Tx, nf []byte) (bool, error) {
	return p.nullifiers.Has(tx, nf)
}

// Note returns the note record for a commitment, nil if absent.
func (p *Pool) Note(tx db.Tx, commitment []byte) (*types.ShieldedNote, error) {
	return p.notes.Get(tx, commitment)
}

// MarkNoteSpent records nf as the nullifier of the note with the given
// commitment.
func (p *Pool) MarkNoteSpent(tx db.Tx, commitment, nf []byte) error {
	note, err := p.notes.Get(tx, commitment)
	if err != nil {
		return err
	}
	if note == nil {
		return errors.New(errors.ErrCodeNotFound, hex.EncodeToString(commitment), "note does not exist")
	}
	note.Nullifier = nf
	return p.notes.Put(tx, note)
}

// MarkNoteUnspent clears the note's nullifier marker (disconnection path).
func (p *Pool) MarkNoteUnspent(tx db.Tx, commitment []byte) error {
	note, err := p.notes.Get(tx, commitment)
	if err != nil {
		return err
	}
	if note == nil {
		return errors.New(errors.ErrCodeNotFound, hex.EncodeToString(commitment), "note does not exist")
	}
	note.Nullifier = nil
	return p.notes.Put(tx, note)
}

// RemoveNote deletes a note record entirely (disconnection of the block that
// created it).
func (p *Pool) RemoveNote(tx db.Tx, commitment []byte) error {
	return p.notes.Delete(tx, commitment)
}
