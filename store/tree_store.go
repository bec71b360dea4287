package store

import (
	"encoding/binary"
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// TreeStore persists commitment tree nodes. A node position can carry one
// version per block height; old versions are soft-deleted on rewind, never
// removed, so any prior tree state can be restored without recomputation.
type TreeStore struct{}

func NewTreeStore() *TreeStore { return &TreeStore{} }

func treeNodeKey(level, position, height uint64) []byte {
	key := make([]byte, len(PrefixTreeNode)+24)
	copy(key, PrefixTreeNode)
	binary.BigEndian.PutUint64(key[len(PrefixTreeNode):], level)
	binary.BigEndian.PutUint64(key[len(PrefixTreeNode)+8:], position)
	binary.BigEndian.PutUint64(key[len(PrefixTreeNode)+16:], height)
	return key
}

func treeNodePrefix(level, position uint64) []byte {
	key := make([]byte, len(PrefixTreeNode)+16)
	copy(key, PrefixTreeNode)
	binary.BigEndian.PutUint64(key[len(PrefixTreeNode):], level)
	binary.BigEndian.PutUint64(key[len(PrefixTreeNode)+8:], position)
	return key
}

func (s *TreeStore) PutNode(tx db.Tx, n *types.TreeNode) error {
	raw, err := jsonx.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal tree node (%d,%d): %w", n.Level, n.Position, err)
	}
	return tx.Put(treeNodeKey(n.Level, n.Position, n.Height), raw)
}

// GetCurrent returns the active version of the node at (level, position) with
// the greatest block height, nil if no active version exists.
func (s *TreeStore) GetCurrent(tx db.Tx, level, position uint64) (*types.TreeNode, error) {
	var current *types.TreeNode
	var iterErr error
	err := tx.IteratePrefix(treeNodePrefix(level, position), func(key, value []byte) bool {
		var n types.TreeNode
		if err := jsonx.Unmarshal(value, &n); err != nil {
			iterErr = fmt.Errorf("failed to unmarshal tree node (%d,%d): %w", level, position, err)
			return false
		}
		if n.Active {
			current = &n
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if iterErr != nil {
		return nil, iterErr
	}
	return current, nil
}

// DeactivateAbove soft-deletes every active node version produced by a block
// above the given height.
func (s *TreeStore) DeactivateAbove(tx db.Tx, height uint64) error {
	return s.deactivateWhere(tx, func(n *types.TreeNode) bool { return n.Height > height })
}

func (s *TreeStore) deactivateWhere(tx db.Tx, match func(n *types.TreeNode) bool) error {
	type pending struct {
		key []byte
		n   types.TreeNode
	}
	var updates []pending
	var iterErr error
	err := tx.IteratePrefix([]byte(PrefixTreeNode), func(key, value []byte) bool {
		var n types.TreeNode
		if err := jsonx.Unmarshal(value, &n); err != nil {
			iterErr = fmt.Errorf("failed to unmarshal tree node: %w", err)
			return false
		}
		if n.Active && match(&n) {
			n.Active = false
			updates = append(updates, pending{key: key, n: n})
		}
		return true
	})
	if err != nil {
		return err
	}
	if iterErr != nil {
		return iterErr
	}
	for _, u := range updates {
		raw, err := jsonx.Marshal(&u.n)
		if err != nil {
			return fmt.Errorf("failed to marshal tree node: %w", err)
		}
		if err := tx.Put(u.key, raw); err != nil {
			return err
		}
	}
	return nil
}

// DeactivateAll soft-deletes every active node version (rewind to the empty
// tree).
func (s *TreeStore) DeactivateAll(tx db.Tx) error {
	return s.deactivateWhere(tx, func(n *types.TreeNode) bool { return true })
}

// RootSnapshot records the tree root and logical size that were current when
// a block height was connected, so a rewind restores them byte for byte.
// Keyed by height: a height has exactly one active post-state at a time,
// while the position counter is never rewound and so cannot key states.
type RootSnapshot struct {
	Root   []byte `json:"root"`
	Size   uint64 `json:"size"`
	Height uint64 `json:"height"`
}

func poolRootKey(height uint64) []byte {
	key := make([]byte, len(PrefixPoolRoot)+8)
	copy(key, PrefixPoolRoot)
	binary.BigEndian.PutUint64(key[len(PrefixPoolRoot):], height)
	return key
}

func (s *TreeStore) PutRootSnapshot(tx db.Tx, snap *RootSnapshot) error {
	raw, err := jsonx.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal root snapshot for height %d: %w", snap.Height, err)
	}
	return tx.Put(poolRootKey(snap.Height), raw)
}

func (s *TreeStore) GetRootSnapshot(tx db.Tx, height uint64) (*RootSnapshot, error) {
	value, err := tx.Get(poolRootKey(height))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var snap RootSnapshot
	if err := jsonx.Unmarshal(value, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal root snapshot for height %d: %w", height, err)
	}
	return &snap, nil
}

func poolMetaKey(name string) []byte {
	return []byte(PrefixPoolMeta + name)
}

// MetaUint64 reads a pool-lifetime counter; zero if unset.
func (s *TreeStore) MetaUint64(tx db.Tx, name string) (uint64, error) {
	value, err := tx.Get(poolMetaKey(name))
	if err != nil {
		return 0, err
	}
	if value == nil {
		return 0, nil
	}
	if len(value) != 8 {
		return 0, fmt.Errorf("invalid pool meta %s length: %d", name, len(value))
	}
	return binary.BigEndian.Uint64(value), nil
}

func (s *TreeStore) SetMetaUint64(tx db.Tx, name string, v uint64) error {
	value := make([]byte, 8)
	binary.BigEndian.PutUint64(value, v)
	return tx.Put(poolMetaKey(name), value)
}
