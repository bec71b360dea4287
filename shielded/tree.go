package shielded

import (
	"golang.org/x/crypto/blake2b"
)

// TreeDepth is the fixed depth of the commitment tree. 2^32 leaves exceeds
// any note count this engine will see.
const TreeDepth = 32

// emptyHashes[l] is the hash of an empty subtree of height l. emptyHashes[0]
// is the empty leaf.
var emptyHashes = buildEmptyHashes()

func buildEmptyHashes() [TreeDepth + 1][]byte {
	var out [TreeDepth + 1][]byte
	out[0] = make([]byte, 32)
	for l := 1; l <= TreeDepth; l++ {
		out[l] = combineHashes(out[l-1], out[l-1])
	}
	return out
}

// combineHashes derives a parent hash from its ordered children. Ordering is
// fixed by position parity at the call site; the function itself must stay a
// pure function of its inputs or rewound roots stop matching.
func combineHashes(left, right []byte) []byte {
	h, _ := blake2b.New256(nil)
	h.Write([]byte("merkle-node"))
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// EmptyRoot is the root of a commitment tree with no leaves.
func EmptyRoot() []byte {
	out := make([]byte, 32)
	copy(out, emptyHashes[TreeDepth])
	return out
}
