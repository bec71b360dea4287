package zkverify

import (
	"bytes"
	"sync"
)

// StaticVerifier is a controllable oracle for tests and local runs: it
// accepts any non-empty proof by default and can be told to reject specific
// proofs or everything.
type StaticVerifier struct {
	mu        sync.Mutex
	rejectAll bool
	rejected  [][]byte
}

func NewStaticVerifier() *StaticVerifier {
	return &StaticVerifier{}
}

// RejectAll makes every subsequent Verify call fail.
func (v *StaticVerifier) RejectAll(reject bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rejectAll = reject
}

// Reject marks one specific proof payload as invalid.
func (v *StaticVerifier) Reject(proof []byte) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.rejected = append(v.rejected, append([]byte(nil), proof...))
}

func (v *StaticVerifier) Verify(proof []byte, publicInputs [][]byte) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.rejectAll || len(proof) == 0 {
		return false
	}
	for _, r := range v.rejected {
		if bytes.Equal(r, proof) {
			return false
		}
	}
	return true
}
