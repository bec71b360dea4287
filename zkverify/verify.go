package zkverify

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"sync"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/LayerTwo-Labs/orchard-sandbox/exception"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

const (
	CACHE_EXPIRY_DURATION = 30 * time.Minute
	CLEANER_INTERVAL      = 10 * time.Minute
)

// Verifier is the proof oracle the transaction validator consults for every
// shielded transaction: proof bytes plus an ordered public input list in,
// accept or reject out.
type Verifier interface {
	Verify(proof []byte, publicInputs [][]byte) bool
}

type CacheEntry struct {
	value    bool
	expireAt time.Time
}

// ZkVerify verifies groth16/BN254 proofs against a verifying key loaded at
// startup. Each public input byte string is reduced into the BN254 scalar
// field in list order and must match the witness the proof was produced for.
type ZkVerify struct {
	vk    groth16.VerifyingKey
	cache sync.Map // map[string]CacheEntry
}

func NewZkVerify(keyPath string) *ZkVerify {
	vkB64, err := os.ReadFile(keyPath)
	if err != nil {
		logx.Error("ZkVerify", fmt.Sprintf("Failed to read zk verifying key: %v", err))
		return nil
	}
	vkBytes, err := base64.StdEncoding.DecodeString(string(vkB64))
	if err != nil {
		logx.Error("ZkVerify", fmt.Sprintf("Failed to decode zk verifying key: %v", err))
		return nil
	}
	vk := groth16.NewVerifyingKey(ecc.BN254)
	if _, err := vk.ReadFrom(bytes.NewReader(vkBytes)); err != nil {
		logx.Error("ZkVerify", fmt.Sprintf("Failed to read set verifying key: %v", err))
		return nil
	}

	zv := &ZkVerify{vk: vk}
	exception.SafeGo("zkverify-cache-cleaner", zv.cleaner)
	return zv
}

func (v *ZkVerify) cleaner() {
	for {
		time.Sleep(CLEANER_INTERVAL)
		now := time.Now()
		v.cache.Range(func(key, value interface{}) bool {
			entry := value.(CacheEntry)
			if now.After(entry.expireAt) {
				v.cache.Delete(key)
			}
			return true
		})
	}
}

func makeCacheKey(proof []byte, publicInputs [][]byte) string {
	h := sha256.New()
	h.Write(proof)
	for _, input := range publicInputs {
		h.Write(input)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (v *ZkVerify) Verify(proof []byte, publicInputs [][]byte) bool {
	cacheKey := makeCacheKey(proof, publicInputs)

	if val, ok := v.cache.Load(cacheKey); ok {
		entry := val.(CacheEntry)
		if time.Now().Before(entry.expireAt) {
			return entry.value
		}
		v.cache.Delete(cacheKey)
	}

	result := v.verifyInternal(proof, publicInputs)

	v.cache.Store(cacheKey, CacheEntry{
		value:    result,
		expireAt: time.Now().Add(CACHE_EXPIRY_DURATION),
	})

	return result
}

func (v *ZkVerify) verifyInternal(proofBytes []byte, publicInputs [][]byte) bool {
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		logx.Error("ZkVerify", fmt.Sprintf("Failed to read proof: %v", err))
		return false
	}

	pw, err := publicWitness(publicInputs)
	if err != nil {
		logx.Error("ZkVerify", fmt.Sprintf("Failed to build public witness: %v", err))
		return false
	}

	if err := groth16.Verify(proof, v.vk, pw); err != nil {
		logx.Error("ZkVerify", fmt.Sprintf("Failed to verify: %v", err))
		return false
	}
	logx.Debug("ZkVerify", "Verify success")
	return true
}

func publicWitness(publicInputs [][]byte) (witness.Witness, error) {
	pw, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}
	values := make(chan any, len(publicInputs))
	for _, input := range publicInputs {
		values <- scalarFromBytes(input)
	}
	close(values)
	if err := pw.Fill(len(publicInputs), 0, values); err != nil {
		return nil, err
	}
	return pw, nil
}

func scalarFromBytes(b []byte) *big.Int {
	scalarField := ecc.BN254.ScalarField()
	value := new(big.Int).SetBytes(b)
	return value.Mod(value, scalarField)
}
