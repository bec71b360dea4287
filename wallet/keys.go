package wallet

import (
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
	"github.com/LayerTwo-Labs/orchard-sandbox/store"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

const (
	prefixTransparent = "t1"
	prefixShielded    = "z1"
)

// Wallet owns key material and derived addresses. It is a collaborator of
// the ledger engine, not part of block application: the engine only ever
// reads encoded address bytes.
type Wallet struct {
	provider db.Provider
	keys     *store.KeyStore
	addrs    *store.AddressStore
}

func NewWallet(provider db.Provider) *Wallet {
	return &Wallet{
		provider: provider,
		keys:     store.NewKeyStore(),
		addrs:    store.NewAddressStore(),
	}
}

// GenerateKey creates and persists a new key pair of the given kind.
// Transparent keys are secp256k1; shielded spending keys are opaque 32-byte
// scalars with a blake2b-derived public component.
func (w *Wallet) GenerateKey(kind types.KeyKind) (*types.KeyMaterial, error) {
	var privKey, pubKey []byte
	switch kind {
	case types.KeyKindTransparent:
		priv, err := secp256k1.GeneratePrivateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate transparent key: %w", err)
		}
		privKey = priv.Serialize()
		pubKey = priv.PubKey().SerializeCompressed()
	case types.KeyKindShielded:
		privKey = make([]byte, 32)
		if _, err := rand.Read(privKey); err != nil {
			return nil, fmt.Errorf("failed to generate shielded key: %w", err)
		}
		sum := blake2b.Sum256(privKey)
		pubKey = sum[:]
	default:
		return nil, fmt.Errorf("unknown key kind %q", kind)
	}

	km := &types.KeyMaterial{
		ID:         uuid.NewString(),
		Kind:       kind,
		PrivateKey: privKey,
		PublicKey:  pubKey,
		CreatedAt:  time.Now().Unix(),
	}
	err := w.provider.Update(func(tx db.Tx) error {
		return w.keys.Put(tx, km)
	})
	if err != nil {
		return nil, err
	}
	logx.Info("WALLET", fmt.Sprintf("Generated %s key %s", kind, km.ID))
	return km, nil
}

// DeriveAddress derives and persists a new address for the given key. A key
// may own any number of addresses; shielded addresses are meant to be reused.
func (w *Wallet) DeriveAddress(keyID string, kind types.AddressKind) (*types.Address, error) {
	var addr *types.Address
	err := w.provider.Update(func(tx db.Tx) error {
		km, err := w.keys.Get(tx, keyID)
		if err != nil {
			return err
		}
		if km == nil {
			return fmt.Errorf("key %s not found", keyID)
		}
		if (kind == types.AddrKindTransparent) != (km.Kind == types.KeyKindTransparent) {
			return fmt.Errorf("address kind %s does not match key kind %s", kind, km.Kind)
		}
		// Count existing addresses for a per-key diversifier index.
		index := 0
		if err := w.addrs.IterateByKey(tx, keyID, func(*types.Address) bool {
			index++
			return true
		}); err != nil {
			return err
		}
		addr = &types.Address{
			ID:      uuid.NewString(),
			KeyID:   keyID,
			Kind:    kind,
			Encoded: EncodeAddress(km.PublicKey, kind, uint32(index)),
		}
		return w.addrs.Put(tx, addr)
	})
	if err != nil {
		return nil, err
	}
	logx.Info("WALLET", fmt.Sprintf("Derived %s address %s for key %s", kind, addr.Encoded, keyID))
	return addr, nil
}

// Key loads stored key material by id, nil if absent.
func (w *Wallet) Key(id string) (*types.KeyMaterial, error) {
	var km *types.KeyMaterial
	err := w.provider.View(func(tx db.Tx) error {
		var err error
		km, err = w.keys.Get(tx, id)
		return err
	})
	return km, err
}

// EncodeAddress derives the encoded address string from a public key and kind.
// Shielded addresses take a diversifier index so one key can expose many
// unlinkable addresses; transparent addresses are a pure function of the
// public key, which lets a validator check an input's claimed address against
// the key that signed it.
func EncodeAddress(pubKey []byte, kind types.AddressKind, index uint32) string {
	prefix := prefixTransparent
	if kind == types.AddrKindShielded {
		prefix = prefixShielded
	}
	h, _ := blake2b.New256(nil)
	h.Write(pubKey)
	h.Write([]byte(prefix))
	if kind == types.AddrKindShielded {
		h.Write([]byte{byte(index >> 24), byte(index >> 16), byte(index >> 8), byte(index)})
	}
	return prefix + fmt.Sprintf("%x", h.Sum(nil))
}

// AddressKindOf reports the kind of an encoded address.
func AddressKindOf(encoded string) (types.AddressKind, error) {
	switch {
	case strings.HasPrefix(encoded, prefixTransparent):
		return types.AddrKindTransparent, nil
	case strings.HasPrefix(encoded, prefixShielded):
		return types.AddrKindShielded, nil
	}
	return "", fmt.Errorf("invalid address prefix in %q", encoded)
}
