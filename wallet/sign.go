package wallet

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// SignInputs signs every transparent input of tx with the given transparent
// key, filling in PubKey and Signature. All inputs are assumed to be owned by
// the key's address.
func SignInputs(tx *types.Transaction, km *types.KeyMaterial) error {
	if km.Kind != types.KeyKindTransparent {
		return fmt.Errorf("cannot sign transparent inputs with %s key", km.Kind)
	}
	priv := secp256k1.PrivKeyFromBytes(km.PrivateKey)
	// Fill public keys first: SigHash covers them.
	for i := range tx.TransparentInputs {
		tx.TransparentInputs[i].PubKey = priv.PubKey().SerializeCompressed()
	}
	digest := tx.SigHash()
	sig := ecdsa.Sign(priv, digest)
	for i := range tx.TransparentInputs {
		tx.TransparentInputs[i].Signature = sig.Serialize()
	}
	return nil
}

// VerifyInputSignature checks that the input's signature verifies over the
// transaction digest and that the signing key actually owns the input's
// address.
func VerifyInputSignature(in *types.TransparentInput, digest []byte) error {
	pub, err := secp256k1.ParsePubKey(in.PubKey)
	if err != nil {
		return fmt.Errorf("invalid public key: %w", err)
	}
	if EncodeAddress(in.PubKey, types.AddrKindTransparent, 0) != in.Address {
		return fmt.Errorf("public key does not own address %s", in.Address)
	}
	sig, err := ecdsa.ParseDERSignature(in.Signature)
	if err != nil {
		return fmt.Errorf("invalid signature encoding: %w", err)
	}
	if !sig.Verify(digest, pub) {
		return fmt.Errorf("signature does not verify")
	}
	return nil
}
