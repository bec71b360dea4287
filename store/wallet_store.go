package store

import (
	"fmt"

	"github.com/LayerTwo-Labs/orchard-sandbox/db"
	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
	"github.com/LayerTwo-Labs/orchard-sandbox/types"
)

// KeyStore persists key material records. Records are immutable once stored.
type KeyStore struct{}

func NewKeyStore() *KeyStore { return &KeyStore{} }

func keyMaterialKey(id string) []byte {
	return []byte(PrefixKey + id)
}

func (s *KeyStore) Put(tx db.Tx, km *types.KeyMaterial) error {
	existing, err := tx.Has(keyMaterialKey(km.ID))
	if err != nil {
		return err
	}
	if existing {
		return fmt.Errorf("key %s already exists", km.ID)
	}
	raw, err := jsonx.Marshal(km)
	if err != nil {
		return fmt.Errorf("failed to marshal key %s: %w", km.ID, err)
	}
	return tx.Put(keyMaterialKey(km.ID), raw)
}

func (s *KeyStore) Get(tx db.Tx, id string) (*types.KeyMaterial, error) {
	value, err := tx.Get(keyMaterialKey(id))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var km types.KeyMaterial
	if err := jsonx.Unmarshal(value, &km); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key %s: %w", id, err)
	}
	return &km, nil
}

// AddressStore persists derived address records.
type AddressStore struct{}

func NewAddressStore() *AddressStore { return &AddressStore{} }

func addressKey(id string) []byte {
	return []byte(PrefixAddress + id)
}

func (s *AddressStore) Put(tx db.Tx, a *types.Address) error {
	raw, err := jsonx.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal address %s: %w", a.ID, err)
	}
	return tx.Put(addressKey(a.ID), raw)
}

func (s *AddressStore) Get(tx db.Tx, id string) (*types.Address, error) {
	value, err := tx.Get(addressKey(id))
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	var a types.Address
	if err := jsonx.Unmarshal(value, &a); err != nil {
		return nil, fmt.Errorf("failed to unmarshal address %s: %w", id, err)
	}
	return &a, nil
}

// IterateByKey visits every address owned by the given key id.
func (s *AddressStore) IterateByKey(tx db.Tx, keyID string, fn func(a *types.Address) bool) error {
	var iterErr error
	err := tx.IteratePrefix([]byte(PrefixAddress), func(key, value []byte) bool {
		var a types.Address
		if err := jsonx.Unmarshal(value, &a); err != nil {
			iterErr = fmt.Errorf("failed to unmarshal address: %w", err)
			return false
		}
		if a.KeyID != keyID {
			return true
		}
		return fn(&a)
	})
	if err != nil {
		return err
	}
	return iterErr
}
