package db

import (
	"bytes"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/LayerTwo-Labs/orchard-sandbox/logx"
)

// All records live in one bucket; stores namespace their keys with prefixes.
var recordsBucket = []byte("records")

// BoltProvider implements Provider on top of bbolt. bbolt gives serialized
// read-write transactions with crash durability, which is exactly the atomic
// section the block applier needs.
type BoltProvider struct {
	db *bolt.DB
}

// NewBoltProvider opens (or creates) the database file at path.
func NewBoltProvider(path string) (*BoltProvider, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		logx.Error("DB", "Failed to open bolt database:", err)
		return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(recordsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to create bucket: %v", ErrStorageUnavailable, err)
	}

	return &BoltProvider{db: db}, nil
}

func (p *BoltProvider) View(fn func(tx Tx) error) error {
	return p.db.View(func(btx *bolt.Tx) error {
		return fn(&boltTx{bucket: btx.Bucket(recordsBucket)})
	})
}

func (p *BoltProvider) Update(fn func(tx Tx) error) error {
	return p.db.Update(func(btx *bolt.Tx) error {
		return fn(&boltTx{bucket: btx.Bucket(recordsBucket)})
	})
}

func (p *BoltProvider) Close() error {
	return p.db.Close()
}

type boltTx struct {
	bucket *bolt.Bucket
}

func (t *boltTx) Get(key []byte) ([]byte, error) {
	value := t.bucket.Get(key)
	if value == nil {
		return nil, nil
	}
	// bbolt buffers are only valid for the life of the transaction
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (t *boltTx) Put(key, value []byte) error {
	return t.bucket.Put(key, value)
}

func (t *boltTx) Delete(key []byte) error {
	return t.bucket.Delete(key)
}

func (t *boltTx) Has(key []byte) (bool, error) {
	return t.bucket.Get(key) != nil, nil
}

func (t *boltTx) IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error {
	c := t.bucket.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		key := make([]byte, len(k))
		copy(key, k)
		value := make([]byte, len(v))
		copy(value, v)
		if !callback(key, value) {
			break
		}
	}
	return nil
}
