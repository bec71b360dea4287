package db

import "errors"

// ErrStorageUnavailable is returned when the durable store cannot be opened
// or a transaction cannot be started. It is the only storage condition the
// engine escalates to the caller.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Tx is a single atomic read-write transaction against the durable store.
// Every mutation performed through a Tx is either committed in full or
// discarded in full.
type Tx interface {
	// Get retrieves a value by key; nil if absent.
	Get(key []byte) ([]byte, error)

	// Put stores a key-value pair.
	Put(key, value []byte) error

	// Delete removes a key-value pair.
	Delete(key []byte) error

	// Has checks if a key exists.
	Has(key []byte) (bool, error)

	// IteratePrefix visits every key-value pair with the given prefix in key
	// order. The callback returns false to stop iteration.
	IteratePrefix(prefix []byte, callback func(key, value []byte) bool) error
}

// Provider abstracts the durable storage backend. The engine requires atomic
// multi-record read-write transactions; backends whose batches are write-only
// cannot satisfy it.
type Provider interface {
	// View runs fn in a read-only transaction.
	View(fn func(tx Tx) error) error

	// Update runs fn in a read-write transaction. If fn returns an error the
	// transaction is rolled back and nothing fn did is observable.
	Update(fn func(tx Tx) error) error

	// Close closes the underlying database.
	Close() error
}
