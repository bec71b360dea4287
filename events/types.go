package events

import (
	"time"
)

// EventType is an enum-like string type for ledger events
type EventType string

const (
	EventBlockConnected      EventType = "BlockConnected"
	EventBlockDisconnected   EventType = "BlockDisconnected"
	EventTransactionApplied  EventType = "TransactionApplied"
	EventTransactionReverted EventType = "TransactionReverted"
	EventTransactionRejected EventType = "TransactionRejected"
)

// LedgerEvent represents any event emitted by the ledger
type LedgerEvent interface {
	Type() EventType
	Timestamp() time.Time
	BlockHash() string
}

// BlockConnected event when a block becomes the new tip
type BlockConnected struct {
	height    uint64
	blockHash string
	treeRoot  string
	txCount   int
	timestamp time.Time
}

func NewBlockConnected(height uint64, blockHash string, treeRoot string, txCount int) *BlockConnected {
	return &BlockConnected{
		height:    height,
		blockHash: blockHash,
		treeRoot:  treeRoot,
		txCount:   txCount,
		timestamp: time.Now(),
	}
}

func (e *BlockConnected) Type() EventType {
	return EventBlockConnected
}

func (e *BlockConnected) Timestamp() time.Time {
	return e.timestamp
}

func (e *BlockConnected) BlockHash() string {
	return e.blockHash
}

func (e *BlockConnected) Height() uint64 {
	return e.height
}

func (e *BlockConnected) TreeRoot() string {
	return e.treeRoot
}

func (e *BlockConnected) TxCount() int {
	return e.txCount
}

// BlockDisconnected event when the tip block is rolled back
type BlockDisconnected struct {
	height    uint64
	blockHash string
	treeRoot  string
	timestamp time.Time
}

func NewBlockDisconnected(height uint64, blockHash string, treeRoot string) *BlockDisconnected {
	return &BlockDisconnected{
		height:    height,
		blockHash: blockHash,
		treeRoot:  treeRoot,
		timestamp: time.Now(),
	}
}

func (e *BlockDisconnected) Type() EventType {
	return EventBlockDisconnected
}

func (e *BlockDisconnected) Timestamp() time.Time {
	return e.timestamp
}

func (e *BlockDisconnected) BlockHash() string {
	return e.blockHash
}

func (e *BlockDisconnected) Height() uint64 {
	return e.height
}

// TreeRoot returns the pool root restored by the rollback.
func (e *BlockDisconnected) TreeRoot() string {
	return e.treeRoot
}

// TransactionApplied event when a transaction's effects land on the active chain
type TransactionApplied struct {
	txHash    string
	kind      string
	height    uint64
	blockHash string
	timestamp time.Time
}

func NewTransactionApplied(txHash string, kind string, height uint64, blockHash string) *TransactionApplied {
	return &TransactionApplied{
		txHash:    txHash,
		kind:      kind,
		height:    height,
		blockHash: blockHash,
		timestamp: time.Now(),
	}
}

func (e *TransactionApplied) Type() EventType {
	return EventTransactionApplied
}

func (e *TransactionApplied) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionApplied) BlockHash() string {
	return e.blockHash
}

func (e *TransactionApplied) TxHash() string {
	return e.txHash
}

func (e *TransactionApplied) Kind() string {
	return e.kind
}

func (e *TransactionApplied) Height() uint64 {
	return e.height
}

// TransactionReverted event when a disconnect rolls a transaction back off the chain
type TransactionReverted struct {
	txHash    string
	height    uint64
	blockHash string
	timestamp time.Time
}

func NewTransactionReverted(txHash string, height uint64, blockHash string) *TransactionReverted {
	return &TransactionReverted{
		txHash:    txHash,
		height:    height,
		blockHash: blockHash,
		timestamp: time.Now(),
	}
}

func (e *TransactionReverted) Type() EventType {
	return EventTransactionReverted
}

func (e *TransactionReverted) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionReverted) BlockHash() string {
	return e.blockHash
}

func (e *TransactionReverted) TxHash() string {
	return e.txHash
}

func (e *TransactionReverted) Height() uint64 {
	return e.height
}

// TransactionRejected event when a transaction fails validation
type TransactionRejected struct {
	txHash    string
	blockHash string
	code      string
	reason    string
	timestamp time.Time
}

func NewTransactionRejected(txHash string, blockHash string, code string, reason string) *TransactionRejected {
	return &TransactionRejected{
		txHash:    txHash,
		blockHash: blockHash,
		code:      code,
		reason:    reason,
		timestamp: time.Now(),
	}
}

func (e *TransactionRejected) Type() EventType {
	return EventTransactionRejected
}

func (e *TransactionRejected) Timestamp() time.Time {
	return e.timestamp
}

func (e *TransactionRejected) BlockHash() string {
	return e.blockHash
}

func (e *TransactionRejected) TxHash() string {
	return e.txHash
}

func (e *TransactionRejected) Code() string {
	return e.code
}

func (e *TransactionRejected) Reason() string {
	return e.reason
}
