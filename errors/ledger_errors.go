package errors

import (
	stderrors "errors"

	"github.com/LayerTwo-Labs/orchard-sandbox/jsonx"
)

// LedgerErrorCode represents standardized error codes for ledger operations
type LedgerErrorCode string

const (
	// Chain index errors
	ErrCodeDiscontinuity   LedgerErrorCode = "discontinuity"
	ErrCodeDuplicateHeight LedgerErrorCode = "duplicate_height"
	ErrCodeNotTip          LedgerErrorCode = "not_tip"

	// Record errors
	ErrCodeDuplicateID LedgerErrorCode = "duplicate_id"
	ErrCodeNotFound    LedgerErrorCode = "not_found"

	// Value consumption errors
	ErrCodeUnknownInput   LedgerErrorCode = "unknown_input"
	ErrCodeDoubleSpend    LedgerErrorCode = "double_spend"
	ErrCodeNullifierReuse LedgerErrorCode = "nullifier_reuse"
	ErrCodeAlreadySpent   LedgerErrorCode = "already_spent"
	ErrCodeNotSpent       LedgerErrorCode = "not_spent"

	// Cryptographic verification errors
	ErrCodeBadSignature  LedgerErrorCode = "bad_signature"
	ErrCodeProofRejected LedgerErrorCode = "proof_rejected"

	// Conservation errors
	ErrCodeAmountMismatch LedgerErrorCode = "amount_mismatch"

	// System errors
	ErrCodeStorageUnavailable LedgerErrorCode = "storage_unavailable"
)

// LedgerError is a coded error carrying the identifier of the offending
// transaction or record, so rejections are never anonymous.
type LedgerError struct {
	Code    LedgerErrorCode `json:"code"`
	Ref     string          `json:"ref,omitempty"`
	Message string          `json:"message"`
}

// Error implements the error interface
func (e *LedgerError) Error() string {
	raw, _ := jsonx.Marshal(e)
	return string(raw)
}

func New(code LedgerErrorCode, ref, message string) *LedgerError {
	return &LedgerError{Code: code, Ref: ref, Message: message}
}

// CodeOf extracts the ledger error code from err, "" if err carries none.
func CodeOf(err error) LedgerErrorCode {
	var le *LedgerError
	if stderrors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsCode reports whether err carries the given ledger error code.
func IsCode(err error, code LedgerErrorCode) bool {
	return CodeOf(err) == code
}
