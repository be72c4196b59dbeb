package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and the ledger gateway
// return these (optionally wrapped) so services can translate them into domain
// errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store
// - ErrConflict: a uniqueness constraint (e.g. microchip) would be violated
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: ledger gateway disabled or unreachable; no write attempted
// - ErrRejected: ledger write attempted and refused by the ledger side
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
	ErrRejected     = errors.New("rejected")
)
