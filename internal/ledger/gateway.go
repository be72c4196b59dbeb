// Package ledger abstracts the on-chain registries (record anchoring, vet
// registration, credential verification, consent management) behind a set of
// named write operations. Each write returns a receipt only after the
// underlying transaction is finalized. Availability is resolved once at
// process start, fail-closed: a gateway that cannot be configured stays
// disabled for the process lifetime.
package ledger

import (
	"context"
	"errors"
	"fmt"

	dErrors "pawsport/pkg/domain-errors"
	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/canonical"
	"pawsport/internal/domain"
)

// ConsentState mirrors the on-chain consent status enum.
type ConsentState string

const (
	ConsentNone    ConsentState = "none"
	ConsentGranted ConsentState = "granted"
	ConsentRevoked ConsentState = "revoked"
)

// Operation names, used for error context and metrics labels.
const (
	OpAnchorRecord  = "anchor_record"
	OpRegisterVet   = "register_vet"
	OpVerifyMock    = "verify_mock"
	OpGrantConsent  = "grant_consent"
	OpRevokeConsent = "revoke_consent"
	OpConsentStatus = "consent_status"
)

// Gateway is the write surface of the ledger. Every call either returns a
// finalized receipt, fails wrapping sentinel.ErrUnavailable (gateway disabled
// or unreachable, no write attempted) or fails wrapping sentinel.ErrRejected
// (the ledger refused the write).
type Gateway interface {
	AnchorRecord(ctx context.Context, subjectDID, issuerDID, kind, recordHash, uri string) (domain.Receipt, error)
	RegisterVet(ctx context.Context, vetAddr, vetDID, metadataURI string) (domain.Receipt, error)
	VerifyMock(ctx context.Context, issuer, subjectDID, kind, recordHash string) (domain.Receipt, error)
	GrantConsent(ctx context.Context, subjectDID, granteeDID, consentHash string) (domain.Receipt, error)
	RevokeConsent(ctx context.Context, subjectDID, granteeDID string) (domain.Receipt, error)
	ConsentStatus(ctx context.Context, subjectDID, granteeDID string) (ConsentState, error)
}

func opErr(op string, cause error) error {
	return fmt.Errorf("%s: %w", op, cause)
}

// checkHash enforces the fingerprint contract at the write boundary.
func checkHash(h string) error {
	if !canonical.ValidFingerprint(h) {
		return dErrors.New(dErrors.CodeValidation, "record hash must be 0x followed by 64 lowercase hex characters")
	}
	return nil
}

// IsUnavailable reports whether err stems from a disabled or unreachable
// gateway, as opposed to a refused write.
func IsUnavailable(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable)
}

// IsRejected reports whether the ledger refused the write.
func IsRejected(err error) bool {
	return errors.Is(err, sentinel.ErrRejected)
}
