package ledger

import (
	"context"

	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/domain"
)

// Disabled is the fail-closed gateway installed when ledger configuration is
// missing at startup. Every call fails immediately as unavailable without
// attempting network I/O. It never flips to available mid-run.
type Disabled struct{}

func NewDisabled() Disabled { return Disabled{} }

func (Disabled) AnchorRecord(context.Context, string, string, string, string, string) (domain.Receipt, error) {
	return domain.Receipt{}, opErr(OpAnchorRecord, sentinel.ErrUnavailable)
}

func (Disabled) RegisterVet(context.Context, string, string, string) (domain.Receipt, error) {
	return domain.Receipt{}, opErr(OpRegisterVet, sentinel.ErrUnavailable)
}

func (Disabled) VerifyMock(context.Context, string, string, string, string) (domain.Receipt, error) {
	return domain.Receipt{}, opErr(OpVerifyMock, sentinel.ErrUnavailable)
}

func (Disabled) GrantConsent(context.Context, string, string, string) (domain.Receipt, error) {
	return domain.Receipt{}, opErr(OpGrantConsent, sentinel.ErrUnavailable)
}

func (Disabled) RevokeConsent(context.Context, string, string) (domain.Receipt, error) {
	return domain.Receipt{}, opErr(OpRevokeConsent, sentinel.ErrUnavailable)
}

func (Disabled) ConsentStatus(context.Context, string, string) (ConsentState, error) {
	return ConsentNone, opErr(OpConsentStatus, sentinel.ErrUnavailable)
}
