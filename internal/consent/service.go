// Package consent manages the off-chain consent request lifecycle and its
// on-chain grant. A request is created pending and transitions exactly once to
// accepted; the transition writes the consent grant to the ledger first and
// only then persists the accepted state, so an accepted request always carries
// a receipt. Acceptance is idempotent and concurrent accepts of the same
// request collapse to a single ledger write.
package consent

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	dErrors "pawsport/pkg/domain-errors"
	"pawsport/pkg/ids"
	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/audit"
	"pawsport/internal/canonical"
	"pawsport/internal/domain"
	"pawsport/internal/ledger"
	"pawsport/internal/platform/metrics"
	"pawsport/internal/storage"
)

type Deps struct {
	Ledger   ledger.Gateway
	Pets     storage.PetStore
	Requests storage.ConsentRequestStore
	Audit    audit.Log
	IDs      ids.Generator
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Tracer   trace.Tracer
	Now      func() time.Time
}

type Service struct {
	deps    Deps
	accepts singleflight.Group
}

func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

func (s *Service) ledgerErr(op string, err error) error {
	switch {
	case ledger.IsUnavailable(err):
		s.deps.Metrics.ObserveLedgerWrite(op, "unavailable")
		return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger unavailable")
	case ledger.IsRejected(err):
		s.deps.Metrics.ObserveLedgerWrite(op, "rejected")
		return dErrors.Wrap(err, dErrors.CodeLedgerRejected, "ledger rejected write")
	default:
		return err
	}
}

// RequestInput creates a pending consent request. PetRef may be either a pet
// id or a pet content fingerprint.
type RequestInput struct {
	PetRef    string
	VetDID    string
	ClinicDID string
}

// Request resolves the subject pet, derives the grantee and persists a pending
// request. No ledger write happens here.
func (s *Service) Request(ctx context.Context, in RequestInput) (domain.ConsentRequest, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "consent.Request")
	defer span.End()

	if in.PetRef == "" {
		return domain.ConsentRequest{}, dErrors.New(dErrors.CodeValidation, "pet reference is required")
	}
	if in.VetDID == "" && in.ClinicDID == "" {
		return domain.ConsentRequest{}, dErrors.New(dErrors.CodeValidation, "vet DID or clinic DID is required")
	}

	pet, err := s.resolvePet(ctx, in.PetRef)
	if err != nil {
		return domain.ConsentRequest{}, err
	}

	grantee := in.ClinicDID
	if grantee == "" {
		grantee = in.VetDID
	}

	now := s.deps.Now()
	req := domain.ConsentRequest{
		ID:         s.deps.IDs.New(),
		PetRef:     in.PetRef,
		VetDID:     in.VetDID,
		ClinicDID:  in.ClinicDID,
		SubjectDID: pet.DID,
		GranteeDID: grantee,
		Status:     domain.ConsentPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.deps.Requests.Save(ctx, req); err != nil {
		return domain.ConsentRequest{}, err
	}

	s.append(ctx, audit.Entry{
		Action: audit.ActionConsentRequestCreated,
		RefID:  req.ID,
		Metadata: map[string]any{
			"subjectDID": req.SubjectDID,
			"granteeDID": req.GranteeDID,
		},
	})
	return req, nil
}

// resolvePet looks the reference up as a pet id first, then falls back to the
// content fingerprint index.
func (s *Service) resolvePet(ctx context.Context, ref string) (domain.Pet, error) {
	pet, err := s.deps.Pets.FindByID(ctx, ref)
	if err == nil {
		return pet, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return domain.Pet{}, err
	}
	pet, err = s.deps.Pets.FindByHash(ctx, ref)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Pet{}, dErrors.New(dErrors.CodeNotFound, "pet not found for reference")
		}
		return domain.Pet{}, err
	}
	return pet, nil
}

// Accept transitions a pending request to accepted. The consent payload is
// canonicalized and fingerprinted, the grant is written on-chain, and only
// then is the accepted state persisted. Re-accepting an already accepted
// request returns the stored result without touching the ledger.
func (s *Service) Accept(ctx context.Context, requestID string) (domain.ConsentRequest, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "consent.Accept")
	defer span.End()

	v, err, _ := s.accepts.Do(requestID, func() (any, error) {
		return s.accept(ctx, requestID)
	})
	if err != nil {
		return domain.ConsentRequest{}, err
	}
	return v.(domain.ConsentRequest), nil
}

func (s *Service) accept(ctx context.Context, requestID string) (domain.ConsentRequest, error) {
	req, err := s.deps.Requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ConsentRequest{}, dErrors.New(dErrors.CodeNotFound, "consent request not found")
		}
		return domain.ConsentRequest{}, err
	}
	if req.Status == domain.ConsentAccepted {
		return req, nil
	}
	if req.SubjectDID == "" || req.GranteeDID == "" {
		return domain.ConsentRequest{}, dErrors.New(dErrors.CodeValidation, "consent request is missing subject or grantee")
	}

	acceptedAt := s.deps.Now()
	payload := map[string]any{
		"typ":         "consent",
		"subjectDID":  req.SubjectDID,
		"granteeDID":  req.GranteeDID,
		"requestedAt": req.CreatedAt.UnixMilli(),
		"acceptedAt":  acceptedAt.UnixMilli(),
		"requestId":   req.ID,
	}
	consentHash, err := canonical.FingerprintValue(payload)
	if err != nil {
		return domain.ConsentRequest{}, err
	}

	receipt, err := s.deps.Ledger.GrantConsent(ctx, req.SubjectDID, req.GranteeDID, consentHash)
	if err != nil {
		return domain.ConsentRequest{}, s.ledgerErr(ledger.OpGrantConsent, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpGrantConsent, "ok")

	updated, err := s.deps.Requests.Update(ctx, requestID, func(cur domain.ConsentRequest) (domain.ConsentRequest, error) {
		if cur.Status == domain.ConsentAccepted {
			return cur, nil
		}
		cur.Status = domain.ConsentAccepted
		cur.ConsentHash = consentHash
		cur.Receipt = &receipt
		cur.UpdatedAt = acceptedAt
		return cur, nil
	})
	if err != nil {
		return domain.ConsentRequest{}, err
	}

	s.deps.Metrics.IncConsentAccepts()
	s.append(ctx, audit.Entry{
		Action: audit.ActionConsentGranted,
		RefID:  updated.ID,
		TxHash: receipt.TxHash,
		Metadata: map[string]any{
			"subjectDID": updated.SubjectDID,
			"granteeDID": updated.GranteeDID,
		},
	})
	return updated, nil
}

// Get returns a request by id.
func (s *Service) Get(ctx context.Context, requestID string) (domain.ConsentRequest, error) {
	req, err := s.deps.Requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.ConsentRequest{}, dErrors.New(dErrors.CodeNotFound, "consent request not found")
		}
		return domain.ConsentRequest{}, err
	}
	return req, nil
}

// Grant writes a consent grant directly, bypassing the request lifecycle. The
// caller supplies an already computed consent fingerprint.
func (s *Service) Grant(ctx context.Context, subjectDID, granteeDID, consentHash string) (domain.Receipt, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "consent.Grant")
	defer span.End()

	if !canonical.ValidFingerprint(consentHash) {
		return domain.Receipt{}, dErrors.New(dErrors.CodeValidation, "consent hash must be 0x followed by 64 lowercase hex characters")
	}
	receipt, err := s.deps.Ledger.GrantConsent(ctx, subjectDID, granteeDID, consentHash)
	if err != nil {
		return domain.Receipt{}, s.ledgerErr(ledger.OpGrantConsent, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpGrantConsent, "ok")

	s.append(ctx, audit.Entry{
		Action: audit.ActionConsentGranted,
		TxHash: receipt.TxHash,
		Metadata: map[string]any{
			"subjectDID": subjectDID,
			"granteeDID": granteeDID,
		},
	})
	return receipt, nil
}

// Revoke withdraws a previously granted consent on-chain.
func (s *Service) Revoke(ctx context.Context, subjectDID, granteeDID string) (domain.Receipt, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "consent.Revoke")
	defer span.End()

	receipt, err := s.deps.Ledger.RevokeConsent(ctx, subjectDID, granteeDID)
	if err != nil {
		return domain.Receipt{}, s.ledgerErr(ledger.OpRevokeConsent, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpRevokeConsent, "ok")

	s.append(ctx, audit.Entry{
		Action: audit.ActionConsentRevoked,
		TxHash: receipt.TxHash,
		Metadata: map[string]any{
			"subjectDID": subjectDID,
			"granteeDID": granteeDID,
		},
	})
	return receipt, nil
}

// Status reads the current on-chain consent state for a subject/grantee pair.
func (s *Service) Status(ctx context.Context, subjectDID, granteeDID string) (ledger.ConsentState, error) {
	state, err := s.deps.Ledger.ConsentStatus(ctx, subjectDID, granteeDID)
	if err != nil {
		return state, s.ledgerErr(ledger.OpConsentStatus, err)
	}
	return state, nil
}

func (s *Service) append(ctx context.Context, entry audit.Entry) {
	entry.Timestamp = s.deps.Now()
	if err := s.deps.Audit.Append(ctx, entry); err != nil {
		s.deps.Logger.ErrorContext(ctx, "audit append failed",
			"action", string(entry.Action), "error", err)
	}
}
