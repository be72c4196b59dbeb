// Package anchor orchestrates record anchoring: build the canonical document,
// fingerprint it, perform the required ledger write(s) in fixed order, then
// persist the record and append the audit entry. Steps are strictly
// sequential; a failed write aborts the use case with no partial record,
// except the documented credential-add path which tolerates an unavailable
// ledger.
package anchor

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	dErrors "pawsport/pkg/domain-errors"
	"pawsport/pkg/ids"

	"pawsport/internal/audit"
	"pawsport/internal/canonical"
	"pawsport/internal/domain"
	"pawsport/internal/ledger"
	"pawsport/internal/platform/metrics"
	"pawsport/internal/storage"
)

// Deps are the orchestrator's injected collaborators.
type Deps struct {
	Ledger      ledger.Gateway
	Pets        storage.PetStore
	Encounters  storage.EncounterStore
	Vaccines    storage.VaccineStore
	Credentials storage.CredentialStore
	Audit       audit.Log
	IDs         ids.Generator
	Metrics     *metrics.Metrics
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Now         func() time.Time
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Service{deps: deps}
}

// ledgerErr translates gateway failures into the domain taxonomy and records
// the outcome metric.
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

// AnchorInput is a fully-formed generic anchor request: the caller already
// holds the document and supplies its fingerprint.
type AnchorInput struct {
	SubjectDID string
	IssuerDID  string
	Kind       string
	RecordHash string
	URI        string
}

// Anchor performs a single generic anchor write. Nothing is persisted beyond
// the audit entry; the caller already has the data.
func (s *Service) Anchor(ctx context.Context, in AnchorInput) (domain.Receipt, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "anchor.Anchor")
	defer span.End()

	if !canonical.ValidFingerprint(in.RecordHash) {
		return domain.Receipt{}, dErrors.New(dErrors.CodeValidation, "record hash must be 0x followed by 64 lowercase hex characters")
	}

	receipt, err := s.deps.Ledger.AnchorRecord(ctx, in.SubjectDID, in.IssuerDID, in.Kind, in.RecordHash, in.URI)
	if err != nil {
		return domain.Receipt{}, s.ledgerErr(ledger.OpAnchorRecord, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpAnchorRecord, "ok")
	s.deps.Metrics.IncRecordsAnchored(in.Kind)

	s.append(ctx, audit.Entry{
		Action: audit.ActionRecordAnchored,
		TxHash: receipt.TxHash,
		Metadata: map[string]any{
			"subjectDID": in.SubjectDID,
			"kind":       in.Kind,
		},
	})
	return receipt, nil
}

// IssueMockInput drives the ordered dual write: register the vet, then anchor
// the record it issued.
type IssueMockInput struct {
	VetAddr     string
	VetDID      string
	MetadataURI string
	SubjectDID  string
	Kind        string
	RecordHash  string
	URI         string
}

// IssueMockResult carries both receipts; both writes must succeed.
type IssueMockResult struct {
	Registered domain.Receipt
	Anchored   domain.Receipt
}

// IssueMock registers a vet and anchors a record in program order. The anchor
// write never runs when registration fails.
func (s *Service) IssueMock(ctx context.Context, in IssueMockInput) (IssueMockResult, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "anchor.IssueMock")
	defer span.End()

	if !canonical.ValidFingerprint(in.RecordHash) {
		return IssueMockResult{}, dErrors.New(dErrors.CodeValidation, "record hash must be 0x followed by 64 lowercase hex characters")
	}
	kind := in.Kind
	if kind == "" {
		kind = "VC:Vaccine"
	}

	registered, err := s.deps.Ledger.RegisterVet(ctx, in.VetAddr, in.VetDID, in.MetadataURI)
	if err != nil {
		return IssueMockResult{}, s.ledgerErr(ledger.OpRegisterVet, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpRegisterVet, "ok")

	anchored, err := s.deps.Ledger.AnchorRecord(ctx, in.SubjectDID, in.VetDID, kind, in.RecordHash, in.URI)
	if err != nil {
		return IssueMockResult{}, s.ledgerErr(ledger.OpAnchorRecord, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpAnchorRecord, "ok")
	s.deps.Metrics.IncRecordsAnchored(kind)

	s.append(ctx, audit.Entry{
		Action:   audit.ActionVetRegistered,
		TxHash:   registered.TxHash,
		Metadata: map[string]any{"vetDID": in.VetDID},
	})
	s.append(ctx, audit.Entry{
		Action:   audit.ActionRecordAnchored,
		TxHash:   anchored.TxHash,
		Metadata: map[string]any{"subjectDID": in.SubjectDID, "kind": kind},
	})
	return IssueMockResult{Registered: registered, Anchored: anchored}, nil
}

// VerifyInput is a standalone verification write against an already anchored
// record hash.
type VerifyInput struct {
	Issuer     string
	SubjectDID string
	Kind       string
	RecordHash string
}

func (s *Service) Verify(ctx context.Context, in VerifyInput) (domain.Receipt, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "anchor.Verify")
	defer span.End()

	if !canonical.ValidFingerprint(in.RecordHash) {
		return domain.Receipt{}, dErrors.New(dErrors.CodeValidation, "record hash must be 0x followed by 64 lowercase hex characters")
	}

	receipt, err := s.deps.Ledger.VerifyMock(ctx, in.Issuer, in.SubjectDID, in.Kind, in.RecordHash)
	if err != nil {
		return domain.Receipt{}, s.ledgerErr(ledger.OpVerifyMock, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpVerifyMock, "ok")

	s.append(ctx, audit.Entry{
		Action:   audit.ActionVaccineVerified,
		TxHash:   receipt.TxHash,
		Metadata: map[string]any{"subjectDID": in.SubjectDID, "kind": in.Kind},
	})
	return receipt, nil
}

func (s *Service) append(ctx context.Context, entry audit.Entry) {
	entry.Timestamp = s.deps.Now()
	if err := s.deps.Audit.Append(ctx, entry); err != nil {
		s.deps.Logger.ErrorContext(ctx, "audit append failed",
			"action", string(entry.Action), "error", err)
	}
}

// nullable maps an empty optional string to an explicit JSON null so the
// canonical document stays sensitive to field presence.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
