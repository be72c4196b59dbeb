package anchor

import (
	"context"
	"errors"

	dErrors "pawsport/pkg/domain-errors"
	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/audit"
	"pawsport/internal/canonical"
	"pawsport/internal/domain"
	"pawsport/internal/ledger"
)

// EncounterInput describes a clinical visit to anchor.
type EncounterInput struct {
	PetID       string
	VetDID      string
	ClinicDID   string
	Reason      string
	Notes       string
	Vitals      map[string]any
	Attachments []any
}

// AddEncounter canonicalizes the encounter document, anchors its fingerprint
// and persists the record with the receipt. Any ledger failure aborts with
// nothing persisted.
func (s *Service) AddEncounter(ctx context.Context, in EncounterInput) (domain.EncounterRecord, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "anchor.AddEncounter")
	defer span.End()

	pet, err := s.deps.Pets.FindByID(ctx, in.PetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.EncounterRecord{}, dErrors.Wrap(err, dErrors.CodeNotFound, "pet not found")
		}
		return domain.EncounterRecord{}, err
	}

	createdAt := s.deps.Now()
	attachments := in.Attachments
	if attachments == nil {
		attachments = []any{}
	}
	doc := map[string]any{
		"type":        "Encounter",
		"petId":       in.PetID,
		"petDID":      pet.DID,
		"vetDID":      nullable(in.VetDID),
		"clinicDID":   nullable(in.ClinicDID),
		"reason":      nullable(in.Reason),
		"notes":       nullable(in.Notes),
		"vitals":      in.Vitals,
		"attachments": attachments,
		"createdAt":   createdAt.UnixMilli(),
	}
	recordHash, err := canonical.FingerprintValue(doc)
	if err != nil {
		return domain.EncounterRecord{}, err
	}
	uri := "ipfs://mock/encounter/" + s.deps.IDs.New()

	issuer := in.VetDID
	if issuer == "" {
		issuer = in.ClinicDID
	}
	receipt, err := s.deps.Ledger.AnchorRecord(ctx, pet.DID, issuer, "Encounter", recordHash, uri)
	if err != nil {
		return domain.EncounterRecord{}, s.ledgerErr(ledger.OpAnchorRecord, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpAnchorRecord, "ok")
	s.deps.Metrics.IncRecordsAnchored("Encounter")

	rec := domain.EncounterRecord{
		ID:         s.deps.IDs.New(),
		PetID:      in.PetID,
		VetDID:     in.VetDID,
		ClinicDID:  in.ClinicDID,
		Reason:     in.Reason,
		Notes:      in.Notes,
		Vitals:     in.Vitals,
		URI:        uri,
		RecordHash: recordHash,
		Receipt:    &receipt,
		CreatedAt:  createdAt,
	}
	if err := s.deps.Encounters.Save(ctx, rec); err != nil {
		return domain.EncounterRecord{}, err
	}

	s.append(ctx, audit.Entry{
		Action: audit.ActionEncounterAnchored,
		RefID:  rec.ID,
		TxHash: receipt.TxHash,
	})
	return rec, nil
}

// VaccineInput describes a vaccination to anchor. VetAddr, when set, requests
// the optional follow-up verification write.
type VaccineInput struct {
	PetID       string
	VetAddr     string
	VetDID      string
	ClinicDID   string
	Vaccine     map[string]any
	Attachments []any
}

// AddVaccine anchors the vaccine document and, when a verifying party address
// is supplied, performs an independent follow-up verify write with the same
// fingerprint. The verify step never runs when the anchor fails; a failed
// verify still persists the record with the anchor receipt only, and the
// missing verify receipt is surfaced as an absent field.
func (s *Service) AddVaccine(ctx context.Context, in VaccineInput) (domain.VaccineRecord, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "anchor.AddVaccine")
	defer span.End()

	pet, err := s.deps.Pets.FindByID(ctx, in.PetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.VaccineRecord{}, dErrors.Wrap(err, dErrors.CodeNotFound, "pet not found")
		}
		return domain.VaccineRecord{}, err
	}

	createdAt := s.deps.Now()
	attachments := in.Attachments
	if attachments == nil {
		attachments = []any{}
	}
	doc := map[string]any{
		"type":        "Vaccine",
		"petId":       in.PetID,
		"petDID":      pet.DID,
		"vetDID":      nullable(in.VetDID),
		"clinicDID":   nullable(in.ClinicDID),
		"vaccine":     in.Vaccine,
		"attachments": attachments,
		"createdAt":   createdAt.UnixMilli(),
	}
	recordHash, err := canonical.FingerprintValue(doc)
	if err != nil {
		return domain.VaccineRecord{}, err
	}
	uri := "ipfs://mock/vaccine/" + s.deps.IDs.New()

	issuer := in.VetDID
	if issuer == "" {
		issuer = in.ClinicDID
	}
	anchorReceipt, err := s.deps.Ledger.AnchorRecord(ctx, pet.DID, issuer, "Vaccine", recordHash, uri)
	if err != nil {
		return domain.VaccineRecord{}, s.ledgerErr(ledger.OpAnchorRecord, err)
	}
	s.deps.Metrics.ObserveLedgerWrite(ledger.OpAnchorRecord, "ok")
	s.deps.Metrics.IncRecordsAnchored("Vaccine")

	var verifyReceipt *domain.Receipt
	if in.VetAddr != "" {
		vr, err := s.deps.Ledger.VerifyMock(ctx, in.VetAddr, pet.DID, "VC:Vaccine", recordHash)
		if err != nil {
			// Independent step: the record survives with the anchor receipt.
			_ = s.ledgerErr(ledger.OpVerifyMock, err)
			s.deps.Logger.WarnContext(ctx, "vaccine verify write failed, persisting without verify receipt",
				"petId", in.PetID, "error", err)
		} else {
			s.deps.Metrics.ObserveLedgerWrite(ledger.OpVerifyMock, "ok")
			verifyReceipt = &vr
		}
	}

	rec := domain.VaccineRecord{
		ID:            s.deps.IDs.New(),
		PetID:         in.PetID,
		VetDID:        in.VetDID,
		ClinicDID:     in.ClinicDID,
		Vaccine:       in.Vaccine,
		Attachments:   in.Attachments,
		URI:           uri,
		RecordHash:    recordHash,
		AnchorReceipt: &anchorReceipt,
		VerifyReceipt: verifyReceipt,
		CreatedAt:     createdAt,
	}
	if err := s.deps.Vaccines.Save(ctx, rec); err != nil {
		return domain.VaccineRecord{}, err
	}

	s.append(ctx, audit.Entry{
		Action: audit.ActionVaccineAnchored,
		RefID:  rec.ID,
		TxHash: anchorReceipt.TxHash,
	})
	if verifyReceipt != nil {
		s.append(ctx, audit.Entry{
			Action: audit.ActionVaccineVerified,
			RefID:  rec.ID,
			TxHash: verifyReceipt.TxHash,
		})
	}
	return rec, nil
}

// CredentialInput describes a generic verifiable claim to issue.
type CredentialInput struct {
	PetID string
	Type  string
	Data  map[string]any
	URI   string
}

// AddCredential anchors the credential when the ledger is reachable. Unlike
// the clinical paths, an unavailable ledger is tolerated: the credential is
// persisted without a receipt and the absence stays visible on the record. A
// rejected write still aborts.
func (s *Service) AddCredential(ctx context.Context, in CredentialInput) (domain.Credential, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "anchor.AddCredential")
	defer span.End()

	pet, err := s.deps.Pets.FindByID(ctx, in.PetID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Credential{}, dErrors.Wrap(err, dErrors.CodeNotFound, "pet not found")
		}
		return domain.Credential{}, err
	}

	issuedAt := s.deps.Now()
	doc := map[string]any{
		"petId":     in.PetID,
		"petDID":    pet.DID,
		"type":      in.Type,
		"data":      in.Data,
		"createdAt": issuedAt.UnixMilli(),
	}
	recordHash, err := canonical.FingerprintValue(doc)
	if err != nil {
		return domain.Credential{}, err
	}

	var receipt *domain.Receipt
	r, err := s.deps.Ledger.AnchorRecord(ctx, pet.DID, "", in.Type, recordHash, in.URI)
	switch {
	case err == nil:
		s.deps.Metrics.ObserveLedgerWrite(ledger.OpAnchorRecord, "ok")
		s.deps.Metrics.IncRecordsAnchored(in.Type)
		receipt = &r
	case ledger.IsUnavailable(err):
		// Identity-credential issuance may proceed off-chain only.
		s.deps.Metrics.ObserveLedgerWrite(ledger.OpAnchorRecord, "unavailable")
		s.deps.Logger.InfoContext(ctx, "ledger unavailable, issuing credential off-chain only",
			"petId", in.PetID, "type", in.Type)
	default:
		return domain.Credential{}, s.ledgerErr(ledger.OpAnchorRecord, err)
	}

	cred := domain.Credential{
		ID:         s.deps.IDs.New(),
		PetID:      in.PetID,
		Type:       in.Type,
		Data:       in.Data,
		URI:        in.URI,
		RecordHash: recordHash,
		Receipt:    receipt,
		IssuedAt:   issuedAt,
	}
	if err := s.deps.Credentials.Save(ctx, cred); err != nil {
		return domain.Credential{}, err
	}

	entry := audit.Entry{
		Action:   audit.ActionCredentialAdded,
		RefID:    cred.ID,
		Metadata: map[string]any{"type": in.Type, "anchored": receipt != nil},
	}
	if receipt != nil {
		entry.TxHash = receipt.TxHash
	}
	s.append(ctx, entry)
	return cred, nil
}
