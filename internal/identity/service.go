// Package identity covers owners, sessions, pet registration and the read
// views built on top of them. A pet's content fingerprint is computed once at
// registration from the core profile and never changes afterwards; profile
// fields outside the core set do not participate.
package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"

	dErrors "pawsport/pkg/domain-errors"
	"pawsport/pkg/ids"
	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/audit"
	"pawsport/internal/canonical"
	"pawsport/internal/domain"
	"pawsport/internal/ledger"
	"pawsport/internal/storage"
)

type Deps struct {
	Owners       storage.OwnerStore
	Pets         storage.PetStore
	Appointments storage.AppointmentStore
	Credentials  storage.CredentialStore
	Ledger       ledger.Gateway
	Audit        audit.Log
	IDs          ids.Generator
	Tokens       *TokenService
	Logger       *slog.Logger
	Tracer       trace.Tracer
	Now          func() time.Time

	// Role rosters for wallet-connect, lowercase addresses.
	VetAddresses    []string
	KennelAddresses []string
}

type Service struct {
	deps    Deps
	vets    map[string]struct{}
	kennels map[string]struct{}
}

func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	s := &Service{
		deps:    deps,
		vets:    make(map[string]struct{}, len(deps.VetAddresses)),
		kennels: make(map[string]struct{}, len(deps.KennelAddresses)),
	}
	for _, a := range deps.VetAddresses {
		s.vets[strings.ToLower(a)] = struct{}{}
	}
	for _, a := range deps.KennelAddresses {
		s.kennels[strings.ToLower(a)] = struct{}{}
	}
	return s
}

// LoginEmail creates the owner on first login and issues a session token.
func (s *Service) LoginEmail(ctx context.Context, email string) (domain.Session, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "identity.LoginEmail")
	defer span.End()

	if email == "" || !strings.Contains(email, "@") {
		return domain.Session{}, dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}

	owner, err := s.deps.Owners.FindByEmail(ctx, email)
	if errors.Is(err, sentinel.ErrNotFound) {
		owner = domain.Owner{
			ID:           s.deps.IDs.New(),
			Email:        email,
			ShareContact: true,
		}
		if err := s.deps.Owners.Save(ctx, owner); err != nil {
			return domain.Session{}, err
		}
	} else if err != nil {
		return domain.Session{}, err
	}

	token, err := s.deps.Tokens.Generate(owner.ID, owner.Email)
	if err != nil {
		return domain.Session{}, err
	}
	return domain.Session{
		Token:     token,
		OwnerID:   owner.ID,
		Email:     owner.Email,
		CreatedAt: s.deps.Now(),
	}, nil
}

// UpsertOwner logs the email in (creating the owner when needed) and patches
// the optional profile fields.
func (s *Service) UpsertOwner(ctx context.Context, email, name, phone string) (domain.Owner, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "identity.UpsertOwner")
	defer span.End()

	session, err := s.LoginEmail(ctx, email)
	if err != nil {
		return domain.Owner{}, err
	}
	owner, err := s.deps.Owners.FindByID(ctx, session.OwnerID)
	if err != nil {
		return domain.Owner{}, err
	}
	if name != "" {
		owner.Name = name
	}
	if phone != "" {
		owner.Phone = phone
	}
	if err := s.deps.Owners.Save(ctx, owner); err != nil {
		return domain.Owner{}, err
	}
	return owner, nil
}

// Roles is the wallet-connect role check result.
type Roles struct {
	IsVeterinarian bool `json:"isVeterinarian"`
	IsKennelClub   bool `json:"isKennelClub"`
}

// WalletConnect matches the address against the configured role rosters.
// Addresses compare case-insensitively.
func (s *Service) WalletConnect(address string) Roles {
	addr := strings.ToLower(address)
	_, vet := s.vets[addr]
	_, kennel := s.kennels[addr]
	return Roles{IsVeterinarian: vet, IsKennelClub: kennel}
}

// RegisterPetInput is the registration payload. DID identifies the pet as a
// ledger subject and is supplied by the caller.
type RegisterPetInput struct {
	OwnerID   string
	DID       string
	OwnerDID  string
	Name      string
	Species   string
	Breed     string
	Sex       string
	Microchip string
	PhotoURL  string
}

// RegisterPet fingerprints the core identity profile and persists the pet. The
// fingerprint covers exactly name, species, breed, sex and microchip, with
// absent optionals normalized to null, so later changes to photo or weight
// never disturb it.
func (s *Service) RegisterPet(ctx context.Context, in RegisterPetInput) (domain.Pet, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "identity.RegisterPet")
	defer span.End()

	if in.Name == "" || in.Species == "" {
		return domain.Pet{}, dErrors.New(dErrors.CodeValidation, "name and species are required")
	}
	if in.OwnerID == "" {
		return domain.Pet{}, dErrors.New(dErrors.CodeValidation, "owner id is required")
	}
	if _, err := s.deps.Owners.FindByID(ctx, in.OwnerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Pet{}, dErrors.New(dErrors.CodeNotFound, "owner not found")
		}
		return domain.Pet{}, err
	}

	coreProfile := map[string]any{
		"name":      in.Name,
		"species":   in.Species,
		"breed":     nullable(in.Breed),
		"sex":       nullable(in.Sex),
		"microchip": nullable(in.Microchip),
	}
	hash, err := canonical.FingerprintValue(coreProfile)
	if err != nil {
		return domain.Pet{}, err
	}

	pet := domain.Pet{
		ID:        s.deps.IDs.New(),
		OwnerID:   in.OwnerID,
		DID:       in.DID,
		OwnerDID:  in.OwnerDID,
		Name:      in.Name,
		Species:   in.Species,
		Breed:     in.Breed,
		Sex:       in.Sex,
		Microchip: in.Microchip,
		PhotoURL:  in.PhotoURL,
		PawScore:  100,
		Hash:      hash,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Pets.Save(ctx, pet); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return domain.Pet{}, dErrors.Wrap(err, dErrors.CodeConflict, "microchip already registered")
		}
		return domain.Pet{}, err
	}

	s.append(ctx, audit.Entry{
		Action:   audit.ActionPetRegistered,
		RefID:    pet.ID,
		Metadata: map[string]any{"did": pet.DID},
	})
	return pet, nil
}

// ListOwnerPets returns the owner's pets, failing when the owner is unknown.
func (s *Service) ListOwnerPets(ctx context.Context, ownerID string) ([]domain.Pet, error) {
	if _, err := s.deps.Owners.FindByID(ctx, ownerID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "owner not found")
		}
		return nil, err
	}
	return s.deps.Pets.ListByOwner(ctx, ownerID)
}

func (s *Service) GetPet(ctx context.Context, petID string) (domain.Pet, error) {
	pet, err := s.deps.Pets.FindByID(ctx, petID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Pet{}, dErrors.New(dErrors.CodeNotFound, "pet not found")
		}
		return domain.Pet{}, err
	}
	return pet, nil
}

// ResolveMicrochip looks a pet up by its microchip number.
func (s *Service) ResolveMicrochip(ctx context.Context, microchip string) (domain.Pet, error) {
	pet, err := s.deps.Pets.FindByMicrochip(ctx, microchip)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return domain.Pet{}, dErrors.New(dErrors.CodeNotFound, "pet not found")
		}
		return domain.Pet{}, err
	}
	return pet, nil
}

// PawsportView is the pet passport: the core profile plus every credential
// issued to the pet.
type PawsportView struct {
	Profile     PawsportProfile     `json:"profile"`
	Credentials []domain.Credential `json:"credentials"`
}

type PawsportProfile struct {
	Name      string `json:"name"`
	Species   string `json:"species"`
	Breed     string `json:"breed,omitempty"`
	Microchip string `json:"microchip,omitempty"`
}

func (s *Service) Pawsport(ctx context.Context, petID string) (PawsportView, error) {
	pet, err := s.GetPet(ctx, petID)
	if err != nil {
		return PawsportView{}, err
	}
	creds, err := s.deps.Credentials.ListByPet(ctx, pet.ID)
	if err != nil {
		return PawsportView{}, err
	}
	if creds == nil {
		creds = []domain.Credential{}
	}
	return PawsportView{
		Profile: PawsportProfile{
			Name:      pet.Name,
			Species:   pet.Species,
			Breed:     pet.Breed,
			Microchip: pet.Microchip,
		},
		Credentials: creds,
	}, nil
}

// VerifyView is the public lost-pet lookup. Contact is only present when the
// owner opted into sharing it.
type VerifyView struct {
	Microchip   string              `json:"microchip"`
	Name        string              `json:"name"`
	VerifiedBy  string              `json:"verifiedBy"`
	Contact     *ContactInfo        `json:"contact"`
	Credentials []CredentialSummary `json:"credentials"`
}

type ContactInfo struct {
	Phone string `json:"phone"`
}

type CredentialSummary struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// PublicVerify resolves a microchip to the public view. No authentication is
// involved; the owner's ShareContact flag gates the contact block.
func (s *Service) PublicVerify(ctx context.Context, microchip string) (VerifyView, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "identity.PublicVerify")
	defer span.End()

	pet, err := s.ResolveMicrochip(ctx, microchip)
	if err != nil {
		return VerifyView{}, err
	}
	owner, err := s.deps.Owners.FindByID(ctx, pet.OwnerID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return VerifyView{}, err
	}

	creds, err := s.deps.Credentials.ListByPet(ctx, pet.ID)
	if err != nil {
		return VerifyView{}, err
	}
	summaries := make([]CredentialSummary, 0, len(creds))
	for _, c := range creds {
		summaries = append(summaries, CredentialSummary{ID: c.ID, Type: c.Type, Status: "VALID"})
	}

	view := VerifyView{
		Microchip:   pet.Microchip,
		Name:        pet.Name,
		VerifiedBy:  "Pawsport Registry",
		Credentials: summaries,
	}
	if owner.ShareContact {
		phone := owner.Phone
		if phone == "" {
			phone = "N/A"
		}
		view.Contact = &ContactInfo{Phone: phone}
	}
	return view, nil
}

// BasicProfile is the consent-gated profile view.
type BasicProfile struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Species      string  `json:"species"`
	Breed        string  `json:"breed,omitempty"`
	Sex          string  `json:"sex,omitempty"`
	PhotoURL     string  `json:"photoUrl,omitempty"`
	AgeYears     float64 `json:"ageYears,omitempty"`
	LastWeightKg float64 `json:"lastWeightKg,omitempty"`
}

// GetBasicProfile returns the pet's basic profile. When scope is "clinic" the
// caller must name a grantee and hold an active on-chain consent grant from
// the pet; anything short of an explicit grant is refused.
func (s *Service) GetBasicProfile(ctx context.Context, petID, scope, granteeDID string) (BasicProfile, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "identity.GetBasicProfile")
	defer span.End()

	pet, err := s.GetPet(ctx, petID)
	if err != nil {
		return BasicProfile{}, err
	}

	if scope == "clinic" {
		if granteeDID == "" {
			return BasicProfile{}, dErrors.New(dErrors.CodeBadRequest, "granteeDID is required for scope=clinic")
		}
		state, err := s.deps.Ledger.ConsentStatus(ctx, pet.DID, granteeDID)
		if err != nil {
			if ledger.IsUnavailable(err) {
				return BasicProfile{}, dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, "ledger unavailable")
			}
			return BasicProfile{}, err
		}
		if state != ledger.ConsentGranted {
			return BasicProfile{}, dErrors.New(dErrors.CodeForbidden, "consent not granted")
		}
	}

	return BasicProfile{
		ID:           pet.ID,
		Name:         pet.Name,
		Species:      pet.Species,
		Breed:        pet.Breed,
		Sex:          pet.Sex,
		PhotoURL:     pet.PhotoURL,
		AgeYears:     pet.AgeYears,
		LastWeightKg: pet.LastWeightKg,
	}, nil
}

// AppointmentInput schedules a visit. No ledger write happens here.
type AppointmentInput struct {
	PetID     string
	VetDID    string
	ClinicDID string
	Reason    string
}

func (s *Service) CreateAppointment(ctx context.Context, in AppointmentInput) (domain.Appointment, error) {
	ctx, span := s.deps.Tracer.Start(ctx, "identity.CreateAppointment")
	defer span.End()

	if _, err := s.GetPet(ctx, in.PetID); err != nil {
		return domain.Appointment{}, err
	}
	appt := domain.Appointment{
		ID:        s.deps.IDs.New(),
		PetID:     in.PetID,
		VetDID:    in.VetDID,
		ClinicDID: in.ClinicDID,
		Reason:    in.Reason,
		CreatedAt: s.deps.Now(),
	}
	if err := s.deps.Appointments.Save(ctx, appt); err != nil {
		return domain.Appointment{}, err
	}

	s.append(ctx, audit.Entry{
		Action:   audit.ActionAppointmentCreated,
		RefID:    appt.ID,
		Metadata: map[string]any{"petId": appt.PetID},
	})
	return appt, nil
}

func (s *Service) append(ctx context.Context, entry audit.Entry) {
	entry.Timestamp = s.deps.Now()
	if err := s.deps.Audit.Append(ctx, entry); err != nil {
		s.deps.Logger.ErrorContext(ctx, "audit append failed",
			"action", string(entry.Action), "error", err)
	}
}

// nullable maps an empty optional string to an explicit JSON null so the core
// profile fingerprint distinguishes absent fields from empty ones.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
