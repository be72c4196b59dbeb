// Package storage owns persistence for all entity collections. Stores are
// interface-driven to keep the domain logic testable and to allow swapping
// in-memory, file-based, or external persistence without rewiring business
// code. Infrastructure facts surface as pkg/platform/sentinel errors.
package storage

import (
	"context"

	"pawsport/internal/domain"
)

type OwnerStore interface {
	Save(ctx context.Context, owner domain.Owner) error
	FindByID(ctx context.Context, id string) (domain.Owner, error)
	FindByEmail(ctx context.Context, email string) (domain.Owner, error)
}

// PetStore indexes pets by primary key, by microchip (unique when present),
// and by content fingerprint. Save returns sentinel.ErrConflict when another
// pet already claims the microchip.
type PetStore interface {
	Save(ctx context.Context, pet domain.Pet) error
	FindByID(ctx context.Context, id string) (domain.Pet, error)
	FindByMicrochip(ctx context.Context, microchip string) (domain.Pet, error)
	FindByHash(ctx context.Context, hash string) (domain.Pet, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Pet, error)
}

// ConsentRequestStore serializes writers per request id: Update runs fn under
// the store's write lock against the current value and persists the result,
// so a race loser observes the post-race state instead of corrupting it.
type ConsentRequestStore interface {
	Save(ctx context.Context, req domain.ConsentRequest) error
	FindByID(ctx context.Context, id string) (domain.ConsentRequest, error)
	Update(ctx context.Context, id string, fn func(domain.ConsentRequest) (domain.ConsentRequest, error)) (domain.ConsentRequest, error)
}

type AppointmentStore interface {
	Save(ctx context.Context, appt domain.Appointment) error
	FindByID(ctx context.Context, id string) (domain.Appointment, error)
}

type EncounterStore interface {
	Save(ctx context.Context, rec domain.EncounterRecord) error
	FindByID(ctx context.Context, id string) (domain.EncounterRecord, error)
}

type VaccineStore interface {
	Save(ctx context.Context, rec domain.VaccineRecord) error
	FindByID(ctx context.Context, id string) (domain.VaccineRecord, error)
}

type CredentialStore interface {
	Save(ctx context.Context, cred domain.Credential) error
	ListByPet(ctx context.Context, petID string) ([]domain.Credential, error)
}
