package storage

import (
	"context"
	"sync"

	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/domain"
)

// In-memory stores keep the initial implementation lightweight and testable.
// They intentionally favor clarity over performance.

type InMemoryOwnerStore struct {
	mu     sync.RWMutex
	owners map[string]domain.Owner
}

func NewInMemoryOwnerStore() *InMemoryOwnerStore {
	return &InMemoryOwnerStore{owners: make(map[string]domain.Owner)}
}

func (s *InMemoryOwnerStore) Save(_ context.Context, owner domain.Owner) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner.ID] = owner
	return nil
}

func (s *InMemoryOwnerStore) FindByID(_ context.Context, id string) (domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if owner, ok := s.owners[id]; ok {
		return owner, nil
	}
	return domain.Owner{}, sentinel.ErrNotFound
}

func (s *InMemoryOwnerStore) FindByEmail(_ context.Context, email string) (domain.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, owner := range s.owners {
		if owner.Email == email {
			return owner, nil
		}
	}
	return domain.Owner{}, sentinel.ErrNotFound
}

type InMemoryPetStore struct {
	mu          sync.RWMutex
	pets        map[string]domain.Pet
	byMicrochip map[string]string // microchip -> pet id
}

func NewInMemoryPetStore() *InMemoryPetStore {
	return &InMemoryPetStore{
		pets:        make(map[string]domain.Pet),
		byMicrochip: make(map[string]string),
	}
}

func (s *InMemoryPetStore) Save(_ context.Context, pet domain.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pet.Microchip != "" {
		if claimed, ok := s.byMicrochip[pet.Microchip]; ok && claimed != pet.ID {
			return sentinel.ErrConflict
		}
	}
	s.pets[pet.ID] = pet
	if pet.Microchip != "" {
		s.byMicrochip[pet.Microchip] = pet.ID
	}
	return nil
}

func (s *InMemoryPetStore) FindByID(_ context.Context, id string) (domain.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if pet, ok := s.pets[id]; ok {
		return pet, nil
	}
	return domain.Pet{}, sentinel.ErrNotFound
}

func (s *InMemoryPetStore) FindByMicrochip(_ context.Context, microchip string) (domain.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byMicrochip[microchip]; ok {
		return s.pets[id], nil
	}
	return domain.Pet{}, sentinel.ErrNotFound
}

// FindByHash scans all pets for a matching content fingerprint. Linear, but
// correctness-preserving; a secondary index can replace it without changing
// callers.
func (s *InMemoryPetStore) FindByHash(_ context.Context, hash string) (domain.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, pet := range s.pets {
		if pet.Hash == hash {
			return pet, nil
		}
	}
	return domain.Pet{}, sentinel.ErrNotFound
}

func (s *InMemoryPetStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Pet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Pet
	for _, pet := range s.pets {
		if pet.OwnerID == ownerID {
			out = append(out, pet)
		}
	}
	return out, nil
}

type InMemoryConsentRequestStore struct {
	mu       sync.Mutex
	requests map[string]domain.ConsentRequest
}

func NewInMemoryConsentRequestStore() *InMemoryConsentRequestStore {
	return &InMemoryConsentRequestStore{requests: make(map[string]domain.ConsentRequest)}
}

func (s *InMemoryConsentRequestStore) Save(_ context.Context, req domain.ConsentRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[req.ID] = req
	return nil
}

func (s *InMemoryConsentRequestStore) FindByID(_ context.Context, id string) (domain.ConsentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if req, ok := s.requests[id]; ok {
		return req, nil
	}
	return domain.ConsentRequest{}, sentinel.ErrNotFound
}

// Update applies fn to the current value under the write lock, making the
// read-modify-write atomic with respect to other Update and Save calls.
func (s *InMemoryConsentRequestStore) Update(_ context.Context, id string, fn func(domain.ConsentRequest) (domain.ConsentRequest, error)) (domain.ConsentRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.requests[id]
	if !ok {
		return domain.ConsentRequest{}, sentinel.ErrNotFound
	}
	next, err := fn(cur)
	if err != nil {
		return domain.ConsentRequest{}, err
	}
	s.requests[id] = next
	return next, nil
}

type InMemoryAppointmentStore struct {
	mu           sync.RWMutex
	appointments map[string]domain.Appointment
}

func NewInMemoryAppointmentStore() *InMemoryAppointmentStore {
	return &InMemoryAppointmentStore{appointments: make(map[string]domain.Appointment)}
}

func (s *InMemoryAppointmentStore) Save(_ context.Context, appt domain.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[appt.ID] = appt
	return nil
}

func (s *InMemoryAppointmentStore) FindByID(_ context.Context, id string) (domain.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if appt, ok := s.appointments[id]; ok {
		return appt, nil
	}
	return domain.Appointment{}, sentinel.ErrNotFound
}

type InMemoryEncounterStore struct {
	mu         sync.RWMutex
	encounters map[string]domain.EncounterRecord
}

func NewInMemoryEncounterStore() *InMemoryEncounterStore {
	return &InMemoryEncounterStore{encounters: make(map[string]domain.EncounterRecord)}
}

func (s *InMemoryEncounterStore) Save(_ context.Context, rec domain.EncounterRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.encounters[rec.ID] = rec
	return nil
}

func (s *InMemoryEncounterStore) FindByID(_ context.Context, id string) (domain.EncounterRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.encounters[id]; ok {
		return rec, nil
	}
	return domain.EncounterRecord{}, sentinel.ErrNotFound
}

type InMemoryVaccineStore struct {
	mu       sync.RWMutex
	vaccines map[string]domain.VaccineRecord
}

func NewInMemoryVaccineStore() *InMemoryVaccineStore {
	return &InMemoryVaccineStore{vaccines: make(map[string]domain.VaccineRecord)}
}

func (s *InMemoryVaccineStore) Save(_ context.Context, rec domain.VaccineRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vaccines[rec.ID] = rec
	return nil
}

func (s *InMemoryVaccineStore) FindByID(_ context.Context, id string) (domain.VaccineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.vaccines[id]; ok {
		return rec, nil
	}
	return domain.VaccineRecord{}, sentinel.ErrNotFound
}

type InMemoryCredentialStore struct {
	mu    sync.RWMutex
	byPet map[string][]domain.Credential
}

func NewInMemoryCredentialStore() *InMemoryCredentialStore {
	return &InMemoryCredentialStore{byPet: make(map[string][]domain.Credential)}
}

func (s *InMemoryCredentialStore) Save(_ context.Context, cred domain.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest first, matching the presentation order of credential lists.
	s.byPet[cred.PetID] = append([]domain.Credential{cred}, s.byPet[cred.PetID]...)
	return nil
}

func (s *InMemoryCredentialStore) ListByPet(_ context.Context, petID string) ([]domain.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Credential{}, s.byPet[petID]...), nil
}
