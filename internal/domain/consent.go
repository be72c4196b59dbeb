package domain

import "time"

// ConsentRequestStatus is the consent request lifecycle. Accepted is terminal;
// a request never transitions back to pending.
type ConsentRequestStatus string

const (
	ConsentPending  ConsentRequestStatus = "pending"
	ConsentAccepted ConsentRequestStatus = "accepted"
)

// ConsentRequest tracks an off-chain consent request from creation to
// acceptance. ConsentHash and Receipt are set atomically with the transition
// to accepted and are present iff Status == ConsentAccepted.
type ConsentRequest struct {
	ID          string
	PetRef      string // pet id or pet content fingerprint as supplied
	VetDID      string
	ClinicDID   string
	SubjectDID  string
	GranteeDID  string
	Status      ConsentRequestStatus
	ConsentHash string
	Receipt     *Receipt
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
