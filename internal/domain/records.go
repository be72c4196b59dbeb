package domain

import "time"

// EncounterRecord is a clinical visit anchored on the ledger. Immutable once
// anchored; a failed anchor attempt must not leave a record behind.
type EncounterRecord struct {
	ID         string
	PetID      string
	VetDID     string
	ClinicDID  string
	Reason     string
	Notes      string
	Vitals     map[string]any
	URI        string
	RecordHash string
	Receipt    *Receipt
	CreatedAt  time.Time
}

// VaccineRecord carries up to two receipts: the anchor write and an optional
// verification write. The verify receipt may be absent when the verifying
// party was not supplied or the verify step failed; its absence is surfaced,
// not treated as an error.
type VaccineRecord struct {
	ID            string
	PetID         string
	VetDID        string
	ClinicDID     string
	Vaccine       map[string]any
	Attachments   []any
	URI           string
	RecordHash    string
	AnchorReceipt *Receipt
	VerifyReceipt *Receipt
	CreatedAt     time.Time
}

// Credential is a generic verifiable claim (health certificate, pedigree,
// ownership). Unlike clinical records, issuance tolerates ledger absence:
// Receipt is nil when the credential was persisted off-chain only.
type Credential struct {
	ID         string
	PetID      string
	Type       string
	Data       map[string]any
	URI        string
	RecordHash string
	Receipt    *Receipt
	IssuedAt   time.Time
}

// Appointment is a scheduled visit. No ledger write is involved.
type Appointment struct {
	ID        string
	PetID     string
	VetDID    string
	ClinicDID string
	Reason    string
	CreatedAt time.Time
}
