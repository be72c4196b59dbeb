// Package audit provides the append-only domain event log. Every
// state-changing operation appends exactly one entry after its outcome is
// known; aborted operations with no persisted effect append nothing. Entries
// are never mutated or removed and keep total insertion order.
package audit

import (
	"context"
	"time"
)

// Action tags the operation an entry records.
type Action string

const (
	ActionPetRegistered         Action = "PET_REGISTERED"
	ActionAppointmentCreated    Action = "APPOINTMENT_CREATED"
	ActionRecordAnchored        Action = "RECORD_ANCHORED"
	ActionVetRegistered         Action = "VET_REGISTERED"
	ActionEncounterAnchored     Action = "ENCOUNTER_ANCHORED"
	ActionVaccineAnchored       Action = "VACCINE_ANCHORED"
	ActionVaccineVerified       Action = "VC_VERIFIED_MOCK"
	ActionCredentialAdded       Action = "CREDENTIAL_ADDED"
	ActionConsentRequestCreated Action = "CONSENT_REQUEST_CREATED"
	ActionConsentGranted        Action = "CONSENT_GRANTED"
	ActionConsentRevoked        Action = "CONSENT_REVOKED"
)

// Entry is a single audit event. TxHash is set when the operation produced a
// ledger receipt.
type Entry struct {
	Action    Action         `json:"action"`
	RefID     string         `json:"refId,omitempty"`
	TxHash    string         `json:"txHash,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Log is the append-only sink.
type Log interface {
	Append(ctx context.Context, entry Entry) error
	List(ctx context.Context) ([]Entry, error)
}
