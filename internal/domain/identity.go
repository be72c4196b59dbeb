package domain

import "time"

// Owner is the party a pet belongs to. ShareContact controls whether the
// public verification view exposes contact details.
type Owner struct {
	ID           string
	Email        string
	Name         string
	Phone        string
	ShareContact bool
}

// Pet is an identity subject. Hash is the content fingerprint of the core
// identity profile (name, species, breed, sex, microchip) and is fixed at
// registration. Microchip, when present, is unique across all pets.
type Pet struct {
	ID           string
	OwnerID      string
	DID          string
	OwnerDID     string
	Name         string
	Species      string
	Breed        string
	Sex          string
	Microchip    string
	PhotoURL     string
	AgeYears     float64
	LastWeightKg float64
	PawScore     int
	Hash         string
	CreatedAt    time.Time
}

// Session binds a login token to an owner.
type Session struct {
	Token     string
	OwnerID   string
	Email     string
	CreatedAt time.Time
}
