// Package ids centralizes identifier generation so services receive it as an
// injected capability instead of calling a global in multiple places.
package ids

import "github.com/google/uuid"

// Generator produces collision-resistant identifiers.
type Generator interface {
	New() string
}

// UUID generates random (v4) UUIDs.
type UUID struct{}

func (UUID) New() string { return uuid.NewString() }
