package identity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	dErrors "pawsport/pkg/domain-errors"

	"pawsport/internal/audit"
	"pawsport/internal/canonical"
	"pawsport/internal/domain"
	"pawsport/internal/ledger"
	"pawsport/internal/storage"
)

type idFunc func() string

func (f idFunc) New() string { return f() }

type fixture struct {
	svc      *Service
	sim      *ledger.Simulator
	owners   *storage.InMemoryOwnerStore
	pets     *storage.InMemoryPetStore
	creds    *storage.InMemoryCredentialStore
	auditLog *audit.InMemoryLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		sim:      ledger.NewSimulator(),
		owners:   storage.NewInMemoryOwnerStore(),
		pets:     storage.NewInMemoryPetStore(),
		creds:    storage.NewInMemoryCredentialStore(),
		auditLog: audit.NewInMemoryLog(),
	}
	n := 0
	f.svc = NewService(Deps{
		Owners:       f.owners,
		Pets:         f.pets,
		Appointments: storage.NewInMemoryAppointmentStore(),
		Credentials:  f.creds,
		Ledger:       f.sim,
		Audit:        f.auditLog,
		IDs: idFunc(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		Tokens:          NewTokenService("test-signing-key", time.Hour),
		Logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		Tracer:          otel.Tracer("test"),
		Now:             func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		VetAddresses:    []string{"0xVetOne"},
		KennelAddresses: []string{"0xkennel"},
	})
	return f
}

func (f *fixture) registerOwnerAndPet(t *testing.T, microchip string) (domain.Owner, domain.Pet) {
	t.Helper()
	ctx := context.Background()
	session, err := f.svc.LoginEmail(ctx, "owner@example.com")
	require.NoError(t, err)
	owner, err := f.owners.FindByID(ctx, session.OwnerID)
	require.NoError(t, err)

	pet, err := f.svc.RegisterPet(ctx, RegisterPetInput{
		OwnerID:   owner.ID,
		DID:       "did:pet:1",
		Name:      "Luna",
		Species:   "dog",
		Breed:     "corgi",
		Microchip: microchip,
	})
	require.NoError(t, err)
	return owner, pet
}

func TestLoginEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("first login creates the owner", func(t *testing.T) {
		f := newFixture(t)
		session, err := f.svc.LoginEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.NotEmpty(t, session.Token)

		owner, err := f.owners.FindByID(ctx, session.OwnerID)
		require.NoError(t, err)
		assert.Equal(t, "a@example.com", owner.Email)
		assert.True(t, owner.ShareContact)
	})

	t.Run("second login reuses the owner", func(t *testing.T) {
		f := newFixture(t)
		s1, err := f.svc.LoginEmail(ctx, "a@example.com")
		require.NoError(t, err)
		s2, err := f.svc.LoginEmail(ctx, "a@example.com")
		require.NoError(t, err)
		assert.Equal(t, s1.OwnerID, s2.OwnerID)
	})

	t.Run("token validates and carries the owner", func(t *testing.T) {
		f := newFixture(t)
		session, err := f.svc.LoginEmail(ctx, "a@example.com")
		require.NoError(t, err)

		claims, err := f.svc.deps.Tokens.Validate(session.Token)
		require.NoError(t, err)
		assert.Equal(t, session.OwnerID, claims.OwnerID)
		assert.Equal(t, "a@example.com", claims.Email)
	})

	t.Run("invalid email is refused", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.LoginEmail(ctx, "not-an-email")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeValidation))
	})
}

func TestWalletConnect(t *testing.T) {
	f := newFixture(t)

	roles := f.svc.WalletConnect("0xvetone")
	assert.True(t, roles.IsVeterinarian)
	assert.False(t, roles.IsKennelClub)

	roles = f.svc.WalletConnect("0xKENNEL")
	assert.False(t, roles.IsVeterinarian)
	assert.True(t, roles.IsKennelClub)

	roles = f.svc.WalletConnect("0xnobody")
	assert.False(t, roles.IsVeterinarian)
	assert.False(t, roles.IsKennelClub)
}

func TestRegisterPet(t *testing.T) {
	ctx := context.Background()

	t.Run("fingerprint covers exactly the core profile", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "chip-1")

		expected, err := canonical.FingerprintValue(map[string]any{
			"name":      "Luna",
			"species":   "dog",
			"breed":     "corgi",
			"sex":       nil,
			"microchip": "chip-1",
		})
		require.NoError(t, err)
		assert.Equal(t, expected, pet.Hash)
		assert.Equal(t, 100, pet.PawScore)
	})

	t.Run("photo does not affect the fingerprint", func(t *testing.T) {
		f := newFixture(t)
		session, err := f.svc.LoginEmail(ctx, "b@example.com")
		require.NoError(t, err)

		p1, err := f.svc.RegisterPet(ctx, RegisterPetInput{
			OwnerID: session.OwnerID, DID: "did:pet:a", Name: "Max", Species: "cat",
		})
		require.NoError(t, err)
		p2, err := f.svc.RegisterPet(ctx, RegisterPetInput{
			OwnerID: session.OwnerID, DID: "did:pet:b", Name: "Max", Species: "cat",
			PhotoURL: "https://example.com/max.jpg",
		})
		require.NoError(t, err)
		assert.Equal(t, p1.Hash, p2.Hash)
	})

	t.Run("duplicate microchip conflicts", func(t *testing.T) {
		f := newFixture(t)
		owner, _ := f.registerOwnerAndPet(t, "chip-1")

		_, err := f.svc.RegisterPet(ctx, RegisterPetInput{
			OwnerID: owner.ID, DID: "did:pet:2", Name: "Max", Species: "cat", Microchip: "chip-1",
		})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	})

	t.Run("unknown owner", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.RegisterPet(ctx, RegisterPetInput{
			OwnerID: "nope", DID: "did:pet:1", Name: "Luna", Species: "dog",
		})
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})

	t.Run("registration audits", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "")

		entries, err := f.auditLog.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, audit.ActionPetRegistered, entries[0].Action)
		assert.Equal(t, pet.ID, entries[0].RefID)
	})
}

func TestPublicVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("contact shown when the owner shares it", func(t *testing.T) {
		f := newFixture(t)
		owner, _ := f.registerOwnerAndPet(t, "chip-1")
		owner.Phone = "+1-555-0100"
		require.NoError(t, f.owners.Save(ctx, owner))

		view, err := f.svc.PublicVerify(ctx, "chip-1")
		require.NoError(t, err)
		require.NotNil(t, view.Contact)
		assert.Equal(t, "+1-555-0100", view.Contact.Phone)
		assert.Equal(t, "Luna", view.Name)
	})

	t.Run("contact hidden when sharing is off", func(t *testing.T) {
		f := newFixture(t)
		owner, _ := f.registerOwnerAndPet(t, "chip-1")
		owner.ShareContact = false
		require.NoError(t, f.owners.Save(ctx, owner))

		view, err := f.svc.PublicVerify(ctx, "chip-1")
		require.NoError(t, err)
		assert.Nil(t, view.Contact)
	})

	t.Run("credentials summarized", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "chip-1")
		require.NoError(t, f.creds.Save(ctx, domain.Credential{ID: "c1", PetID: pet.ID, Type: "Vaccine"}))

		view, err := f.svc.PublicVerify(ctx, "chip-1")
		require.NoError(t, err)
		require.Len(t, view.Credentials, 1)
		assert.Equal(t, "Vaccine", view.Credentials[0].Type)
		assert.Equal(t, "VALID", view.Credentials[0].Status)
	})

	t.Run("unknown microchip", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.PublicVerify(ctx, "chip-404")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
	})
}

func TestGetBasicProfile(t *testing.T) {
	ctx := context.Background()
	grantHash := "0x4444444444444444444444444444444444444444444444444444444444444444"

	t.Run("open scope needs no consent", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "")

		profile, err := f.svc.GetBasicProfile(ctx, pet.ID, "", "")
		require.NoError(t, err)
		assert.Equal(t, "Luna", profile.Name)
	})

	t.Run("clinic scope without grantee is a bad request", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "")

		_, err := f.svc.GetBasicProfile(ctx, pet.ID, "clinic", "")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest))
	})

	t.Run("clinic scope without a grant is forbidden", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "")

		_, err := f.svc.GetBasicProfile(ctx, pet.ID, "clinic", "did:clinic:1")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})

	t.Run("clinic scope with an active grant succeeds", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "")
		_, err := f.sim.GrantConsent(ctx, pet.DID, "did:clinic:1", grantHash)
		require.NoError(t, err)

		profile, err := f.svc.GetBasicProfile(ctx, pet.ID, "clinic", "did:clinic:1")
		require.NoError(t, err)
		assert.Equal(t, pet.ID, profile.ID)
	})

	t.Run("revoked grant is forbidden again", func(t *testing.T) {
		f := newFixture(t)
		_, pet := f.registerOwnerAndPet(t, "")
		_, err := f.sim.GrantConsent(ctx, pet.DID, "did:clinic:1", grantHash)
		require.NoError(t, err)
		_, err = f.sim.RevokeConsent(ctx, pet.DID, "did:clinic:1")
		require.NoError(t, err)

		_, err = f.svc.GetBasicProfile(ctx, pet.ID, "clinic", "did:clinic:1")
		require.Error(t, err)
		assert.True(t, dErrors.Is(err, dErrors.CodeForbidden))
	})
}

func TestCreateAppointment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, pet := f.registerOwnerAndPet(t, "")

	appt, err := f.svc.CreateAppointment(ctx, AppointmentInput{
		PetID:     pet.ID,
		ClinicDID: "did:clinic:1",
		Reason:    "annual checkup",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, appt.ID)

	_, err = f.svc.CreateAppointment(ctx, AppointmentInput{PetID: "nope"})
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeNotFound))
}

func TestPawsport(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, pet := f.registerOwnerAndPet(t, "chip-1")
	require.NoError(t, f.creds.Save(ctx, domain.Credential{ID: "c1", PetID: pet.ID, Type: "Vaccine"}))

	view, err := f.svc.Pawsport(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Luna", view.Profile.Name)
	assert.Equal(t, "chip-1", view.Profile.Microchip)
	require.Len(t, view.Credentials, 1)
}
