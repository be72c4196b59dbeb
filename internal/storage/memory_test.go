package storage

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawsport/pkg/platform/sentinel"

	"pawsport/internal/domain"
)

func TestInMemoryPetStore(t *testing.T) {
	ctx := context.Background()

	t.Run("microchip is unique across pets", func(t *testing.T) {
		s := NewInMemoryPetStore()
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p1", Microchip: "chip-1"}))

		err := s.Save(ctx, domain.Pet{ID: "p2", Microchip: "chip-1"})
		require.Error(t, err)
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		// Re-saving the same pet keeps its claim.
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p1", Microchip: "chip-1"}))
	})

	t.Run("find by microchip", func(t *testing.T) {
		s := NewInMemoryPetStore()
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p1", Microchip: "chip-1", Name: "Luna"}))

		pet, err := s.FindByMicrochip(ctx, "chip-1")
		require.NoError(t, err)
		assert.Equal(t, "p1", pet.ID)

		_, err = s.FindByMicrochip(ctx, "chip-404")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("find by content fingerprint", func(t *testing.T) {
		s := NewInMemoryPetStore()
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p1", Hash: "0xaaa"}))

		pet, err := s.FindByHash(ctx, "0xaaa")
		require.NoError(t, err)
		assert.Equal(t, "p1", pet.ID)

		_, err = s.FindByHash(ctx, "0xbbb")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("list by owner", func(t *testing.T) {
		s := NewInMemoryPetStore()
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p1", OwnerID: "o1"}))
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p2", OwnerID: "o1"}))
		require.NoError(t, s.Save(ctx, domain.Pet{ID: "p3", OwnerID: "o2"}))

		pets, err := s.ListByOwner(ctx, "o1")
		require.NoError(t, err)
		assert.Len(t, pets, 2)
	})
}

func TestInMemoryOwnerStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryOwnerStore()
	require.NoError(t, s.Save(ctx, domain.Owner{ID: "o1", Email: "a@example.com"}))

	owner, err := s.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "o1", owner.ID)

	_, err = s.FindByEmail(ctx, "b@example.com")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryConsentRequestStore(t *testing.T) {
	ctx := context.Background()

	t.Run("update transforms under the lock", func(t *testing.T) {
		s := NewInMemoryConsentRequestStore()
		require.NoError(t, s.Save(ctx, domain.ConsentRequest{ID: "r1", Status: domain.ConsentPending}))

		updated, err := s.Update(ctx, "r1", func(cur domain.ConsentRequest) (domain.ConsentRequest, error) {
			cur.Status = domain.ConsentAccepted
			cur.ConsentHash = "0xabc"
			return cur, nil
		})
		require.NoError(t, err)
		assert.Equal(t, domain.ConsentAccepted, updated.Status)

		stored, err := s.FindByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "0xabc", stored.ConsentHash)
	})

	t.Run("update of unknown id fails", func(t *testing.T) {
		s := NewInMemoryConsentRequestStore()
		_, err := s.Update(ctx, "nope", func(cur domain.ConsentRequest) (domain.ConsentRequest, error) {
			return cur, nil
		})
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("concurrent updates keep the terminal state", func(t *testing.T) {
		s := NewInMemoryConsentRequestStore()
		require.NoError(t, s.Save(ctx, domain.ConsentRequest{ID: "r1", Status: domain.ConsentPending}))

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = s.Update(ctx, "r1", func(cur domain.ConsentRequest) (domain.ConsentRequest, error) {
					if cur.Status == domain.ConsentAccepted {
						return cur, nil
					}
					cur.Status = domain.ConsentAccepted
					return cur, nil
				})
			}()
		}
		wg.Wait()

		stored, err := s.FindByID(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, domain.ConsentAccepted, stored.Status)
	})
}

func TestInMemoryCredentialStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryCredentialStore()
	require.NoError(t, s.Save(ctx, domain.Credential{ID: "c1", PetID: "p1", Type: "Vaccine"}))
	require.NoError(t, s.Save(ctx, domain.Credential{ID: "c2", PetID: "p1", Type: "HealthCert"}))
	require.NoError(t, s.Save(ctx, domain.Credential{ID: "c3", PetID: "p2", Type: "Vaccine"}))

	creds, err := s.ListByPet(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, creds, 2)
	// Newest first.
	assert.Equal(t, "c2", creds[0].ID)
	assert.Equal(t, "c1", creds[1].ID)
}
