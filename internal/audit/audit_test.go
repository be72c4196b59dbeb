package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryLog(t *testing.T) {
	ctx := context.Background()
	log := NewInMemoryLog()

	require.NoError(t, log.Append(ctx, Entry{Action: ActionPetRegistered, RefID: "p1"}))
	require.NoError(t, log.Append(ctx, Entry{Action: ActionConsentGranted, RefID: "r1", TxHash: "0xabc"}))

	entries, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ActionPetRegistered, entries[0].Action)
	assert.Equal(t, ActionConsentGranted, entries[1].Action)
}

func TestLevelDBLog(t *testing.T) {
	ctx := context.Background()

	t.Run("append and list keep insertion order", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.db")
		log, err := OpenLevelDBLog(path)
		require.NoError(t, err)
		defer log.Close()

		ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		for i, action := range []Action{ActionPetRegistered, ActionEncounterAnchored, ActionConsentGranted} {
			require.NoError(t, log.Append(ctx, Entry{
				Action:    action,
				RefID:     "ref",
				Timestamp: ts.Add(time.Duration(i) * time.Minute),
			}))
		}

		entries, err := log.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, ActionPetRegistered, entries[0].Action)
		assert.Equal(t, ActionEncounterAnchored, entries[1].Action)
		assert.Equal(t, ActionConsentGranted, entries[2].Action)
	})

	t.Run("sequence survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.db")

		log, err := OpenLevelDBLog(path)
		require.NoError(t, err)
		require.NoError(t, log.Append(ctx, Entry{Action: ActionPetRegistered, RefID: "p1"}))
		require.NoError(t, log.Close())

		log, err = OpenLevelDBLog(path)
		require.NoError(t, err)
		defer log.Close()
		require.NoError(t, log.Append(ctx, Entry{Action: ActionVaccineAnchored, RefID: "v1"}))

		entries, err := log.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, ActionPetRegistered, entries[0].Action)
		assert.Equal(t, ActionVaccineAnchored, entries[1].Action)
	})

	t.Run("metadata round trips", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "audit.db")
		log, err := OpenLevelDBLog(path)
		require.NoError(t, err)
		defer log.Close()

		require.NoError(t, log.Append(ctx, Entry{
			Action:   ActionCredentialAdded,
			RefID:    "c1",
			Metadata: map[string]any{"type": "HealthCert", "anchored": true},
		}))

		entries, err := log.List(ctx)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "HealthCert", entries[0].Metadata["type"])
		assert.Equal(t, true, entries[0].Metadata["anchored"])
	})
}
