package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"teambridge/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) *Database {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})
	return db
}

func TestNewInvalidPath(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestRecordAndListDispatches(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	records := []models.HistoryRecord{
		{PlayerName: "Steve", Streamer: "ninja", Action: models.ActionAdd, Outcome: models.OutcomeApplied, CreatedAt: base},
		{PlayerName: "Alex", Streamer: "pokime", Action: models.ActionRemove, Outcome: models.OutcomeFallback, CreatedAt: base.Add(time.Minute)},
		{PlayerName: "Herobrine", Streamer: "ninja", Action: models.ActionAdd, Outcome: models.OutcomePending, CreatedAt: base.Add(2 * time.Minute)},
	}
	for _, record := range records {
		require.NoError(t, db.RecordDispatch(ctx, record))
	}

	listed, err := db.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, listed, 3)

	// Newest first.
	assert.Equal(t, "Herobrine", listed[0].PlayerName)
	assert.Equal(t, models.OutcomePending, listed[0].Outcome)
	assert.Equal(t, "Alex", listed[1].PlayerName)
	assert.Equal(t, models.ActionRemove, listed[1].Action)
	assert.Equal(t, "Steve", listed[2].PlayerName)
}

func TestListRecentLimit(t *testing.T) {
	db := newTestDatabase(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, db.RecordDispatch(ctx, models.HistoryRecord{
			PlayerName: "Steve",
			Streamer:   "ninja",
			Action:     models.ActionAdd,
			Outcome:    models.OutcomeApplied,
			CreatedAt:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}))
	}

	listed, err := db.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestListRecentEmpty(t *testing.T) {
	db := newTestDatabase(t)

	listed, err := db.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestEncryptionRoundTrip(t *testing.T) {
	t.Setenv("TEAMBRIDGE_ENABLE_ENCRYPTION", "true")
	t.Setenv("TEAMBRIDGE_ENCRYPTION_SECRET", "a-very-long-test-secret-of-32-plus-chars")

	enc, err := newEncryptor()
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("Steve")
	require.NoError(t, err)
	assert.NotEqual(t, "Steve", ciphertext)

	plaintext, err := enc.Decrypt(ciphertext)
	require.NoError(t, err)
	assert.Equal(t, "Steve", plaintext)
}

func TestEncryptionDisabledPassthrough(t *testing.T) {
	t.Setenv("TEAMBRIDGE_ENABLE_ENCRYPTION", "false")

	enc, err := newEncryptor()
	require.NoError(t, err)

	ciphertext, err := enc.Encrypt("Steve")
	require.NoError(t, err)
	assert.Equal(t, "Steve", ciphertext)
}

func TestEncryptionRequiresSecret(t *testing.T) {
	t.Setenv("TEAMBRIDGE_ENABLE_ENCRYPTION", "true")
	t.Setenv("TEAMBRIDGE_ENCRYPTION_SECRET", "")

	_, err := newEncryptor()
	assert.Error(t, err)
}

func TestEncryptionRejectsShortSecret(t *testing.T) {
	t.Setenv("TEAMBRIDGE_ENABLE_ENCRYPTION", "true")
	t.Setenv("TEAMBRIDGE_ENCRYPTION_SECRET", "short")

	_, err := newEncryptor()
	assert.Error(t, err)
}

func TestEncryptedRecordsDecryptOnList(t *testing.T) {
	t.Setenv("TEAMBRIDGE_ENABLE_ENCRYPTION", "true")
	t.Setenv("TEAMBRIDGE_ENCRYPTION_SECRET", "another-very-long-test-secret-of-32-chars")

	db := newTestDatabase(t)
	ctx := context.Background()

	require.NoError(t, db.RecordDispatch(ctx, models.HistoryRecord{
		PlayerName: "Steve",
		Streamer:   "ninja",
		Action:     models.ActionAdd,
		Outcome:    models.OutcomeApplied,
		CreatedAt:  time.Now().UTC(),
	}))

	listed, err := db.ListRecent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "Steve", listed[0].PlayerName)
}
