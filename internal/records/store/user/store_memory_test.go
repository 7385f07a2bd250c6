package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquita/internal/records/models"
	"aquita/pkg/platform/sentinel"
)

func testRecord(nationalID string) models.IdentityRecord {
	return models.IdentityRecord{
		FirstName:  "Juan",
		LastName:   "Perez",
		NationalID: nationalID,
		Phone:      "04121234567",
		Status:     models.UserStatusVerified,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestCreateAndFind(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	record := testRecord("V-12345678")
	require.NoError(t, store.Create(ctx, record))

	found, err := store.FindByNationalID(ctx, "V-12345678")
	require.NoError(t, err)
	assert.Equal(t, record, found)
}

func TestCreateDuplicateConflicts(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testRecord("V-12345678")))

	err := store.Create(ctx, testRecord("V-12345678"))
	assert.ErrorIs(t, err, sentinel.ErrConflict)
}

func TestFindUnknownNotFound(t *testing.T) {
	store := NewInMemoryStore()

	_, err := store.FindByNationalID(context.Background(), "E-99999999")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
