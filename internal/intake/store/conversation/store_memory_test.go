package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aquita/internal/intake/models"
	"aquita/pkg/platform/sentinel"
)

func TestInMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	_, err := store.Get(ctx, "584121234567@c.us")
	require.ErrorIs(t, err, sentinel.ErrNotFound)

	state := models.NewState()
	state.Step = models.StepFirstName
	require.NoError(t, store.Save(ctx, "584121234567@c.us", state))

	got, err := store.Get(ctx, "584121234567@c.us")
	require.NoError(t, err)
	assert.Equal(t, models.StepFirstName, got.Step)

	// Mutations on the returned copy do not leak back into the store.
	got.FirstName = "Juan"
	stored, err := store.Get(ctx, "584121234567@c.us")
	require.NoError(t, err)
	assert.Empty(t, stored.FirstName)

	require.NoError(t, store.Delete(ctx, "584121234567@c.us"))
	_, err = store.Get(ctx, "584121234567@c.us")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreIsolatesSenders(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryStore()

	a := models.State{Step: models.StepPhone, FirstName: "Ana"}
	b := models.State{Step: models.StepStreamCity, StreamLink: "https://twitch.tv/x"}
	require.NoError(t, store.Save(ctx, "a@c.us", a))
	require.NoError(t, store.Save(ctx, "b@c.us", b))

	gotA, err := store.Get(ctx, "a@c.us")
	require.NoError(t, err)
	gotB, err := store.Get(ctx, "b@c.us")
	require.NoError(t, err)
	assert.Equal(t, a, gotA)
	assert.Equal(t, b, gotB)
}
