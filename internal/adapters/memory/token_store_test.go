package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakunasanka/Sona-frontend-admin-sub000/internal/ports"
)

func TestTokenStore_SaveGetDelete(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	_, err := store.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ports.ErrTokenNotFound)

	require.NoError(t, store.Save(ctx, "sid-1", "first"))
	require.NoError(t, store.Save(ctx, "sid-1", "second"))

	tok, err := store.Get(ctx, "sid-1")
	require.NoError(t, err)
	assert.Equal(t, "second", tok, "save overwrites the prior value")

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Get(ctx, "sid-1")
	require.ErrorIs(t, err, ports.ErrTokenNotFound)

	// Deleting a missing session is not an error.
	require.NoError(t, store.Delete(ctx, "sid-1"))
}

func TestTokenStore_RejectsEmptySessionID(t *testing.T) {
	store := NewTokenStore()
	require.Error(t, store.Save(context.Background(), "", "tok"))
	assert.Equal(t, 0, store.Len())
}

func TestTokenStore_ConcurrentSessions(t *testing.T) {
	store := NewTokenStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sid := fmt.Sprintf("sid-%d", i)
			assert.NoError(t, store.Save(ctx, sid, "tok"))
			_, err := store.Get(ctx, sid)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 50, store.Len())
}
