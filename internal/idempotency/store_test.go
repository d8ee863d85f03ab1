package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewStore(rdb, time.Hour), mr
}

func TestReserveAndFinalize(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, err := store.Lookup(ctx, "k1", "h1")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := store.Reserve(ctx, "k1", "h1", "POST", "/api/v1/wallet/add-money")
	require.NoError(t, err)
	require.True(t, ok)

	// While reserved the key reads as in progress.
	_, err = store.Lookup(ctx, "k1", "h1")
	require.ErrorIs(t, err, ErrInProgress)

	// A second reservation loses the race.
	ok, err = store.Reserve(ctx, "k1", "h1", "POST", "/api/v1/wallet/add-money")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Finalize(ctx, "k1", "h1", 201, []byte(`{"ok":true}`), "application/json")
	require.NoError(t, err)

	rec, err := store.Lookup(ctx, "k1", "h1")
	require.NoError(t, err)
	assert.Equal(t, 201, rec.Status)
	assert.JSONEq(t, `{"ok":true}`, string(rec.Body))
	assert.Equal(t, "application/json", rec.ContentType)
}

func TestLookupHashMismatch(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k1", "h1", "POST", "/p")
	require.NoError(t, err)
	require.True(t, ok)
	_, err = store.Finalize(ctx, "k1", "h1", 200, nil, "application/json")
	require.NoError(t, err)

	_, err = store.Lookup(ctx, "k1", "other-hash")
	require.ErrorIs(t, err, ErrHashMismatch)
}

func TestReleaseAllowsRetry(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k1", "h1", "POST", "/p")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, store.Release(ctx, "k1"))

	ok, err = store.Reserve(ctx, "k1", "h1", "POST", "/p")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReservationExpires(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k1", "h1", "POST", "/p")
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Hour)

	_, err = store.Lookup(ctx, "k1", "h1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestWaitForCompletion(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "k1", "h1", "POST", "/p")
	require.NoError(t, err)
	require.True(t, ok)

	done := make(chan struct{})
	go func() {
		defer close(done)
		rec, err := store.WaitForCompletion(ctx, "k1", "h1")
		assert.NoError(t, err)
		if err == nil {
			assert.Equal(t, 200, rec.Status)
		}
	}()

	time.Sleep(80 * time.Millisecond)
	_, err = store.Finalize(ctx, "k1", "h1", 200, []byte("done"), "text/plain")
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not observe completion")
	}
}
