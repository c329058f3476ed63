package boltdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/notesync/internal/client/storage"
)

func TestStorage_Session(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)

	_, err := store.GetAuth(ctx)
	require.ErrorIs(t, err, storage.ErrAuthNotFound)
	require.ErrorIs(t, store.DeleteAuth(ctx), storage.ErrAuthNotFound)

	steps := []struct {
		name   string
		auth   storage.AuthData
		authed bool
	}{
		{name: "guest", auth: storage.AuthData{Guest: true}, authed: false},
		{
			name: "logged in",
			auth: storage.AuthData{
				Username: "alice", UserID: "u-1",
				AccessToken: "a", RefreshToken: "r",
				ExpiresAt: time.Now().Add(time.Hour).Unix(),
			},
			authed: true,
		},
		// истекший access token обновляется по refresh token, сессия жива
		{
			name: "access expired",
			auth: storage.AuthData{
				Username: "alice", UserID: "u-1",
				AccessToken: "a", RefreshToken: "r",
				ExpiresAt: time.Now().Add(-time.Hour).Unix(),
			},
			authed: true,
		},
		{name: "refresh token lost", auth: storage.AuthData{Username: "alice", UserID: "u-1"}, authed: false},
	}

	for _, st := range steps {
		t.Run(st.name, func(t *testing.T) {
			require.NoError(t, store.SaveAuth(ctx, &st.auth))

			got, err := store.GetAuth(ctx)
			require.NoError(t, err)
			assert.Equal(t, st.auth, *got)

			authed, err := store.IsAuthenticated(ctx)
			require.NoError(t, err)
			assert.Equal(t, st.authed, authed)
		})
	}

	require.NoError(t, store.DeleteAuth(ctx))
	authed, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, authed)

	assert.Error(t, store.SaveAuth(ctx, nil))
}

func TestStorage_SessionClosed(t *testing.T) {
	ctx := context.Background()
	store := newTestStorage(t)
	require.NoError(t, store.Close())

	assert.ErrorIs(t, store.SaveAuth(ctx, &storage.AuthData{}), storage.ErrStorageClosed)
	_, err := store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
	assert.ErrorIs(t, store.DeleteAuth(ctx), storage.ErrStorageClosed)
	_, err = store.IsAuthenticated(ctx)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestAuthData_AccessExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	leeway := 30 * time.Second

	assert.False(t, (&storage.AuthData{AccessToken: "t", ExpiresAt: now.Add(time.Hour).Unix()}).AccessExpired(now, leeway))
	assert.True(t, (&storage.AuthData{AccessToken: "t", ExpiresAt: now.Add(-time.Second).Unix()}).AccessExpired(now, leeway))
	assert.True(t, (&storage.AuthData{AccessToken: "t", ExpiresAt: now.Add(10 * time.Second).Unix()}).AccessExpired(now, leeway), "within leeway")
	assert.True(t, (&storage.AuthData{ExpiresAt: now.Add(time.Hour).Unix()}).AccessExpired(now, leeway), "no token")
}
