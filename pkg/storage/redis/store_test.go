/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/storage"
	"github.com/trustbloc/wallet-engine/pkg/storage/redis"
)

func newClient(t *testing.T, srv *miniredis.Miniredis, opts ...redis.ClientOpt) *redis.Client {
	t.Helper()

	client, err := redis.New([]string{srv.Addr()}, append(opts, redis.WithTimeout(time.Second))...)
	require.NoError(t, err)

	return client
}

func TestStore(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)
	client := newClient(t, srv, redis.WithKeyPrefix("wallet1"))

	s := redis.NewStore(client, storage.CredentialStoreName)

	_, err := s.Get(ctx, "a")
	require.ErrorIs(t, err, api.ErrNotFound)

	require.NoError(t, s.Put(ctx, "b", []byte("value-b")))
	require.NoError(t, s.Put(ctx, "a", []byte("value-a")))
	require.EqualError(t, s.Put(ctx, "", nil), "id is required")

	require.True(t, srv.Exists("wallet1:credentials:a"))

	v, err := s.Get(ctx, "b")
	require.NoError(t, err)
	require.Equal(t, []byte("value-b"), v)

	other := redis.NewStore(newClient(t, srv, redis.WithKeyPrefix("wallet2:")), storage.CredentialStoreName)
	require.NoError(t, other.Put(ctx, "c", []byte("value-c")))
	require.True(t, srv.Exists("wallet2:credentials:c"))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, s.Delete(ctx, "a"))

	_, err = s.Get(ctx, "a")
	require.ErrorIs(t, err, api.ErrNotFound)

	srv.Close()

	_, err = s.Get(ctx, "b")
	require.ErrorContains(t, err, "redis get")

	require.ErrorContains(t, s.Put(ctx, "b", nil), "redis set")
	require.ErrorContains(t, s.Delete(ctx, "b"), "redis del")

	_, err = s.List(ctx)
	require.ErrorContains(t, err, "redis scan")
}

func TestProvider(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)

	p := redis.NewProvider(newClient(t, srv))

	keys, err := p.OpenKeyStore()
	require.NoError(t, err)
	require.NoError(t, keys.Put(ctx, "k1", []byte("key")))
	require.True(t, srv.Exists("keys:k1"))

	creds, err := p.OpenCredentialStore()
	require.NoError(t, err)

	_, err = creds.Get(ctx, "k1")
	require.ErrorIs(t, err, api.ErrNotFound)

	activities, err := p.OpenActivityStore()
	require.NoError(t, err)

	first := api.NewActivity("client", "oidc-issuance", "Authorize", api.ActivityStatusSuccess,
		map[string]interface{}{"issuer": "https://issuer.example.com"})
	second := api.NewActivity("client", "oidc-issuance", "RequestCredential", api.ActivityStatusFailure, nil)

	require.NoError(t, activities.Log(first))
	require.NoError(t, activities.Log(second))
	require.EqualError(t, activities.Log(nil), "activity is required")

	logged, err := activities.List(ctx)
	require.NoError(t, err)
	require.Len(t, logged, 2)
	require.Equal(t, first.ID, logged[0].ID)
	require.Equal(t, "https://issuer.example.com", logged[0].Data.Params["issuer"])
	require.Equal(t, second.ID, logged[1].ID)
	require.Equal(t, api.ActivityStatusFailure, logged[1].Data.Status)

	require.NoError(t, srv.Set("activities", "not a list"))

	_, err = activities.List(ctx)
	require.ErrorContains(t, err, "redis lrange")

	require.NoError(t, p.Close())
}

func TestDatabase(t *testing.T) {
	ctx := context.Background()
	srv := miniredis.RunT(t)

	s := redis.NewStore(newClient(t, srv, redis.WithDatabase(2), redis.WithKeyPrefix("w")), storage.KeyStoreName)
	require.NoError(t, s.Put(ctx, "k1", []byte("key")))

	srv.Select(2)
	require.True(t, srv.Exists("w:keys:k1"))

	srv.Select(0)
	require.False(t, srv.Exists("w:keys:k1"))

	_, err := redis.New([]string{srv.Addr()}, redis.WithDatabase(-1))
	require.ErrorContains(t, err, "invalid redis database -1")
}
