/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms_test

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/internal/mock/apimocks"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/kms"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
	"github.com/trustbloc/wallet-engine/pkg/storage/mem"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

type signMetrics struct {
	calls int
}

func (m *signMetrics) SignTime(time.Duration) {
	m.calls++
}

func TestLocalKMS(t *testing.T) {
	ctx := context.Background()
	store := mem.NewStore()

	metrics := &signMetrics{}

	km, err := kms.NewLocalKMS(store, metrics)
	require.NoError(t, err)
	require.Equal(t, []key.Type{key.ED25519, key.ECDSAP256, key.ECDSAP384}, km.SupportedKeyTypes())

	for _, kt := range km.SupportedKeyTypes() {
		t.Run(string(kt), func(t *testing.T) {
			keyID, pub, err := km.Create(ctx, kt)
			require.NoError(t, err)
			require.NotEmpty(t, keyID)
			require.True(t, pub.IsPublic())
			require.Equal(t, keyID, pub.KeyID)

			thumbprint, err := key.ID(pub)
			require.NoError(t, err)
			require.Equal(t, thumbprint, keyID)

			stored, err := store.Get(ctx, keyID)
			require.NoError(t, err)

			require.True(t, json.Valid(stored))
			require.NotContains(t, string(stored), `"d"`)

			exported, err := km.ExportPublicKey(ctx, keyID)
			require.NoError(t, err)
			require.Equal(t, pub.Key, exported.Key)
			require.Equal(t, keyID, exported.KeyID)

			vm := &did.VerificationMethod{
				ID:           "did:example:123#key-1",
				Type:         did.JSONWebKey2020,
				PublicKeyJWK: pub,
			}

			payload := []byte("payload")

			sig, err := km.Signer().Sign(ctx, vm, payload)
			require.NoError(t, err)

			verifySignature(t, pub, payload, sig)
		})
	}

	require.Equal(t, 3, metrics.calls)

	t.Run("unsupported key type", func(t *testing.T) {
		_, _, err := km.Create(ctx, "RSA")
		require.ErrorContains(t, err, "unsupported key type: RSA")
		require.Equal(t, kms.KeyCreationFailedCode, walleterror.CodeOf(err))
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := km.ExportPublicKey(ctx, "missing")
		require.ErrorIs(t, err, api.ErrNotFound)
		require.Equal(t, kms.KeyNotFoundCode, walleterror.CodeOf(err))
		require.True(t, walleterror.Is(err, walleterror.MalformedInput))
	})

	t.Run("sign with unknown key", func(t *testing.T) {
		other, err := kms.NewLocalKMS(mem.NewStore(), nil)
		require.NoError(t, err)

		_, pub, err := other.Create(ctx, key.ED25519)
		require.NoError(t, err)

		_, err = km.Signer().Sign(ctx, &did.VerificationMethod{ID: "did:example:1#k", PublicKeyJWK: pub}, []byte("x"))
		require.ErrorIs(t, err, api.ErrNotFound)
	})

	t.Run("sign without verification method", func(t *testing.T) {
		_, err := km.Signer().Sign(ctx, nil, []byte("x"))
		require.EqualError(t, err, "verification method is required")
	})
}

func TestLocalKMS_StoreErrors(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	store := apimocks.NewMockStore(ctrl)
	store.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, api.ErrNotFound).AnyTimes()
	store.EXPECT().Put(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("put failed"))

	km, err := kms.NewLocalKMS(store, nil)
	require.NoError(t, err)

	_, _, err = km.Create(ctx, key.ED25519)
	require.ErrorContains(t, err, "put failed")
	require.Equal(t, kms.KeyCreationFailedCode, walleterror.CodeOf(err))
	require.True(t, walleterror.Is(err, walleterror.Signing))

	t.Run("corrupt keyset", func(t *testing.T) {
		corrupt := mem.NewStore()
		require.NoError(t, corrupt.Put(ctx, "corrupt", []byte("{")))

		km, err := kms.NewLocalKMS(corrupt, nil)
		require.NoError(t, err)

		_, err = km.ExportPublicKey(ctx, "corrupt")
		require.ErrorContains(t, err, "export key corrupt")
		require.True(t, walleterror.Is(err, walleterror.Signing))
	})

	_, err = kms.NewLocalKMS(nil, nil)
	require.EqualError(t, err, "key store is required")
}

func verifySignature(t *testing.T, pub *jose.JSONWebKey, payload, sig []byte) {
	t.Helper()

	switch k := pub.Key.(type) {
	case ed25519.PublicKey:
		require.True(t, ed25519.Verify(k, payload, sig))
	case *ecdsa.PublicKey:
		size := (k.Curve.Params().BitSize + 7) / 8
		require.Len(t, sig, 2*size)

		h := crypto.SHA256
		if size == 48 {
			h = crypto.SHA384
		}

		hasher := h.New()
		hasher.Write(payload)

		r := new(big.Int).SetBytes(sig[:size])
		s := new(big.Int).SetBytes(sig[size:])
		require.True(t, ecdsa.Verify(k, hasher.Sum(nil), r, s))
	default:
		t.Fatalf("unexpected key type %T", pub.Key)
	}
}
