/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwk_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/pkg/did/jwk"
)

func TestResolver(t *testing.T) {
	t.Run("ed25519", func(t *testing.T) {
		pub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		didJWK, keyID, err := jwk.CreateDID(pub)
		require.NoError(t, err)

		doc, err := jwk.New().Resolve(context.Background(), didJWK)
		require.NoError(t, err)
		require.Len(t, doc.AssertionMethods(), 1)

		vm, err := doc.VerificationMethodByID("#0")
		require.NoError(t, err)
		require.Equal(t, keyID, vm.ID)
		require.Equal(t, pub, vm.PublicKeyJWK.Key)

		alg, err := vm.Algorithm()
		require.NoError(t, err)
		require.Equal(t, jose.EdDSA, alg)
	})

	t.Run("P-256", func(t *testing.T) {
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)

		didJWK, _, err := jwk.CreateDID(&priv.PublicKey)
		require.NoError(t, err)

		doc, err := jwk.New().Resolve(context.Background(), didJWK)
		require.NoError(t, err)

		alg, err := doc.AssertionMethods()[0].Algorithm()
		require.NoError(t, err)
		require.Equal(t, jose.ES256, alg)
	})

	t.Run("private key rejected", func(t *testing.T) {
		_, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		_, _, err = jwk.CreateDID(priv)
		require.ErrorContains(t, err, "invalid public key")
	})

	t.Run("malformed", func(t *testing.T) {
		r := jwk.New()

		_, err := r.Resolve(context.Background(), "did:key:abc")
		require.ErrorContains(t, err, "not a did:jwk")

		_, err = r.Resolve(context.Background(), "did:jwk:!!!")
		require.ErrorContains(t, err, "decode did:jwk")

		_, err = r.Resolve(context.Background(), "did:jwk:e30")
		require.ErrorContains(t, err, "unmarshal did:jwk key")
	})
}
