/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package jwtutil_test

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"testing"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/internal/mock/apimocks"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/key"
	"github.com/trustbloc/wallet-engine/pkg/did/resolver"
	"github.com/trustbloc/wallet-engine/pkg/internal/jwtutil"
)

type testSigner struct {
	edKey ed25519.PrivateKey
	ecKey *ecdsa.PrivateKey
}

func (s *testSigner) Sign(_ context.Context, _ *did.VerificationMethod, payload []byte) ([]byte, error) {
	if s.edKey != nil {
		return ed25519.Sign(s.edKey, payload), nil
	}

	digest := sha256.Sum256(payload)

	r, ss, err := ecdsa.Sign(rand.Reader, s.ecKey, digest[:])
	if err != nil {
		return nil, err
	}

	sig := make([]byte, 64)
	r.FillBytes(sig[:32])
	ss.FillBytes(sig[32:])

	return sig, nil
}

type claims struct {
	jwt.Claims
	Nonce string `json:"nonce"`
}

func TestSignVerify(t *testing.T) {
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	ecPriv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name   string
		pub    interface{}
		signer *testSigner
		alg    string
	}{
		{name: "EdDSA", pub: edPub, signer: &testSigner{edKey: edPriv}, alg: "EdDSA"},
		{name: "ES256", pub: &ecPriv.PublicKey, signer: &testSigner{ecKey: ecPriv}, alg: "ES256"},
	}

	r, err := resolver.New()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			didKey, keyID, err := key.CreateDIDKey(tt.pub)
			require.NoError(t, err)

			doc, err := r.Resolve(context.Background(), didKey)
			require.NoError(t, err)

			vm, err := doc.VerificationMethodByID(keyID)
			require.NoError(t, err)

			token, err := jwtutil.Sign(context.Background(), tt.signer, vm,
				&claims{Claims: jwt.Claims{Issuer: didKey}, Nonce: "n-1"},
				jwtutil.WithType("openid4vci-proof+jwt"), jwtutil.WithHeader("x", "y"))
			require.NoError(t, err)

			var parsed claims

			header, err := jwtutil.Parse(token, &parsed)
			require.NoError(t, err)
			require.Equal(t, keyID, header.KeyID)
			require.Equal(t, tt.alg, header.Algorithm)
			require.Equal(t, "openid4vci-proof+jwt", header.ExtraHeaders[jose.HeaderType])
			require.Equal(t, "y", header.ExtraHeaders["x"])
			require.Equal(t, "n-1", parsed.Nonce)

			var verified claims

			signingVM, err := jwtutil.Verify(context.Background(), r, token, "", &verified)
			require.NoError(t, err)
			require.Equal(t, keyID, signingVM.ID)
			require.Equal(t, didKey, verified.Issuer)
		})
	}
}

func TestSign_Errors(t *testing.T) {
	t.Run("signer failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		edPub, _, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)

		signer := apimocks.NewMockSigner(ctrl)
		signer.EXPECT().Sign(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("key locked"))

		vm := &did.VerificationMethod{ID: "did:example:1#k", PublicKeyJWK: &jose.JSONWebKey{Key: edPub}}

		_, err = jwtutil.Sign(context.Background(), signer, vm, map[string]interface{}{"a": 1})
		require.ErrorIs(t, err, jwtutil.ErrSign)
		require.ErrorContains(t, err, "key locked")
	})

	t.Run("no public key", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		_, err := jwtutil.Sign(context.Background(), apimocks.NewMockSigner(ctrl),
			&did.VerificationMethod{ID: "did:example:1#k"}, map[string]interface{}{})
		require.ErrorIs(t, err, jwtutil.ErrSign)
	})
}

func TestVerify_Errors(t *testing.T) {
	edPub, edPriv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	otherPub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	vm := &did.VerificationMethod{ID: "#key-1", PublicKeyJWK: &jose.JSONWebKey{Key: edPub}}

	token, err := jwtutil.Sign(context.Background(), &testSigner{edKey: edPriv}, vm, map[string]interface{}{"a": 1})
	require.NoError(t, err)

	t.Run("relative kid resolved against default DID", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		r := apimocks.NewMockDIDResolver(ctrl)
		r.EXPECT().Resolve(gomock.Any(), "did:example:verifier").Return(&did.Document{
			ID: "did:example:verifier",
			VerificationMethod: []did.VerificationMethod{{
				ID: "did:example:verifier#key-1", PublicKeyJWK: &jose.JSONWebKey{Key: edPub},
			}},
		}, nil)

		_, err = jwtutil.Verify(context.Background(), r, token, "did:example:verifier")
		require.NoError(t, err)
	})

	t.Run("no default DID", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		_, err = jwtutil.Verify(context.Background(), apimocks.NewMockDIDResolver(ctrl), token, "")
		require.ErrorContains(t, err, "cannot determine did for kid #key-1")
	})

	t.Run("wrong key", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		r := apimocks.NewMockDIDResolver(ctrl)
		r.EXPECT().Resolve(gomock.Any(), "did:example:verifier").Return(&did.Document{
			ID: "did:example:verifier",
			VerificationMethod: []did.VerificationMethod{{
				ID: "did:example:verifier#key-1", PublicKeyJWK: &jose.JSONWebKey{Key: otherPub},
			}},
		}, nil)

		_, err = jwtutil.Verify(context.Background(), r, token, "did:example:verifier")
		require.ErrorContains(t, err, "verify jwt signature")
	})

	t.Run("resolution failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)

		r := apimocks.NewMockDIDResolver(ctrl)
		r.EXPECT().Resolve(gomock.Any(), gomock.Any()).Return(nil, did.ErrNotFound)

		_, err = jwtutil.Verify(context.Background(), r, token, "did:example:verifier")
		require.ErrorIs(t, err, did.ErrNotFound)
	})

	t.Run("malformed token", func(t *testing.T) {
		_, err = jwtutil.Verify(context.Background(), nil, "abc", "")
		require.ErrorContains(t, err, "parse jwt")

		_, err = jwtutil.Parse("abc")
		require.ErrorContains(t, err, "parse jwt")
	})
}
