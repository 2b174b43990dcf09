/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwk resolves and creates did:jwk identifiers.
package jwk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v3"

	"github.com/trustbloc/wallet-engine/pkg/did"
)

const prefix = "did:jwk:"

// Resolver resolves did:jwk DIDs without network access.
type Resolver struct{}

// New returns a did:jwk resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve builds the DID document for a did:jwk DID.
func (r *Resolver) Resolve(_ context.Context, didJWK string) (*did.Document, error) {
	if !strings.HasPrefix(didJWK, prefix) {
		return nil, fmt.Errorf("not a did:jwk: %s", didJWK)
	}

	b, err := base64.RawURLEncoding.DecodeString(strings.TrimPrefix(didJWK, prefix))
	if err != nil {
		return nil, fmt.Errorf("decode did:jwk: %w", err)
	}

	var key jose.JSONWebKey
	if err = json.Unmarshal(b, &key); err != nil {
		return nil, fmt.Errorf("unmarshal did:jwk key: %w", err)
	}

	if !key.IsPublic() {
		return nil, fmt.Errorf("did:jwk must hold a public key")
	}

	keyID := didJWK + "#0"
	key.KeyID = keyID

	return &did.Document{
		Context: []string{"https://www.w3.org/ns/did/v1", "https://w3id.org/security/suites/jws-2020/v1"},
		ID:      didJWK,
		VerificationMethod: []did.VerificationMethod{{
			ID:           keyID,
			Type:         did.JSONWebKey2020,
			Controller:   didJWK,
			PublicKeyJWK: &key,
		}},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID},
	}, nil
}

// CreateDID creates a did:jwk ID and its key ID for the given public key.
func CreateDID(pubKey interface{}) (string, string, error) {
	key := jose.JSONWebKey{Key: pubKey}
	if !key.Valid() || !key.IsPublic() {
		return "", "", fmt.Errorf("invalid public key %T", pubKey)
	}

	b, err := key.MarshalJSON()
	if err != nil {
		return "", "", fmt.Errorf("marshal jwk: %w", err)
	}

	didJWK := prefix + base64.RawURLEncoding.EncodeToString(b)

	return didJWK, didJWK + "#0", nil
}
