/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package creator creates did:key and did:jwk DIDs for keys created by a key manager.
package creator

import (
	"context"
	"fmt"

	"github.com/go-jose/go-jose/v3"

	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/jwk"
	didkey "github.com/trustbloc/wallet-engine/pkg/did/key"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
)

// DID methods.
const (
	KeyMethod = "key"
	JWKMethod = "jwk"
)

// KeyCreator creates a key and returns its ID and public JWK.
type KeyCreator interface {
	Create(ctx context.Context, keyType key.Type) (string, *jose.JSONWebKey, error)
}

type method struct {
	create   func(pubKey interface{}) (string, string, error)
	resolver interface {
		Resolve(ctx context.Context, id string) (*did.Document, error)
	}
}

// PublicDID creates a key of keyType and a DID of the given method for it.
func PublicDID(ctx context.Context, km KeyCreator, didMethod string, keyType key.Type) (*did.SigningDID, error) {
	methods := map[string]method{
		KeyMethod: {create: didkey.CreateDIDKey, resolver: didkey.New()},
		JWKMethod: {create: jwk.CreateDID, resolver: jwk.New()},
	}

	m, supported := methods[didMethod]
	if !supported {
		return nil, fmt.Errorf("unsupported did method: %s", didMethod)
	}

	keyID, pub, err := km.Create(ctx, keyType)
	if err != nil {
		return nil, fmt.Errorf("create key: %w", err)
	}

	id, vmID, err := m.create(pub.Key)
	if err != nil {
		return nil, fmt.Errorf("did:%s: %w", didMethod, err)
	}

	doc, err := m.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("did:%s: resolve created did: %w", didMethod, err)
	}

	vm, err := doc.VerificationMethodByID(vmID)
	if err != nil {
		return nil, fmt.Errorf("did:%s: %w", didMethod, err)
	}

	return &did.SigningDID{
		DID:                id,
		KeyID:              keyID,
		VerificationMethod: vm,
		Document:           doc,
	}, nil
}
