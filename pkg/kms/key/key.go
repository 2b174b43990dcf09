/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package key

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"

	"github.com/go-jose/go-jose/v3"
	kmsapi "github.com/hyperledger/aries-framework-go/spi/kms"
)

// Type is a key type the local KMS can create.
type Type string

const (
	ED25519   Type = "ED25519"
	ECDSAP256 Type = "ECDSA_P256"
	ECDSAP384 Type = "ECDSA_P384"

	defaultUse = "sig"
)

// KMSType maps kt to the key type of the underlying KMS. ECDSA keys use IEEE P1363 signatures, the
// encoding JWS expects.
func KMSType(kt Type) (kmsapi.KeyType, error) {
	switch kt {
	case ED25519:
		return kmsapi.ED25519Type, nil
	case ECDSAP256:
		return kmsapi.ECDSAP256TypeIEEEP1363, nil
	case ECDSAP384:
		return kmsapi.ECDSAP384TypeIEEEP1363, nil
	default:
		return "", fmt.Errorf("unsupported key type: %s", kt)
	}
}

// PublicJWK builds the public JWK of a key exported by the KMS as raw bytes.
func PublicJWK(keyID string, pub []byte, kt kmsapi.KeyType) (*jose.JSONWebKey, error) {
	var (
		k   interface{}
		alg jose.SignatureAlgorithm
	)

	switch kt {
	case kmsapi.ED25519Type:
		if len(pub) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 public key length %d", len(pub))
		}

		k, alg = ed25519.PublicKey(pub), jose.EdDSA
	case kmsapi.ECDSAP256TypeIEEEP1363:
		ecKey, err := ecPublicKey(elliptic.P256(), pub)
		if err != nil {
			return nil, err
		}

		k, alg = ecKey, jose.ES256
	case kmsapi.ECDSAP384TypeIEEEP1363:
		ecKey, err := ecPublicKey(elliptic.P384(), pub)
		if err != nil {
			return nil, err
		}

		k, alg = ecKey, jose.ES384
	default:
		return nil, fmt.Errorf("unsupported kms key type: %s", kt)
	}

	return &jose.JSONWebKey{Key: k, KeyID: keyID, Algorithm: string(alg), Use: defaultUse}, nil
}

func ecPublicKey(curve elliptic.Curve, pub []byte) (*ecdsa.PublicKey, error) {
	x, y := elliptic.Unmarshal(curve, pub) //nolint:staticcheck
	if x == nil {
		return nil, fmt.Errorf("invalid %s public key", curve.Params().Name)
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}

// ID returns the key ID of a public or private JWK: the base64url SHA-256 thumbprint of its public part.
// The KMS names asymmetric keys the same way.
func ID(jwk *jose.JSONWebKey) (string, error) {
	public := jwk.Public()
	if !public.Valid() {
		return "", fmt.Errorf("failed to derive public key from %T", jwk.Key)
	}

	tp, err := public.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to compute key thumbprint: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(tp), nil
}
