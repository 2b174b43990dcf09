/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package key resolves and creates did:key identifiers for Ed25519 and P-256 keys.
package key

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"encoding/binary"
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	"github.com/go-jose/go-jose/v3"

	"github.com/trustbloc/wallet-engine/pkg/did"
)

const (
	// source: https://github.com/multiformats/multicodec/blob/master/table.csv.
	ed25519pub = 0xed   // Ed25519 public key in multicodec table
	p256pub    = 0x1200 // P-256 compressed public key in multicodec table

	prefix = "did:key:"
)

// Resolver resolves did:key DIDs without network access.
type Resolver struct{}

// New returns a did:key resolver.
func New() *Resolver {
	return &Resolver{}
}

// Resolve builds the DID document for a did:key DID.
func (r *Resolver) Resolve(_ context.Context, didKey string) (*did.Document, error) {
	if !strings.HasPrefix(didKey, prefix) {
		return nil, fmt.Errorf("not a did:key: %s", didKey)
	}

	fingerprint := strings.TrimPrefix(didKey, prefix)

	jwk, err := PubKeyFromFingerprint(fingerprint)
	if err != nil {
		return nil, err
	}

	keyID := didKey + "#" + fingerprint
	jwk.KeyID = keyID

	return &did.Document{
		Context: []string{"https://www.w3.org/ns/did/v1"},
		ID:      didKey,
		VerificationMethod: []did.VerificationMethod{{
			ID:           keyID,
			Type:         did.JSONWebKey2020,
			Controller:   didKey,
			PublicKeyJWK: jwk,
		}},
		Authentication:  []string{keyID},
		AssertionMethod: []string{keyID},
	}, nil
}

// CreateDIDKey creates a did:key ID and its key ID for an Ed25519 or P-256 public key
// as per the did:key format spec found at https://w3c-ccg.github.io/did-method-key/#format.
func CreateDIDKey(pubKey interface{}) (string, string, error) {
	var methodID string

	switch k := pubKey.(type) {
	case ed25519.PublicKey:
		methodID = KeyFingerprint(ed25519pub, k)
	case *ecdsa.PublicKey:
		if k.Curve != elliptic.P256() {
			return "", "", fmt.Errorf("unsupported curve %s", k.Curve.Params().Name)
		}

		methodID = KeyFingerprint(p256pub, elliptic.MarshalCompressed(k.Curve, k.X, k.Y))
	default:
		return "", "", fmt.Errorf("unsupported public key type %T", pubKey)
	}

	didKey := prefix + methodID

	return didKey, didKey + "#" + methodID, nil
}

// KeyFingerprint generates a multicodec fingerprint for pubKeyValue (raw key []byte).
func KeyFingerprint(code uint64, pubKeyValue []byte) string {
	multicodecValue := multicodec(code)
	mcLength := len(multicodecValue)
	buf := make([]uint8, mcLength+len(pubKeyValue))
	copy(buf, multicodecValue)
	copy(buf[mcLength:], pubKeyValue)

	return fmt.Sprintf("z%s", base58.Encode(buf))
}

func multicodec(code uint64) []byte {
	buf := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(buf, code)

	return buf[:n]
}

// PubKeyFromFingerprint extracts the public key from a did:key fingerprint.
func PubKeyFromFingerprint(fingerprint string) (*jose.JSONWebKey, error) {
	// did:key:MULTIBASE(base58-btc, MULTICODEC(public-key-type, raw-public-key-bytes))
	if len(fingerprint) < 2 || fingerprint[0] != 'z' {
		return nil, fmt.Errorf("unsupported did:key fingerprint encoding: %s", fingerprint)
	}

	mc := base58.Decode(fingerprint[1:])

	switch {
	case bytes.HasPrefix(mc, multicodec(ed25519pub)):
		raw := mc[len(multicodec(ed25519pub)):]
		if len(raw) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("invalid ed25519 public key size %d", len(raw))
		}

		return &jose.JSONWebKey{Key: ed25519.PublicKey(raw)}, nil
	case bytes.HasPrefix(mc, multicodec(p256pub)):
		x, y := elliptic.UnmarshalCompressed(elliptic.P256(), mc[len(multicodec(p256pub)):])
		if x == nil {
			return nil, fmt.Errorf("invalid P-256 public key")
		}

		return &jose.JSONWebKey{Key: &ecdsa.PublicKey{Curve: elliptic.P256(), X: x, Y: y}}, nil
	}

	if len(mc) == 0 {
		return nil, fmt.Errorf("empty did:key fingerprint")
	}

	return nil, fmt.Errorf("not supported public key (multicodec code: %#x)", mc[0])
}
