/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jwtutil signs JWTs through an api.Signer and verifies JWTs against keys resolved from DIDs.
package jwtutil

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v3"
	"github.com/go-jose/go-jose/v3/jwt"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
)

// ErrSign wraps failures of the signer capability so that callers can tell them apart
// from malformed claims.
var ErrSign = errors.New("sign jwt")

// Opt configures Sign.
type Opt func(o *signOpts)

type signOpts struct {
	typ     string
	headers map[jose.HeaderKey]interface{}
}

// WithType sets the "typ" header.
func WithType(typ string) Opt {
	return func(o *signOpts) {
		o.typ = typ
	}
}

// WithHeader sets an extra protected header.
func WithHeader(k string, v interface{}) Opt {
	return func(o *signOpts) {
		o.headers[jose.HeaderKey(k)] = v
	}
}

// Sign returns a compact JWS of claims signed with the key behind vm. The "kid" header is set to vm.ID.
func Sign(ctx context.Context, signer api.Signer, vm *did.VerificationMethod, claims interface{},
	opts ...Opt,
) (string, error) {
	o := &signOpts{typ: "JWT", headers: map[jose.HeaderKey]interface{}{}}

	for _, opt := range opts {
		opt(o)
	}

	alg, err := vm.Algorithm()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSign, err)
	}

	signerOpts := (&jose.SignerOptions{}).WithType(jose.ContentType(o.typ))
	for k, v := range o.headers {
		signerOpts = signerOpts.WithHeader(k, v)
	}

	joseSigner, err := jose.NewSigner(jose.SigningKey{
		Algorithm: alg,
		Key:       &opaqueSigner{ctx: ctx, signer: signer, vm: vm, alg: alg},
	}, signerOpts)
	if err != nil {
		return "", fmt.Errorf("%w: create signer: %w", ErrSign, err)
	}

	jws, err := jwt.Signed(joseSigner).Claims(claims).CompactSerialize()
	if err != nil {
		if errors.Is(err, ErrSign) {
			return "", err
		}

		return "", fmt.Errorf("serialize jwt: %w", err)
	}

	return jws, nil
}

// Parse decodes the claims of token without verifying its signature and returns its first header.
func Parse(token string, claims ...interface{}) (jose.Header, error) {
	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return jose.Header{}, fmt.Errorf("parse jwt: %w", err)
	}

	if err = parsed.UnsafeClaimsWithoutVerification(claims...); err != nil {
		return jose.Header{}, fmt.Errorf("decode jwt claims: %w", err)
	}

	return parsed.Headers[0], nil
}

// Verify checks the signature of token with the key referenced by its "kid" header and decodes the claims.
// A "kid" without a DID (e.g. "#key-1") is resolved against defaultDID.
func Verify(ctx context.Context, resolver api.DIDResolver, token, defaultDID string, claims ...interface{},
) (*did.VerificationMethod, error) {
	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return nil, fmt.Errorf("parse jwt: %w", err)
	}

	kid := parsed.Headers[0].KeyID
	if kid == "" {
		return nil, errors.New("jwt has no kid header")
	}

	didID, _, _ := strings.Cut(kid, "#")
	if didID == "" {
		didID = defaultDID
	}

	if didID == "" {
		return nil, fmt.Errorf("cannot determine did for kid %s", kid)
	}

	doc, err := resolver.Resolve(ctx, didID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", didID, err)
	}

	if strings.HasPrefix(kid, "#") {
		kid = didID + kid
	}

	vm, err := doc.VerificationMethodByID(kid)
	if err != nil {
		return nil, err
	}

	key, err := vm.PublicKey()
	if err != nil {
		return nil, err
	}

	if err = parsed.Claims(key.Key, claims...); err != nil {
		return nil, fmt.Errorf("verify jwt signature: %w", err)
	}

	return vm, nil
}

// opaqueSigner delegates JWS signing to an api.Signer.
type opaqueSigner struct {
	ctx    context.Context //nolint:containedctx
	signer api.Signer
	vm     *did.VerificationMethod
	alg    jose.SignatureAlgorithm
}

func (s *opaqueSigner) Public() *jose.JSONWebKey {
	return &jose.JSONWebKey{KeyID: s.vm.ID, Algorithm: string(s.alg)}
}

func (s *opaqueSigner) Algs() []jose.SignatureAlgorithm {
	return []jose.SignatureAlgorithm{s.alg}
}

func (s *opaqueSigner) SignPayload(payload []byte, _ jose.SignatureAlgorithm) ([]byte, error) {
	sig, err := s.signer.Sign(s.ctx, s.vm, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSign, err)
	}

	return sig, nil
}

// IsJWS reports whether s looks like a compact JWS: three dot-separated parts with a non-empty header
// and signature.
func IsJWS(s string) bool {
	parts := strings.Split(s, ".")

	return len(parts) == 3 && parts[0] != "" && parts[2] != ""
}
