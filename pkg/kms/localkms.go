/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v3"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/crypto/tinkcrypto"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/kms/localkms"
	"github.com/hyperledger/aries-framework-go/component/kmscrypto/secretlock/noop"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
	"github.com/trustbloc/wallet-engine/pkg/kms/signer"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

var logger = log.New("localkms")

const keystorePrimaryKeyURI = "local-lock://wallet-engine"

// nolint: gochecknoglobals
var supportedKeyTypes = []key.Type{
	key.ED25519,
	key.ECDSAP256,
	key.ECDSAP384,
}

// Error codes.
const (
	KeyCreationFailedCode = "KEY_CREATION_FAILED"
	KeyNotFoundCode       = "KEY_NOT_FOUND"
)

// Error is the error type returned by LocalKMS.
type Error = walleterror.Error[string]

type metricsProvider interface {
	SignTime(value time.Duration)
}

// LocalKMS keeps tink keysets in a key store supplied by the caller and signs with them.
type LocalKMS struct {
	store  api.KeyStore
	kms    *localkms.LocalKMS
	signer *signer.KMSSigner
}

var _ KeyManager = (*LocalKMS)(nil)

// NewLocalKMS creates a LocalKMS over store. Keysets are written unencrypted; store is expected to
// protect them at rest. metrics may be nil.
func NewLocalKMS(store api.KeyStore, metrics metricsProvider) (*LocalKMS, error) {
	if store == nil {
		return nil, errors.New("key store is required")
	}

	km, err := localkms.New(keystorePrimaryKeyURI, &kmsProvider{
		store:             &keyStoreAdapter{store: store},
		secretLockService: &noop.NoLock{},
	})
	if err != nil {
		return nil, fmt.Errorf("create local kms: %w", err)
	}

	crypto, err := tinkcrypto.New()
	if err != nil {
		return nil, fmt.Errorf("create tink crypto: %w", err)
	}

	return &LocalKMS{
		store:  store,
		kms:    km,
		signer: signer.NewKMSSigner(store, km, crypto, metrics),
	}, nil
}

// SupportedKeyTypes returns the key types Create accepts.
func (km *LocalKMS) SupportedKeyTypes() []key.Type {
	return append([]key.Type(nil), supportedKeyTypes...)
}

// Create generates a key, stores it and returns its ID and public JWK.
func (km *LocalKMS) Create(ctx context.Context, keyType key.Type) (string, *jose.JSONWebKey, error) {
	kt, err := key.KMSType(keyType)
	if err != nil {
		return "", nil, km.error(KeyCreationFailedCode, walleterror.MalformedInput, err, "Create", string(keyType))
	}

	keyID, pub, err := km.kms.CreateAndExportPubKeyBytes(kt)
	if err != nil {
		return "", nil, km.error(KeyCreationFailedCode, walleterror.Signing,
			fmt.Errorf("create key: %w", err), "Create", string(keyType))
	}

	jwk, err := key.PublicJWK(keyID, pub, kt)
	if err != nil {
		return "", nil, km.error(KeyCreationFailedCode, walleterror.Signing, err, "Create", string(keyType))
	}

	logger.Debugc(ctx, "Key created", logfields.WithKeyID(keyID))

	return keyID, jwk, nil
}

// ExportPublicKey returns the public JWK of a stored key.
func (km *LocalKMS) ExportPublicKey(ctx context.Context, keyID string) (*jose.JSONWebKey, error) {
	const operation = "ExportPublicKey"

	if _, err := km.store.Get(ctx, keyID); err != nil {
		category := walleterror.Signing
		if errors.Is(err, api.ErrNotFound) {
			category = walleterror.MalformedInput
		}

		return nil, km.error(KeyNotFoundCode, category, fmt.Errorf("get key %s: %w", keyID, err), operation, keyID)
	}

	pub, kt, err := km.kms.ExportPubKeyBytes(keyID)
	if err != nil {
		return nil, km.error(KeyNotFoundCode, walleterror.Signing,
			fmt.Errorf("export key %s: %w", keyID, err), operation, keyID)
	}

	jwk, err := key.PublicJWK(keyID, pub, kt)
	if err != nil {
		return nil, km.error(KeyNotFoundCode, walleterror.Signing, err, operation, keyID)
	}

	return jwk, nil
}

// Signer returns an api.Signer over the keys of this KMS.
func (km *LocalKMS) Signer() api.Signer {
	return km.signer
}

func (km *LocalKMS) error(code string, category walleterror.Category, err error, op, value string) *Error {
	return walleterror.New(code, category, err).
		WithComponent(walleterror.LocalKMSComponent).
		WithOperation(op).
		WithIncorrectValue(value)
}
