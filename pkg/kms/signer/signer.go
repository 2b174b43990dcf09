/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package signer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
	noopMetricsProvider "github.com/trustbloc/wallet-engine/pkg/observability/metrics/noop"
)

type metricsProvider interface {
	SignTime(value time.Duration)
}

type keyManager interface {
	Get(keyID string) (interface{}, error)
}

type crypto interface {
	Sign(msg []byte, kh interface{}) ([]byte, error)
}

// KMSSigner signs with keys kept by the local KMS. Keys are looked up by the thumbprint of the
// verification method's public key.
// Note: do not create an instance of KMSSigner directly. Use NewKMSSigner() instead.
type KMSSigner struct {
	store   api.KeyStore
	km      keyManager
	crypto  crypto
	metrics metricsProvider
}

// NewKMSSigner returns a signer for keys held by km whose keysets live in store.
func NewKMSSigner(store api.KeyStore, km keyManager, crypto crypto, metrics metricsProvider) *KMSSigner {
	if metrics == nil {
		metrics = &noopMetricsProvider.NoMetrics{}
	}

	return &KMSSigner{
		store:   store,
		km:      km,
		crypto:  crypto,
		metrics: metrics,
	}
}

// Sign returns a JWS signature of data: 64 bytes for EdDSA, r||s for ECDSA.
func (s *KMSSigner) Sign(ctx context.Context, vm *did.VerificationMethod, data []byte) ([]byte, error) {
	startTime := time.Now()

	defer func() {
		s.metrics.SignTime(time.Since(startTime))
	}()

	if vm == nil {
		return nil, errors.New("verification method is required")
	}

	pub, err := vm.PublicKey()
	if err != nil {
		return nil, err
	}

	keyID, err := key.ID(pub)
	if err != nil {
		return nil, err
	}

	if _, err = s.store.Get(ctx, keyID); err != nil {
		return nil, fmt.Errorf("get key %s: %w", keyID, err)
	}

	kh, err := s.km.Get(keyID)
	if err != nil {
		return nil, fmt.Errorf("load key %s: %w", keyID, err)
	}

	sig, err := s.crypto.Sign(data, kh)
	if err != nil {
		return nil, fmt.Errorf("sign with key %s: %w", keyID, err)
	}

	return sig, nil
}
