/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package kms

import (
	"context"
	"errors"
	"fmt"

	arieskms "github.com/hyperledger/aries-framework-go/component/kmscrypto/kms"
	kmsapi "github.com/hyperledger/aries-framework-go/spi/kms"
	"github.com/hyperledger/aries-framework-go/spi/secretlock"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

type kmsProvider struct {
	store             kmsapi.Store
	secretLockService secretlock.Service
}

func (p *kmsProvider) StorageProvider() kmsapi.Store {
	return p.store
}

func (p *kmsProvider) SecretLock() secretlock.Service {
	return p.secretLockService
}

// keyStoreAdapter serves the context-free keyset store of the KMS from an api.KeyStore.
type keyStoreAdapter struct {
	store api.KeyStore
}

func (a *keyStoreAdapter) Put(keysetID string, key []byte) error {
	return a.store.Put(context.Background(), keysetID, key)
}

func (a *keyStoreAdapter) Get(keysetID string) ([]byte, error) {
	b, err := a.store.Get(context.Background(), keysetID)
	if errors.Is(err, api.ErrNotFound) {
		return nil, fmt.Errorf("%w: %w", arieskms.ErrKeyNotFound, err)
	}

	return b, err
}

func (a *keyStoreAdapter) Delete(keysetID string) error {
	return a.store.Delete(context.Background(), keysetID)
}
