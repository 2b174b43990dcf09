/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem provides in-memory stores.
package mem

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/samber/lo"

	memactivity "github.com/trustbloc/wallet-engine/pkg/activitylogger/mem"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/storage"
)

// Store is a concurrency-safe in-memory api.CredentialStore. Values are copied on the way in and out.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{data: map[string][]byte{}}
}

func (s *Store) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.data[id]
	if !ok {
		return nil, fmt.Errorf("get %s: %w", id, api.ErrNotFound)
	}

	return append([]byte(nil), v...), nil
}

func (s *Store) Put(_ context.Context, id string, value []byte) error {
	if id == "" {
		return errors.New("id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[id] = append([]byte(nil), value...)

	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, id)

	return nil
}

// List returns the stored IDs in lexical order.
func (s *Store) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := lo.Keys(s.data)
	sort.Strings(ids)

	return ids, nil
}

// ActivityStore keeps activities in memory.
type ActivityStore struct {
	*memactivity.ActivityLogger
}

// List returns the logged activities in order.
func (s *ActivityStore) List(_ context.Context) ([]*api.Activity, error) {
	return s.All(), nil
}

// Provider hands out one in-memory store per kind. Data lives as long as the provider.
type Provider struct {
	keys        *Store
	credentials *Store
	activities  *ActivityStore
}

var _ storage.Provider = (*Provider)(nil)

func NewProvider() *Provider {
	return &Provider{
		keys:        NewStore(),
		credentials: NewStore(),
		activities:  &ActivityStore{ActivityLogger: memactivity.NewActivityLogger()},
	}
}

func (p *Provider) OpenKeyStore() (api.KeyStore, error) {
	return p.keys, nil
}

func (p *Provider) OpenCredentialStore() (api.CredentialStore, error) {
	return p.credentials, nil
}

func (p *Provider) OpenActivityStore() (storage.ActivityStore, error) {
	return p.activities, nil
}

func (p *Provider) Close() error {
	return nil
}
