/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/credential"
)

// credentialStore keeps credentials in their serialized form, keyed by credential ID.
type credentialStore struct {
	store api.CredentialStore
}

// Add stores c and returns the key it was stored under. Credentials without an ID get a random one.
func (s *credentialStore) Add(ctx context.Context, c *credential.Credential) (string, error) {
	id := c.ID()
	if id == "" {
		id = "urn:uuid:" + uuid.NewString()
	}

	if err := s.store.Put(ctx, id, c.Serialize()); err != nil {
		return "", fmt.Errorf("store credential %s: %w", id, err)
	}

	logger.Debugc(ctx, "Credential stored", logfields.WithCredentialID(id),
		logfields.WithCredentialTypes(c.Types()))

	return id, nil
}

func (s *credentialStore) Get(ctx context.Context, id string) (*credential.Credential, error) {
	b, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return credential.Parse(ctx, b)
}

func (s *credentialStore) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// All returns the stored credentials ordered by key.
func (s *credentialStore) All(ctx context.Context) ([]string, []*credential.Credential, error) {
	ids, err := s.store.List(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list credentials: %w", err)
	}

	sort.Strings(ids)

	creds := make([]*credential.Credential, 0, len(ids))

	for _, id := range ids {
		c, err := s.Get(ctx, id)
		if err != nil {
			return nil, nil, err
		}

		creds = append(creds, c)
	}

	return ids, creds, nil
}
