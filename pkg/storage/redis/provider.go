/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package redis

import (
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/storage"
)

// Provider opens redis backed stores that share one client.
type Provider struct {
	client *Client
}

var _ storage.Provider = (*Provider)(nil)

// NewProvider returns a provider whose stores live in the client's key namespace.
func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) OpenKeyStore() (api.KeyStore, error) {
	return NewStore(p.client, storage.KeyStoreName), nil
}

func (p *Provider) OpenCredentialStore() (api.CredentialStore, error) {
	return NewStore(p.client, storage.CredentialStoreName), nil
}

func (p *Provider) OpenActivityStore() (storage.ActivityStore, error) {
	return NewActivityStore(p.client, storage.ActivityStoreName), nil
}

func (p *Provider) Close() error {
	return p.client.Close()
}
