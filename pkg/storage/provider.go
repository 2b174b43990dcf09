/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package storage

import (
	"context"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

// Store names.
const (
	KeyStoreName        = "keys"
	CredentialStoreName = "credentials"
	ActivityStoreName   = "activities"
)

// Provider opens the stores the wallet keeps its keys, credentials and activities in.
type Provider interface {
	OpenKeyStore() (api.KeyStore, error)
	OpenCredentialStore() (api.CredentialStore, error)
	OpenActivityStore() (ActivityStore, error)
	Close() error
}

// ActivityStore is an activity logger that can list what it has logged, oldest first.
type ActivityStore interface {
	api.ActivityLogger
	List(ctx context.Context) ([]*api.Activity, error)
}
