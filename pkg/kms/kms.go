/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination mocks/kms_mocks.go -self_package mocks -package mocks -source=kms.go -mock_names KeyManager=MockKeyManager

package kms

import (
	"context"

	"github.com/go-jose/go-jose/v3"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
)

// KeyManager creates keys and signs with them.
type KeyManager interface {
	SupportedKeyTypes() []key.Type
	Create(ctx context.Context, keyType key.Type) (string, *jose.JSONWebKey, error)
	ExportPublicKey(ctx context.Context, keyID string) (*jose.JSONWebKey, error)
	Signer() api.Signer
}
