/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"context"
	"errors"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// WalletInitiatedInteraction requests credentials from an issuer without an offer.
//
//	Created -> AuthorizationURLIssued -> Authorized -> CredentialIssued -> Completed
type WalletInitiatedInteraction struct {
	*interaction
}

// NewWalletInitiatedInteraction creates an interaction with the credential issuer at issuerURI.
func NewWalletInitiatedInteraction(ctx context.Context, issuerURI string, config *ClientConfig,
) (*WalletInitiatedInteraction, error) {
	i, err := newInteraction(walleterror.WalletInitiatedInteractionComponent, config)
	if err != nil {
		return nil, err
	}

	if issuerURI == "" {
		return nil, i.errors.new(InvalidConfigCode, walleterror.MalformedInput, "New",
			errors.New("issuer URI is required"))
	}

	i.issuerURI = issuerURI

	logger.Debugc(ctx, "Wallet-initiated interaction created", logfields.WithIssuer(issuerURI))

	return &WalletInitiatedInteraction{interaction: i}, nil
}

// CreateAuthorizationURL selects the issuer's credential configuration for format and types and returns the
// URL the user must open to authorize its issuance.
func (i *WalletInitiatedInteraction) CreateAuthorizationURL(ctx context.Context, clientID, redirectURI,
	format string, types []string, opts ...CreateAuthorizationURLOpt,
) (string, error) {
	const operation = "CreateAuthorizationURL"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.CreateAuthorizationURL")
	defer span.End()

	if i.state != StateCreated {
		return "", i.errors.invalidState(operation, i.state)
	}

	metadata, err := i.getIssuerMetadata(ctx, createAuthorizationURLText)
	if err != nil {
		return "", i.errors.metadata(operation, err)
	}

	id, config, found := findConfiguration(metadata, format, types)
	if !found {
		return "", i.errors.new(UnsupportedCredentialCode, walleterror.MalformedInput, operation,
			typesError(format, types)).
			WithIncorrectValue(format)
	}

	offered, err := offeredFromConfiguration(id, config)
	if err != nil {
		return "", i.errors.new(UnsupportedCredentialCode, walleterror.MalformedInput, operation, err)
	}

	o := &createAuthorizationURLOpts{}
	for _, opt := range opts {
		opt(o)
	}

	i.offered = []*OfferedCredential{offered}

	return i.createAuthorizationURL(ctx, operation, clientID, redirectURI, o)
}
