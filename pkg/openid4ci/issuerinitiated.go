/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"context"
	"errors"
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing/attributeutil"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// IssuerInitiatedInteraction redeems a credential offer.
//
//	Created -> Authorized -> CredentialIssued -> Completed
//
// Offers with only an authorization-code grant pass through AuthorizationURLIssued before the token is
// obtained. Any rejection by the issuer moves the interaction to Failed.
type IssuerInitiatedInteraction struct {
	*interaction

	offerURI string
	offer    *CredentialOffer
}

// NewIssuerInitiatedInteraction creates an interaction for the given openid-credential-offer URI. Nothing is
// parsed or fetched until Authorize is called.
func NewIssuerInitiatedInteraction(ctx context.Context, offerURI string, config *ClientConfig,
) (*IssuerInitiatedInteraction, error) {
	i, err := newInteraction(walleterror.IssuerInitiatedInteractionComponent, config)
	if err != nil {
		return nil, err
	}

	if offerURI == "" {
		return nil, i.errors.new(MalformedOfferCode, walleterror.MalformedInput, "New",
			errors.New("credential offer uri is empty"))
	}

	ii := &IssuerInitiatedInteraction{interaction: i, offerURI: offerURI}
	i.loadIssuer = ii.loadOffer

	logger.Debugc(ctx, "Issuer-initiated interaction created",
		logfields.WithInteractionState(string(StateCreated)))

	return ii, nil
}

func (i *IssuerInitiatedInteraction) loadOffer(ctx context.Context, operation string) error {
	if i.offer != nil {
		return nil
	}

	offer, err := i.parseCredentialOffer(ctx, i.offerURI, authorizeEventText)
	if err != nil {
		var fetchErr *offerFetchError
		if errors.As(err, &fetchErr) {
			if e := i.errors.remote(operation, err); e.Category() == walleterror.Transport {
				return e
			}
		}

		return i.errors.new(MalformedOfferCode, walleterror.MalformedInput, operation, err)
	}

	i.offer = offer
	i.issuerURI = offer.CredentialIssuer

	return nil
}

// Offer returns the parsed credential offer, or nil before it was loaded.
func (i *IssuerInitiatedInteraction) Offer() *CredentialOffer {
	return i.offer
}

// Authorize parses the offer, fetches the issuer metadata and OpenID configuration and determines how the
// offer can be redeemed. It may only be called once.
func (i *IssuerInitiatedInteraction) Authorize(ctx context.Context) (*AuthorizeResult, error) {
	const operation = "Authorize"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.Authorize")
	defer span.End()

	if i.state != StateCreated {
		return nil, i.errors.invalidState(operation, i.state)
	}

	start := time.Now()

	if err := i.loadOffer(ctx, operation); err != nil {
		return nil, err
	}

	grants := i.offer.Grants
	if grants == nil || (grants.PreAuthorizedCode == nil && grants.AuthorizationCode == nil) {
		return nil, i.errors.new(UnsupportedGrantCode, walleterror.MalformedInput, operation,
			errors.New("credential offer has no supported grant"))
	}

	if grants.PreAuthorizedCode != nil {
		if grants.PreAuthorizedCode.PreAuthorizedCode == "" {
			return nil, i.errors.new(MalformedOfferCode, walleterror.MalformedInput, operation,
				errors.New("pre-authorized code grant has no pre-authorized_code"))
		}

		i.preAuthGrant = grants.PreAuthorizedCode
		i.authorizationServer = grants.PreAuthorizedCode.AuthorizationServer
	} else {
		i.authorizationServer = grants.AuthorizationCode.AuthorizationServer
	}

	metadata, err := i.getIssuerMetadata(ctx, authorizeEventText)
	if err != nil {
		return nil, i.errors.metadata(operation, err)
	}

	if _, err = i.getOpenIDConfig(ctx, authorizeEventText); err != nil {
		return nil, i.errors.metadata(operation, err)
	}

	offered, err := resolveOfferedCredentials(i.offer, metadata)
	if err != nil {
		return nil, i.errors.new(MalformedOfferCode, walleterror.MalformedInput, operation, err)
	}

	i.offered = offered
	i.setState(ctx, StateAuthorized)

	span.SetAttributes(attributeutil.JSON("credential_offer", i.offer,
		attributeutil.WithRedacted("grants.urn:ietf:params:oauth:grant-type:pre-authorized_code.pre-authorized_code")))

	result := &AuthorizeResult{AuthorizationCodeRequired: i.preAuthGrant == nil}

	if i.preAuthGrant != nil {
		result.UserPINRequired = i.preAuthGrant.PINRequired()
		result.TxCode = i.preAuthGrant.TxCode
	}

	logger.Debugc(ctx, "Credential offer authorized", logfields.WithIssuer(i.issuerURI),
		log.WithDuration(time.Since(start)))

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, map[string]interface{}{
		"offeredCredentials": len(offered),
	})
	i.logMetrics(ctx, authorizeEventText, "", time.Since(start))

	return result, nil
}

// CreateAuthorizationURL returns the URL the user must open to authorize an offer that carries an
// authorization-code grant.
func (i *IssuerInitiatedInteraction) CreateAuthorizationURL(ctx context.Context, clientID, redirectURI string,
	opts ...CreateAuthorizationURLOpt,
) (string, error) {
	const operation = "CreateAuthorizationURL"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.CreateAuthorizationURL")
	defer span.End()

	if i.state != StateAuthorized || i.token != nil {
		return "", i.errors.invalidState(operation, i.state)
	}

	grant := i.offer.Grants.AuthorizationCode
	if grant == nil {
		return "", i.errors.new(UnsupportedGrantCode, walleterror.MalformedInput, operation,
			errors.New("credential offer has no authorization code grant"))
	}

	o := &createAuthorizationURLOpts{}
	for _, opt := range opts {
		opt(o)
	}

	if grant.IssuerState != "" {
		o.issuerState = grant.IssuerState
	}

	if grant.AuthorizationServer != "" && grant.AuthorizationServer != i.authorizationServer {
		i.authorizationServer = grant.AuthorizationServer
		i.openIDConfig = nil
	}

	return i.createAuthorizationURL(ctx, operation, clientID, redirectURI, o)
}
