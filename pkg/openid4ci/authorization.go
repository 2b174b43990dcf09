/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/oauth2client"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

const authorizationDetailsType = "openid_credential"

type authorizationDetails struct {
	Type                 string                       `json:"type"`
	Format               string                       `json:"format"`
	CredentialDefinition *credentialRequestDefinition `json:"credential_definition,omitempty"`
	Types                []string                     `json:"types,omitempty"`
	Locations            []string                     `json:"locations,omitempty"`
}

// createAuthorizationURL builds the authorization request for the offered credentials. A pushed authorization
// request is used when the authorization server requires one.
func (i *interaction) createAuthorizationURL(ctx context.Context, operation, clientID, redirectURI string,
	o *createAuthorizationURLOpts,
) (string, error) {
	start := time.Now()

	if clientID == "" {
		clientID = i.cfg.ClientID
	}

	if clientID == "" || redirectURI == "" {
		return "", i.errors.new(InvalidConfigCode, walleterror.MalformedInput, operation,
			errors.New("client ID and redirect URI are required"))
	}

	config, err := i.getOpenIDConfig(ctx, createAuthorizationURLText)
	if err != nil {
		return "", i.errors.metadata(operation, err)
	}

	if config.AuthorizationEndpoint == "" {
		return "", i.errors.metadata(operation, errors.New("openid configuration has no authorization_endpoint"))
	}

	verifier, _, _, err := i.oauth.GeneratePKCE()
	if err != nil {
		return "", i.errors.new(SigningFailedCode, walleterror.Signing, operation, err)
	}

	i.clientID = clientID
	i.redirectURI = redirectURI

	params := []oauth2client.AuthCodeOption{
		oauth2client.WithPKCEChallenge(verifier),
		oauth2client.SetAuthURLParam("code_challenge_method", "S256"),
	}

	if o.issuerState != "" {
		params = append(params, oauth2client.SetAuthURLParam("issuer_state", o.issuerState))
	}

	if len(o.scopes) == 0 {
		details, err := i.authorizationDetails()
		if err != nil {
			return "", i.errors.new(MalformedOfferCode, walleterror.MalformedInput, operation, err)
		}

		params = append(params, oauth2client.SetAuthURLParam("authorization_details", details))
	}

	state := uuid.NewString()
	oauthConfig := i.oauthConfig(config, o.scopes)

	var authURL string

	if config.RequirePushedAuthorizationRequests && config.PushedAuthorizationRequestEndpoint != "" {
		authURL, err = i.oauth.AuthCodeURLWithPAR(ctx, oauthConfig, config.PushedAuthorizationRequestEndpoint,
			state, i.request.Client(), params...)
		if err != nil {
			var urlErr *url.Error
			if errors.As(err, &urlErr) {
				return "", i.errors.new(NetworkErrorCode, walleterror.Transport, operation, err)
			}

			return "", i.fail(ctx, i.errors.new(IssuerRejectedCode, walleterror.RemoteRejection, operation,
				fmt.Errorf("pushed authorization request: %w", err)))
		}
	} else {
		authURL = i.oauth.AuthCodeURL(ctx, oauthConfig, state, params...)
	}

	i.oauthState = state
	i.codeVerifier = verifier
	i.setState(ctx, StateAuthorizationURLIssued)

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, nil)
	i.logMetrics(ctx, createAuthorizationURLText, "", time.Since(start))

	return authURL, nil
}

func (i *interaction) authorizationDetails() (string, error) {
	var locations []string

	if i.metadata != nil && i.metadata.AuthorizationServerURL() != i.metadata.CredentialIssuer {
		locations = []string{i.metadata.CredentialIssuer}
	}

	details := make([]*authorizationDetails, 0, len(i.offered))

	for _, oc := range i.offered {
		d := &authorizationDetails{
			Type:      authorizationDetailsType,
			Format:    string(oc.Format),
			Locations: locations,
			CredentialDefinition: &credentialRequestDefinition{
				Context: oc.Context,
				Type:    oc.Types,
			},
		}

		if oc.Format == credential.JWTVCJSON {
			d.Types = oc.Types
		}

		details = append(details, d)
	}

	b, err := json.Marshal(details)
	if err != nil {
		return "", fmt.Errorf("encode authorization_details: %w", err)
	}

	return string(b), nil
}
