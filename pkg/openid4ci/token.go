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
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/oauth2client"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

const cNonceExtra = "c_nonce"

func (i *interaction) requestPreAuthorizedToken(ctx context.Context, operation, pin string) error {
	grant := i.preAuthGrant

	if grant.PINRequired() && pin == "" {
		return i.errors.new(InvalidPINCode, walleterror.Authentication, operation,
			errors.New("PIN is required"))
	}

	config, err := i.getOpenIDConfig(ctx, requestCredentialEventText)
	if err != nil {
		return i.errors.metadata(operation, err)
	}

	params := url.Values{
		"grant_type":          {oauth2client.GrantTypePreAuthorizedCode},
		"pre-authorized_code": {grant.PreAuthorizedCode},
	}

	if i.cfg.ClientID != "" {
		params.Set("client_id", i.cfg.ClientID)
	}

	if pin != "" {
		if grant.TxCode != nil || !grant.UserPINRequired {
			params.Set("tx_code", pin)
		} else {
			params.Set("user_pin", pin)
		}
	}

	logger.Debugc(ctx, "Requesting token", logfields.WithGrantType(oauth2client.GrantTypePreAuthorizedCode))

	b, err := i.request.Do(ctx, http.MethodPost, config.TokenEndpoint, "application/x-www-form-urlencoded",
		strings.NewReader(params.Encode()), nil, fmt.Sprintf(fetchTokenEventText, config.TokenEndpoint),
		requestCredentialEventText, nil, remoteErrorHandler("token"))
	if err != nil {
		var remoteErr *remoteError
		if pin != "" && errors.As(err, &remoteErr) && remoteErr.resp.Error == errInvalidGrant {
			return i.errors.new(InvalidPINCode, walleterror.Authentication, operation, err).
				WithHTTPStatusField(remoteErr.statusCode).
				WithServerError(remoteErr.resp.Error, remoteErr.resp.ErrorDescription)
		}

		return i.fail(ctx, i.errors.remote(operation, err))
	}

	var resp tokenResponse

	if err = json.Unmarshal(b, &resp); err != nil {
		return i.fail(ctx, i.errors.remote(operation, fmt.Errorf("decode token response: %w", err)))
	}

	if resp.AccessToken == "" {
		return i.fail(ctx, i.errors.remote(operation, errors.New("token response has no access_token")))
	}

	i.token = (&oauth2.Token{
		AccessToken:  resp.AccessToken,
		TokenType:    resp.TokenType,
		RefreshToken: resp.RefreshToken,
		Expiry:       resp.expiry(),
	}).WithExtra(map[string]interface{}{cNonceExtra: resp.CNonce})
	i.cNonce = resp.CNonce

	return nil
}

// exchangeAuthorizationCode checks the redirect the authorization server sent the user to and exchanges the
// code for a token using the PKCE verifier of the authorization URL.
func (i *interaction) exchangeAuthorizationCode(ctx context.Context, operation, redirectURI string) error {
	if redirectURI == "" {
		return i.errors.invalidState(operation, i.state).
			WithErrorPrefix("redirect URI is required after an authorization URL was issued")
	}

	u, err := url.Parse(redirectURI)
	if err != nil {
		return i.errors.new(StateMismatchCode, walleterror.MalformedInput, operation,
			fmt.Errorf("parse redirect uri: %w", err))
	}

	q := u.Query()

	if q.Get("error") != "" {
		return i.fail(ctx, i.errors.new(IssuerRejectedCode, walleterror.RemoteRejection, operation,
			fmt.Errorf("authorization failed: %s", q.Get("error"))).
			WithServerError(q.Get("error"), q.Get("error_description")))
	}

	code, state := q.Get("code"), q.Get("state")

	if code == "" || state == "" {
		return i.errors.new(StateMismatchCode, walleterror.MalformedInput, operation,
			errors.New("redirect uri is missing code or state"))
	}

	if state != i.oauthState {
		return i.errors.new(StateMismatchCode, walleterror.MalformedInput, operation,
			errors.New("state in redirect uri does not match the authorization request")).
			WithIncorrectValue(state)
	}

	config, err := i.getOpenIDConfig(ctx, requestCredentialEventText)
	if err != nil {
		return i.errors.metadata(operation, err)
	}

	start := time.Now()

	token, err := i.oauth.Exchange(ctx, i.oauthConfig(config, nil), code, i.request.Client(),
		oauth2client.WithPKCEVerifier(i.codeVerifier))
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			e := i.errors.new(IssuerRejectedCode, walleterror.RemoteRejection, operation, err).
				WithServerError(retrieveErr.ErrorCode, retrieveErr.ErrorDescription)

			if retrieveErr.Response != nil {
				e = e.WithHTTPStatusField(retrieveErr.Response.StatusCode)
			}

			return i.fail(ctx, e)
		}

		return i.errors.new(NetworkErrorCode, walleterror.Transport, operation, err)
	}

	i.logMetrics(ctx, fmt.Sprintf(fetchTokenEventText, config.TokenEndpoint), requestCredentialEventText,
		time.Since(start))

	if nonce, ok := token.Extra(cNonceExtra).(string); ok {
		i.cNonce = nonce
	}

	i.token = token
	i.setState(ctx, StateAuthorized)

	return nil
}

func (i *interaction) oauthConfig(config *OpenIDConfig, scopes []string) oauth2.Config {
	clientID := i.clientID
	if clientID == "" {
		clientID = i.cfg.ClientID
	}

	return oauth2.Config{
		ClientID:    clientID,
		RedirectURL: i.redirectURI,
		Scopes:      scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   config.AuthorizationEndpoint,
			TokenURL:  config.TokenEndpoint,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}
