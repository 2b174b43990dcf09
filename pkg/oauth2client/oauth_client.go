/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination gomocks_test.go -package oauth2client_test net/http RoundTripper

// Package oauth2client is a thin layer over golang.org/x/oauth2 used by the issuance interaction for
// authorization URLs (plain or pushed), PKCE and code exchange.
package oauth2client

import (
	"context"
	"net/http"

	"golang.org/x/oauth2"
)

// Grant types.
const (
	GrantTypeAuthorizationCode = "authorization_code"
	GrantTypePreAuthorizedCode = "urn:ietf:params:oauth:grant-type:pre-authorized_code"
)

type Client struct {
}

func NewOAuth2Client() *Client {
	return &Client{}
}

// Exchange trades an authorization code for an access token. Requests are sent through client.
func (c *Client) Exchange(
	ctx context.Context,
	cfg oauth2.Config,
	code string,
	client *http.Client,
	opts ...AuthCodeOption,
) (*oauth2.Token, error) {
	return (&cfg).Exchange(
		context.WithValue(ctx, oauth2.HTTPClient, client),
		code,
		c.convertOptions(opts...)...,
	)
}

func (c *Client) AuthCodeURL(_ context.Context, cfg oauth2.Config, state string, opts ...AuthCodeOption) string {
	return (&cfg).AuthCodeURL(state, c.convertOptions(opts...)...)
}

// HTTPClient returns a client that sends token as a bearer token, using the transport of base.
func (c *Client) HTTPClient(ctx context.Context, token *oauth2.Token, base *http.Client) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	client.Timeout = base.Timeout

	return client
}
