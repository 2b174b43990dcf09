/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package oauth2client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/trustbloc/wallet-engine/pkg/oauth2client"
)

func TestAuthCodeURL(t *testing.T) {
	cl := oauth2client.NewOAuth2Client()

	authURL := cl.AuthCodeURL(context.Background(), oauth2.Config{
		ClientID:    "wallet",
		RedirectURL: "https://wallet.example.com/cb",
		Endpoint:    oauth2.Endpoint{AuthURL: "https://issuer.example.com/authorize"},
	}, "state-1",
		oauth2client.WithPKCEChallenge("verifier-1"),
		oauth2client.SetAuthURLParam("code_challenge_method", "S256"),
		oauth2client.SetAuthURLParam("issuer_state", "xyz"),
	)

	u, err := url.Parse(authURL)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "wallet", q.Get("client_id"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Equal(t, "xyz", q.Get("issuer_state"))
	assert.Equal(t, oauth2.S256ChallengeFromVerifier("verifier-1"), q.Get("code_challenge"))
	assert.Equal(t, "https://wallet.example.com/cb", q.Get("redirect_uri"))
}

func TestExchange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.FormValue("grant_type"))
		assert.Equal(t, "code-1", r.FormValue("code"))
		assert.Equal(t, "verifier-1", r.FormValue("code_verifier"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at","token_type":"Bearer","c_nonce":"n1"}`))
	}))
	defer srv.Close()

	cl := oauth2client.NewOAuth2Client()

	token, err := cl.Exchange(context.Background(), oauth2.Config{
		ClientID: "wallet",
		Endpoint: oauth2.Endpoint{TokenURL: srv.URL, AuthStyle: oauth2.AuthStyleInParams},
	}, "code-1", srv.Client(), oauth2client.WithPKCEVerifier("verifier-1"))
	require.NoError(t, err)
	assert.Equal(t, "at", token.AccessToken)
	assert.Equal(t, "n1", token.Extra("c_nonce"))

	t.Run("bearer client", func(t *testing.T) {
		api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer at", r.Header.Get("Authorization"))
			w.WriteHeader(http.StatusNoContent)
		}))
		defer api.Close()

		resp, err := cl.HTTPClient(context.Background(), token, api.Client()).Get(api.URL)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	})
}
