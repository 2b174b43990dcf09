/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package openid4ci implements the wallet side of OpenID for Verifiable Credential Issuance.
//
// An interaction is a caller-driven state machine for exactly one protocol run. Issuer-initiated runs start from
// a credential offer, wallet-initiated runs start from the issuer URI. Interactions are not safe for concurrent
// use; independent interactions may run in parallel.
package openid4ci

import (
	"errors"
	"net/http"
	"time"

	"github.com/jinzhu/copier"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/trustbloc/wallet-engine/pkg/activitylogger/noop"
	"github.com/trustbloc/wallet-engine/pkg/api"
)

var logger = log.New("openid4ci")

const (
	activityOperation = "oidc-issuance"

	proofTypeJWT       = "jwt"
	jwtProofTypeHeader = "openid4vci-proof+jwt"

	defaultHTTPTimeout = 30 * time.Second
)

// Metrics events.
const (
	authorizeEventText             = "Authorize credential offer"
	createAuthorizationURLText     = "Create authorization URL"
	requestCredentialEventText     = "Request credential(s) from issuer"
	acknowledgeEventText           = "Acknowledge credential(s)"
	fetchOfferEventText            = "Fetch credential offer via an HTTP GET request to %s"
	fetchMetadataEventText         = "Fetch issuer metadata via an HTTP GET request to %s"
	fetchOpenIDConfigEventText     = "Fetch OpenID configuration via an HTTP GET request to %s"
	fetchTokenEventText            = "Fetch token via an HTTP POST request to %s"
	fetchCredentialEventText       = "Fetch credential %d of %d via an HTTP POST request to %s"
	fetchBatchCredentialsEventText = "Fetch %d credentials via an HTTP POST request to %s"
	notifyEventText                = "Send notification via an HTTP POST request to %s"
)

// ClientConfig holds the capabilities and settings of an interaction. It is copied when the interaction is
// created, so later changes by the caller have no effect.
type ClientConfig struct {
	// ClientID identifies the wallet to the issuer. It is used as the proof "iss" claim when set.
	ClientID string
	// DIDResolver resolves keys of signed offers, signed metadata and JWT credentials. Required.
	DIDResolver api.DIDResolver
	// Signer signs key proofs. Required.
	Signer api.Signer
	// ActivityLogger receives an entry for every completed step. Optional.
	ActivityLogger api.ActivityLogger
	// MetricsLogger receives timing events. Optional.
	MetricsLogger api.MetricsLogger
	// HTTPClient sends all outbound requests. Optional, a client with a 30s timeout is used by default.
	HTTPClient *http.Client
	// Headers are added to every outbound request.
	Headers []api.Header
	// Tracer starts a span for every public operation. Optional.
	Tracer trace.Tracer
	// DisableVCProofChecks skips signature verification of issued JWT credentials.
	DisableVCProofChecks bool
}

func copyConfig(config *ClientConfig) (*ClientConfig, error) {
	if config == nil {
		return nil, errors.New("client config is required")
	}

	if config.DIDResolver == nil {
		return nil, errors.New("client config has no DID resolver")
	}

	if config.Signer == nil {
		return nil, errors.New("client config has no signer")
	}

	cfg := *config
	cfg.Headers = nil

	if err := copier.CopyWithOption(&cfg.Headers, config.Headers, copier.Option{DeepCopy: true}); err != nil {
		return nil, err
	}

	if cfg.ActivityLogger == nil {
		cfg.ActivityLogger = noop.NewActivityLogger()
	}

	if cfg.MetricsLogger == nil {
		cfg.MetricsLogger = noop.NewMetricsLogger()
	}

	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultHTTPTimeout}
	}

	if cfg.Tracer == nil {
		cfg.Tracer = tracenoop.NewTracerProvider().Tracer("")
	}

	return &cfg, nil
}

// RequestCredentialOpt configures RequestCredential.
type RequestCredentialOpt func(o *requestCredentialOpts)

type requestCredentialOpts struct {
	pin         string
	redirectURI string
}

// WithPIN passes the transaction code the user entered.
func WithPIN(pin string) RequestCredentialOpt {
	return func(o *requestCredentialOpts) {
		o.pin = pin
	}
}

// WithRedirectURI passes the redirect URI (with code and state) the authorization server sent the user back to.
func WithRedirectURI(uri string) RequestCredentialOpt {
	return func(o *requestCredentialOpts) {
		o.redirectURI = uri
	}
}

// CreateAuthorizationURLOpt configures CreateAuthorizationURL.
type CreateAuthorizationURLOpt func(o *createAuthorizationURLOpts)

type createAuthorizationURLOpts struct {
	issuerState string
	scopes      []string
}

// WithIssuerState sets issuer_state when the offer does not already carry one.
func WithIssuerState(state string) CreateAuthorizationURLOpt {
	return func(o *createAuthorizationURLOpts) {
		o.issuerState = state
	}
}

// WithScopes requests the credentials by scope instead of authorization_details.
func WithScopes(scopes ...string) CreateAuthorizationURLOpt {
	return func(o *createAuthorizationURLOpts) {
		o.scopes = scopes
	}
}
