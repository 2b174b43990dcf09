/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package openid4vp implements the wallet side of OpenID for Verifiable Presentations.
//
// An Interaction answers exactly one authorization request: GetQuery fetches and checks the verifier's request
// object, PresentCredential posts the signed presentation back to the verifier. Interactions are not safe for
// concurrent use.
package openid4vp

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

var logger = log.New("openid4vp")

const (
	activityOperation = "oidc-presentation"

	// selfIssuedIssuer is the "iss" of ID tokens issued by the wallet itself.
	selfIssuedIssuer = "https://self-issued.me/v2/openid-vc"

	tokenLifetime      = 10 * time.Minute
	defaultHTTPTimeout = 30 * time.Second
)

// Metrics events.
const (
	getQueryEventText               = "Get query"
	fetchRequestObjectEventText     = "Fetch request object via an HTTP GET request to %s"
	presentCredentialEventText      = "Present credential" //nolint:gosec
	sendAuthorizedResponseEventText = "Send authorized response via an HTTP POST request to %s"
	rejectEventText                 = "Reject presentation request"
	sendErrorResponseEventText      = "Send error response via an HTTP POST request to %s"
)

// ClientConfig holds the capabilities and settings of an interaction. It is copied when the interaction is
// created.
type ClientConfig struct {
	// DIDResolver resolves the verifier's request object key. Required.
	DIDResolver api.DIDResolver
	// Signer signs the vp_token and id_token. Required.
	Signer api.Signer
	// ActivityLogger receives an entry when a presentation is sent or rejected. Optional.
	ActivityLogger api.ActivityLogger
	// MetricsLogger receives timing events. Optional.
	MetricsLogger api.MetricsLogger
	// HTTPClient sends all outbound requests. Optional, a client with a 30s timeout is used by default.
	HTTPClient *http.Client
	// Headers are added to every outbound request.
	Headers []api.Header
	// Tracer starts a span for every public operation. Optional.
	Tracer trace.Tracer
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
