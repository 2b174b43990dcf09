/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpresolver resolves DIDs through a universal resolver HTTP endpoint
// (GET <endpoint>/1.0/identifiers/<did>).
package httpresolver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
)

const (
	identifiersPath = "/1.0/identifiers/"

	resolveEvent = "Resolve DID via universal resolver"
)

// Resolver resolves DIDs of any method supported by a remote universal resolver.
type Resolver struct {
	endpoint    string
	httpRequest *httprequest.Request
}

type options struct {
	httpClient    *http.Client
	metricsLogger api.MetricsLogger
	headers       []api.Header
}

// Opt configures Resolver.
type Opt func(o *options)

// WithHTTPClient sets the HTTP client used for resolution requests.
func WithHTTPClient(c *http.Client) Opt {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithMetricsLogger sets the metrics logger notified of every resolution request.
func WithMetricsLogger(l api.MetricsLogger) Opt {
	return func(o *options) {
		o.metricsLogger = l
	}
}

// WithHeaders adds headers to every resolution request.
func WithHeaders(headers []api.Header) Opt {
	return func(o *options) {
		o.headers = headers
	}
}

// New returns a resolver for the given universal resolver endpoint.
func New(endpoint string, opts ...Opt) (*Resolver, error) {
	if endpoint == "" {
		return nil, errors.New("universal resolver endpoint cannot be empty")
	}

	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("invalid universal resolver endpoint: %w", err)
	}

	o := &options{httpClient: http.DefaultClient}

	for _, opt := range opts {
		opt(o)
	}

	return &Resolver{
		endpoint:    strings.TrimSuffix(endpoint, "/"),
		httpRequest: httprequest.New(httprequest.NewClient(o.httpClient, o.headers), o.metricsLogger),
	}, nil
}

// Resolve fetches and parses the DID document for id. A 404 answer yields did.ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context, id string) (*did.Document, error) {
	respBytes, err := r.httpRequest.Get(ctx, r.endpoint+identifiersPath+id, resolveEvent, "",
		func(statusCode int, respBody []byte) error {
			if statusCode == http.StatusNotFound {
				return fmt.Errorf("resolve %s: %w", id, did.ErrNotFound)
			}

			return fmt.Errorf("resolve %s: universal resolver returned status %d: %s", id, statusCode, respBody)
		})
	if err != nil {
		return nil, err
	}

	doc, err := did.ParseDocument(respBytes)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", id, err)
	}

	return doc, nil
}
