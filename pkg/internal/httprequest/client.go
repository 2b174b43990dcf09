/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httprequest

import (
	"net/http"

	"go.opentelemetry.io/otel/propagation"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

// NewClient returns a copy of base whose transport adds headers to every request, together with
// the W3C trace context of the request context when it carries a span.
func NewClient(base *http.Client, headers []api.Header) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}

	transport := base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	c := *base
	c.Transport = &headerTransport{
		base:       transport,
		headers:    append([]api.Header(nil), headers...),
		propagator: propagation.TraceContext{},
	}

	return &c
}

type headerTransport struct {
	base       http.RoundTripper
	headers    []api.Header
	propagator propagation.TextMapPropagator
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())

	for _, h := range t.headers {
		r.Header.Set(h.Name, h.Value)
	}

	t.propagator.Inject(r.Context(), propagation.HeaderCarrier(r.Header))

	return t.base.RoundTrip(r)
}
