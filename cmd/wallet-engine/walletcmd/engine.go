/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/trustbloc/wallet-engine/cmd/common"
	"github.com/trustbloc/wallet-engine/internal/pkg/utils/tls"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/httpresolver"
	"github.com/trustbloc/wallet-engine/pkg/did/resolver"
	"github.com/trustbloc/wallet-engine/pkg/kms"
	"github.com/trustbloc/wallet-engine/pkg/observability/metrics"
	"github.com/trustbloc/wallet-engine/pkg/observability/metrics/prometheus"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing/wrappers/didresolver"
	"github.com/trustbloc/wallet-engine/pkg/storage"
)

// engine holds everything a command needs. It is built once per command run and closed afterwards.
type engine struct {
	provider    storage.Provider
	kms         *kms.LocalKMS
	credentials *credentialStore
	activities  storage.ActivityStore
	resolver    api.DIDResolver
	tracer      trace.Tracer
	metrics     api.MetricsLogger
	httpClient  *http.Client
	headers     []api.Header

	closers []func() error
}

func newEngine(cmd *cobra.Command) (*engine, error) {
	params, err := getWalletParameters(cmd)
	if err != nil {
		return nil, err
	}

	common.SetLogLevels(logger, params.logLevel)

	e := &engine{}

	shutdownTracer, tracer, err := tracing.Initialize(params.tracingProvider, params.tracingServiceName)
	if err != nil {
		return nil, fmt.Errorf("initialize tracing: %w", err)
	}

	e.tracer = tracer
	e.closers = append(e.closers, func() error { shutdownTracer(); return nil })

	if params.tracingProvider != tracing.None {
		params.db.TracerProvider = otel.GetTracerProvider()
	}

	if err = e.initMetrics(params); err != nil {
		e.close()

		return nil, err
	}

	if err = e.initStorage(params); err != nil {
		e.close()

		return nil, err
	}

	if err = e.initTransport(params); err != nil {
		e.close()

		return nil, err
	}

	return e, nil
}

func (e *engine) initMetrics(params *walletParameters) error {
	var srv *http.Server
	if params.metricsAddr != "" {
		srv = prometheus.NewServer(params.metricsAddr)
	}

	provider := prometheus.NewPrometheusProvider(srv)

	if err := provider.Create(); err != nil {
		return fmt.Errorf("create metrics provider: %w", err)
	}

	e.closers = append(e.closers, provider.Destroy)
	e.metrics = metrics.NewEventLogger(provider.Metrics())

	return nil
}

func (e *engine) initStorage(params *walletParameters) error {
	provider, err := common.InitStore(params.db, logger)
	if err != nil {
		return err
	}

	e.provider = provider
	e.closers = append(e.closers, provider.Close)

	keyStore, err := provider.OpenKeyStore()
	if err != nil {
		return fmt.Errorf("open key store: %w", err)
	}

	e.kms, err = kms.NewLocalKMS(keyStore, prometheus.GetMetrics())
	if err != nil {
		return err
	}

	credStore, err := provider.OpenCredentialStore()
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}

	e.credentials = &credentialStore{store: credStore}

	e.activities, err = provider.OpenActivityStore()
	if err != nil {
		return fmt.Errorf("open activity store: %w", err)
	}

	return nil
}

func (e *engine) initTransport(params *walletParameters) error {
	var rootCAs *x509.CertPool

	if params.tlsSystemCertPool || len(params.tlsCACerts) > 0 {
		pool, err := tls.GetCertPool(params.tlsSystemCertPool, params.tlsCACerts)
		if err != nil {
			return err
		}

		rootCAs = pool
	}

	e.httpClient = tls.NewHTTPClient(rootCAs, params.httpTimeout)

	for _, h := range params.headers {
		name, value, found := strings.Cut(h, "=")
		if !found || name == "" {
			return fmt.Errorf("invalid header %q, expected name=value", h)
		}

		e.headers = append(e.headers, api.Header{Name: name, Value: value})
	}

	opts := []resolver.Opt{resolver.WithoutCache()}
	if params.didCacheTTL > 0 {
		opts = []resolver.Opt{resolver.WithCache(didCacheSize, params.didCacheTTL)}
	}

	if params.universalResolverURL != "" {
		opts = append(opts, resolver.WithUniversalResolver(params.universalResolverURL,
			httpresolver.WithHTTPClient(e.httpClient),
			httpresolver.WithMetricsLogger(e.metrics),
			httpresolver.WithHeaders(e.headers),
		))
	}

	r, err := resolver.New(opts...)
	if err != nil {
		return err
	}

	e.resolver = didresolver.Wrap(r, e.tracer)

	return nil
}

// signingMethod resolves didID and returns the verification method whose key signs proofs and presentations.
// keyID selects a method other than the first authentication method.
func (e *engine) signingMethod(ctx context.Context, didID, keyID string) (*did.VerificationMethod, error) {
	if didID == "" {
		return nil, errors.New("a DID is required, create one with \"key create\"")
	}

	doc, err := e.resolver.Resolve(ctx, didID)
	if err != nil {
		return nil, err
	}

	if keyID != "" {
		return doc.VerificationMethodByID(keyID)
	}

	vms, err := did.VerificationMethods(doc, did.Authentication)
	if err != nil {
		return nil, err
	}

	return vms[0], nil
}

func (e *engine) close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			logger.Warn("Failed to release resource", log.WithError(err))
		}
	}

	e.closers = nil
}
