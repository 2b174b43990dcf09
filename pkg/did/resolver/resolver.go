/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package resolver dispatches DID resolution to method resolvers and caches the results.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/did/httpresolver"
	"github.com/trustbloc/wallet-engine/pkg/did/jwk"
	"github.com/trustbloc/wallet-engine/pkg/did/key"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

var logger = log.New("did-resolver")

const (
	defaultCacheSize = 100
	defaultCacheTTL  = 5 * time.Minute

	// ErrorCode is the code of every error returned by Resolver.
	ErrorCode = "RESOLUTION_FAILED"
)

// Error is the error type returned by Resolver.
type Error = walleterror.Error[string]

// Resolver resolves DIDs by method. Methods without a dedicated resolver fall back to the
// universal resolver when one is configured.
type Resolver struct {
	methods  map[string]api.DIDResolver
	fallback api.DIDResolver
	cache    gcache.Cache
}

type options struct {
	methods           map[string]api.DIDResolver
	universalResolver string
	httpOpts          []httpresolver.Opt
	cacheSize         int
	cacheTTL          time.Duration
	disableCache      bool
}

// Opt configures Resolver.
type Opt func(o *options)

// WithMethodResolver registers a resolver for a DID method (e.g. "web").
func WithMethodResolver(method string, r api.DIDResolver) Opt {
	return func(o *options) {
		o.methods[method] = r
	}
}

// WithUniversalResolver sets the universal resolver endpoint used for methods without a dedicated resolver.
func WithUniversalResolver(endpoint string, opts ...httpresolver.Opt) Opt {
	return func(o *options) {
		o.universalResolver = endpoint
		o.httpOpts = opts
	}
}

// WithCache sets the size and expiration of the document cache.
func WithCache(size int, ttl time.Duration) Opt {
	return func(o *options) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

// WithoutCache disables caching of resolved documents.
func WithoutCache() Opt {
	return func(o *options) {
		o.disableCache = true
	}
}

// New returns a resolver supporting did:key and did:jwk plus any configured methods.
func New(opts ...Opt) (*Resolver, error) {
	o := &options{
		methods: map[string]api.DIDResolver{
			"key": key.New(),
			"jwk": jwk.New(),
		},
		cacheSize: defaultCacheSize,
		cacheTTL:  defaultCacheTTL,
	}

	for _, opt := range opts {
		opt(o)
	}

	r := &Resolver{methods: o.methods}

	if o.universalResolver != "" {
		ur, err := httpresolver.New(o.universalResolver, o.httpOpts...)
		if err != nil {
			return nil, err
		}

		r.fallback = ur
	}

	if !o.disableCache {
		if o.cacheSize <= 0 {
			return nil, fmt.Errorf("invalid cache size %d", o.cacheSize)
		}

		r.cache = gcache.New(o.cacheSize).LRU().Expiration(o.cacheTTL).Build()
	}

	return r, nil
}

// Resolve resolves id. Errors are categorised as walleterror.Resolution.
func (r *Resolver) Resolve(ctx context.Context, id string) (*did.Document, error) {
	if r.cache != nil {
		if cached, err := r.cache.Get(id); err == nil {
			return cached.(*did.Document), nil //nolint:forcetypeassert
		}
	}

	method, err := methodOf(id)
	if err != nil {
		return nil, resolutionError(id, err)
	}

	res, ok := r.methods[method]
	if !ok {
		if r.fallback == nil {
			return nil, resolutionError(id, fmt.Errorf("unsupported did method %q", method))
		}

		res = r.fallback
	}

	doc, err := res.Resolve(ctx, id)
	if err != nil {
		return nil, resolutionError(id, err)
	}

	if r.cache != nil {
		if err = r.cache.Set(id, doc); err != nil {
			logger.Warnc(ctx, "Failed to cache did document", logfields.WithDID(id), log.WithError(err))
		}
	}

	logger.Debugc(ctx, "DID resolved", logfields.WithDID(id))

	return doc, nil
}

func methodOf(id string) (string, error) {
	parts := strings.SplitN(id, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[1] == "" || parts[2] == "" {
		return "", errors.New("invalid did")
	}

	return parts[1], nil
}

func resolutionError(id string, err error) *Error {
	return walleterror.New(ErrorCode, walleterror.Resolution, err).
		WithComponent(walleterror.DIDResolverComponent).
		WithOperation("Resolve").
		WithIncorrectValue(id)
}
