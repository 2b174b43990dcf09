/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didresolver

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/did"
)

type Wrapper struct {
	resolver api.DIDResolver
	tracer   trace.Tracer
}

func Wrap(resolver api.DIDResolver, tracer trace.Tracer) *Wrapper {
	return &Wrapper{resolver: resolver, tracer: tracer}
}

func (w *Wrapper) Resolve(ctx context.Context, id string) (*did.Document, error) {
	ctx, span := w.tracer.Start(ctx, "did.Resolve")
	defer span.End()

	span.SetAttributes(attribute.String("did", id))

	doc, err := w.resolver.Resolve(ctx, id)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attribute.Int("verification_methods", len(doc.VerificationMethod)))

	return doc, nil
}
