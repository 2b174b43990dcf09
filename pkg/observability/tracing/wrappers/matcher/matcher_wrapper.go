/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination gomocks_test.go -package matcher . Service

package matcher

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/observability/tracing/attributeutil"
	"github.com/trustbloc/wallet-engine/pkg/presexch"
)

var _ Service = (*Wrapper)(nil) // make sure Wrapper implements Service

type Service interface {
	Evaluate(
		ctx context.Context,
		pd *presexch.PresentationDefinition,
		creds *credential.Collection,
	) ([]*presexch.Requirement, error)
	BuildPresentation(
		ctx context.Context,
		pd *presexch.PresentationDefinition,
		selected []*credential.Credential,
	) (*presexch.PresentationContent, error)
}

type Wrapper struct {
	svc    Service
	tracer trace.Tracer
}

func Wrap(svc Service, tracer trace.Tracer) *Wrapper {
	return &Wrapper{svc: svc, tracer: tracer}
}

func (w *Wrapper) Evaluate(
	ctx context.Context,
	pd *presexch.PresentationDefinition,
	creds *credential.Collection,
) ([]*presexch.Requirement, error) {
	ctx, span := w.tracer.Start(ctx, "presexch.Evaluate")
	defer span.End()

	span.SetAttributes(attribute.Int("credentials", creds.Length()))

	if pd != nil {
		span.SetAttributes(attribute.String("presentation_definition_id", pd.ID))
		span.SetAttributes(attributeutil.JSON("submission_requirements", pd.SubmissionRequirements))
	}

	reqs, err := w.svc.Evaluate(ctx, pd, creds)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	satisfied := 0

	for _, r := range reqs {
		if r.Satisfied() {
			satisfied++
		}
	}

	span.SetAttributes(attribute.Int("requirements", len(reqs)), attribute.Int("satisfied", satisfied))

	return reqs, nil
}

func (w *Wrapper) BuildPresentation(
	ctx context.Context,
	pd *presexch.PresentationDefinition,
	selected []*credential.Credential,
) (*presexch.PresentationContent, error) {
	ctx, span := w.tracer.Start(ctx, "presexch.BuildPresentation")
	defer span.End()

	ids := make([]string, 0, len(selected))

	for _, c := range selected {
		if c != nil {
			ids = append(ids, c.ID())
		}
	}

	span.SetAttributes(attribute.StringSlice("credential_ids", ids))

	content, err := w.svc.BuildPresentation(ctx, pd, selected)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())

		return nil, err
	}

	span.SetAttributes(attributeutil.JSON("presentation_submission", content.Submission))

	return content, nil
}
