/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package didresolver

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	nooptracer "go.opentelemetry.io/otel/trace/noop"

	"github.com/trustbloc/wallet-engine/internal/mock/apimocks"
	"github.com/trustbloc/wallet-engine/pkg/did"
)

func TestWrapper_Resolve(t *testing.T) {
	ctrl := gomock.NewController(t)

	resolver := apimocks.NewMockDIDResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "did:example:123").Times(1).
		Return(&did.Document{ID: "did:example:123"}, nil)

	w := Wrap(resolver, nooptracer.NewTracerProvider().Tracer(""))

	doc, err := w.Resolve(context.Background(), "did:example:123")
	require.NoError(t, err)
	require.Equal(t, "did:example:123", doc.ID)
}

func TestWrapper_Resolve_Error(t *testing.T) {
	ctrl := gomock.NewController(t)

	resolver := apimocks.NewMockDIDResolver(ctrl)
	resolver.EXPECT().Resolve(gomock.Any(), "did:example:123").Times(1).
		Return(nil, errors.New("resolve error"))

	w := Wrap(resolver, nooptracer.NewTracerProvider().Tracer(""))

	_, err := w.Resolve(context.Background(), "did:example:123")
	require.EqualError(t, err, "resolve error")
}
