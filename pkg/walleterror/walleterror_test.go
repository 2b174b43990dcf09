/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walleterror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_MarshalJSON(t *testing.T) {
	type testCase[T interface{ ~string }] struct {
		name    string
		e       Error[T]
		want    []byte
		wantErr assert.ErrorAssertionFunc
	}
	tests := []testCase[string]{
		{
			name: "Success: all fields",
			e: Error[string]{
				ErrorCode:      "ISSUER_REJECTED",
				ErrorCategory:  RemoteRejection,
				ErrorComponent: "error component",
				Operation:      "error operation",
				IncorrectValue: "error incorrect value",
				HTTPStatus:     http.StatusBadRequest,
				ServerCode:     "invalid_request",
				ServerMessage:  "bad things",
				Err:            errors.New("some error"),
			},
			want: []byte("{" +
				"\"error\":\"ISSUER_REJECTED\"," +
				"\"category\":\"REMOTE_REJECTION\"," +
				"\"component\":\"error component\"," +
				"\"operation\":\"error operation\"," +
				"\"incorrect_value\":\"error incorrect value\"," +
				"\"http_status\":400," +
				"\"server_error\":\"invalid_request\"," +
				"\"server_error_description\":\"bad things\"," +
				"\"error_description\":\"some error\"" +
				"}"),
			wantErr: assert.NoError,
		},
		{
			name: "Success: code only",
			e: Error[string]{
				ErrorCode: "INVALID_STATE",
				Err:       errors.New("some error"),
			},
			want: []byte("{" +
				"\"error\":\"INVALID_STATE\"," +
				"\"error_description\":\"some error\"" +
				"}"),
			wantErr: assert.NoError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.e.MarshalJSON()
			if !tt.wantErr(t, err, "MarshalJSON()") {
				return
			}
			assert.Equalf(t, tt.want, got, "MarshalJSON()")
		})
	}
}

func TestError_UnmarshalJSON(t *testing.T) {
	var e Error[string]

	require.NoError(t, e.UnmarshalJSON([]byte(`{"error":"NETWORK_ERROR","category":"TRANSPORT",`+
		`"component":"openid4vp.interaction","operation":"present-credential","http_status":502,`+
		`"error_description":"connection refused"}`)))

	assert.Equal(t, "NETWORK_ERROR", e.Code())
	assert.Equal(t, Transport, e.Category())
	assert.Equal(t, "openid4vp.interaction", e.Component())
	assert.Equal(t, "present-credential", e.Operation)
	assert.Equal(t, http.StatusBadGateway, e.HTTPStatus)
	assert.EqualError(t, e.Err, "connection refused")

	require.Error(t, e.UnmarshalJSON([]byte("[]")))
}

func TestError_Error(t *testing.T) {
	e := New("INVALID_PIN", Authentication, errors.New("pin is required")).
		WithComponent(IssuerInitiatedInteractionComponent).
		WithOperation("request-credential").
		WithIncorrectValue("pin").
		WithHTTPStatusField(http.StatusBadRequest).
		WithServerError("invalid_grant", "wrong pin").
		WithErrorPrefix("token request")

	assert.Equal(t, "INVALID_PIN[category: AUTHENTICATION; component: openid4ci.issuer-initiated-interaction; "+
		"operation: request-credential; incorrect value: pin; http status: 400; server error: invalid_grant]: "+
		"token request: pin is required", e.Error())
	assert.Equal(t, "wrong pin", e.ServerMessage)
}

func TestNew_NilCause(t *testing.T) {
	e := New("QUERY_ERROR", Query, nil)

	require.EqualError(t, e.Unwrap(), "QUERY_ERROR")
}

func TestCategoryOf(t *testing.T) {
	type code string

	base := New(code("NETWORK_ERROR"), Transport, errors.New("dial tcp: refused"))
	wrapped := fmt.Errorf("request credential: %w", base)

	c, ok := CategoryOf(wrapped)
	require.True(t, ok)
	require.Equal(t, Transport, c)
	require.True(t, Is(wrapped, Transport))
	require.False(t, Is(wrapped, Authentication))
	require.True(t, c.Retryable())
	require.False(t, RemoteRejection.Retryable())
	require.Equal(t, "NETWORK_ERROR", CodeOf(wrapped))

	_, ok = CategoryOf(errors.New("plain"))
	require.False(t, ok)
	require.Empty(t, CodeOf(errors.New("plain")))
}
