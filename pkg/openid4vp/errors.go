/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4vp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// ErrorCode is a presentation error code.
type ErrorCode string

// Error codes.
const (
	MalformedRequestCode        ErrorCode = "MALFORMED_REQUEST"
	UnsupportedResponseTypeCode ErrorCode = "UNSUPPORTED_RESPONSE_TYPE"
	VerifierRejectedCode        ErrorCode = "VERIFIER_REJECTED"
	NetworkErrorCode            ErrorCode = "NETWORK_ERROR"
	InvalidStateCode            ErrorCode = "INVALID_STATE"
	SigningFailedCode           ErrorCode = "SIGNING_FAILED"
	ResolutionFailedCode        ErrorCode = "RESOLUTION_FAILED"
	InvalidConfigCode           ErrorCode = "INVALID_CONFIG"
	InvalidPresentationCode     ErrorCode = "INVALID_PRESENTATION"
)

// Error is the error type returned by interactions.
type Error = walleterror.Error[ErrorCode]

type errorResponse struct {
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// verifierError is a non-2xx answer of the verifier.
type verifierError struct {
	endpoint   string
	statusCode int
	resp       errorResponse
	body       []byte
}

func (e *verifierError) Error() string {
	if e.resp.Error != "" {
		return fmt.Sprintf("verifier %s returned status %d: %s %s",
			e.endpoint, e.statusCode, e.resp.Error, e.resp.ErrorDescription)
	}

	return fmt.Sprintf("verifier %s returned status %d with body %s", e.endpoint, e.statusCode, e.body)
}

func verifierErrorHandler(endpoint string) httprequest.ErrorResponseHandler {
	return func(statusCode int, respBody []byte) error {
		e := &verifierError{endpoint: endpoint, statusCode: statusCode, body: respBody}

		_ = json.Unmarshal(respBody, &e.resp) //nolint:errcheck

		return e
	}
}

func newError(code ErrorCode, category walleterror.Category, operation string, err error) *Error {
	return walleterror.New(code, category, err).
		WithComponent(walleterror.PresentationInteractionComponent).
		WithOperation(operation)
}

func malformedRequest(operation string, err error) *Error {
	return newError(MalformedRequestCode, walleterror.MalformedInput, operation, err)
}

func invalidState(operation string, state State) *Error {
	return newError(InvalidStateCode, walleterror.ProtocolState, operation,
		fmt.Errorf("operation not allowed in state %s", state)).
		WithIncorrectValue(string(state))
}

// remote converts a failed call to the verifier into an engine error.
func remote(operation string, err error) *Error {
	var transportErr *httprequest.TransportError
	if errors.As(err, &transportErr) {
		return newError(NetworkErrorCode, walleterror.Transport, operation, err)
	}

	var vErr *verifierError
	if errors.As(err, &vErr) {
		return newError(VerifierRejectedCode, walleterror.RemoteRejection, operation, err).
			WithHTTPStatusField(vErr.statusCode).
			WithServerError(vErr.resp.Error, vErr.resp.ErrorDescription)
	}

	var statusErr *httprequest.StatusError
	if errors.As(err, &statusErr) {
		return newError(VerifierRejectedCode, walleterror.RemoteRejection, operation, err).
			WithHTTPStatusField(statusErr.StatusCode)
	}

	return newError(VerifierRejectedCode, walleterror.RemoteRejection, operation, err)
}
