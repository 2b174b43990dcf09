/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trustbloc/wallet-engine/pkg/internal/httprequest"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// ErrorCode is an issuance error code.
type ErrorCode string

// Error codes.
const (
	MalformedOfferCode        ErrorCode = "MALFORMED_OFFER"
	UnsupportedGrantCode      ErrorCode = "UNSUPPORTED_GRANT"
	InvalidPINCode            ErrorCode = "INVALID_PIN"
	IssuerRejectedCode        ErrorCode = "ISSUER_REJECTED"
	NetworkErrorCode          ErrorCode = "NETWORK_ERROR"
	InvalidStateCode          ErrorCode = "INVALID_STATE"
	MetadataFetchFailedCode   ErrorCode = "METADATA_FETCH_FAILED"
	SigningFailedCode         ErrorCode = "SIGNING_FAILED"
	StateMismatchCode         ErrorCode = "STATE_MISMATCH"
	CredentialParseFailedCode ErrorCode = "CREDENTIAL_PARSE_FAILED"
	InvalidConfigCode         ErrorCode = "INVALID_CONFIG"
	UnsupportedCredentialCode ErrorCode = "UNSUPPORTED_CREDENTIAL_TYPE"
)

// Error is the error type returned by interactions.
type Error = walleterror.Error[ErrorCode]

// OAuth error codes returned by issuers.
const (
	errInvalidGrant          = "invalid_grant"
	errInvalidOrMissingProof = "invalid_or_missing_proof"
)

type errorResponse struct {
	Error            string `json:"error,omitempty"`
	ErrorDescription string `json:"error_description,omitempty"`
	CNonce           string `json:"c_nonce,omitempty"`
	CNonceExpiresIn  int    `json:"c_nonce_expires_in,omitempty"`
}

// remoteError is a rejection returned by the issuer's token, credential or notification endpoint.
type remoteError struct {
	endpoint   string
	statusCode int
	resp       errorResponse
	body       []byte
}

func (e *remoteError) Error() string {
	if e.resp.Error != "" {
		return fmt.Sprintf("%s endpoint returned status %d: %s %s",
			e.endpoint, e.statusCode, e.resp.Error, e.resp.ErrorDescription)
	}

	return fmt.Sprintf("%s endpoint returned status %d with body %s", e.endpoint, e.statusCode, e.body)
}

func remoteErrorHandler(endpoint string) httprequest.ErrorResponseHandler {
	return func(statusCode int, respBody []byte) error {
		e := &remoteError{endpoint: endpoint, statusCode: statusCode, body: respBody}

		// A body that is not an OAuth error object keeps only the raw body.
		_ = json.Unmarshal(respBody, &e.resp) //nolint:errcheck

		return e
	}
}

type errorFactory struct {
	component walleterror.Component
}

func (f errorFactory) new(code ErrorCode, category walleterror.Category, operation string, err error) *Error {
	return walleterror.New(code, category, err).
		WithComponent(f.component).
		WithOperation(operation)
}

func (f errorFactory) invalidState(operation string, state State) *Error {
	return f.new(InvalidStateCode, walleterror.ProtocolState, operation,
		fmt.Errorf("operation not allowed in state %s", state)).
		WithIncorrectValue(string(state))
}

// remote converts a failed call to the issuer into an engine error. Transport failures keep the interaction
// retryable; anything else the issuer answered with is a rejection.
func (f errorFactory) remote(operation string, err error) *Error {
	var transportErr *httprequest.TransportError
	if errors.As(err, &transportErr) {
		return f.new(NetworkErrorCode, walleterror.Transport, operation, err)
	}

	var remoteErr *remoteError
	if errors.As(err, &remoteErr) {
		return f.new(IssuerRejectedCode, walleterror.RemoteRejection, operation, err).
			WithHTTPStatusField(remoteErr.statusCode).
			WithServerError(remoteErr.resp.Error, remoteErr.resp.ErrorDescription)
	}

	var statusErr *httprequest.StatusError
	if errors.As(err, &statusErr) {
		return f.new(IssuerRejectedCode, walleterror.RemoteRejection, operation, err).
			WithHTTPStatusField(statusErr.StatusCode)
	}

	return f.new(IssuerRejectedCode, walleterror.RemoteRejection, operation, err)
}

func (f errorFactory) metadata(operation string, err error) *Error {
	var transportErr *httprequest.TransportError
	if errors.As(err, &transportErr) {
		return f.new(MetadataFetchFailedCode, walleterror.Transport, operation, err)
	}

	e := f.new(MetadataFetchFailedCode, walleterror.RemoteRejection, operation, err)

	var statusErr *httprequest.StatusError
	if errors.As(err, &statusErr) {
		e = e.WithHTTPStatusField(statusErr.StatusCode)
	}

	return e
}
