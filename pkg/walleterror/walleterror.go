/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walleterror

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Category groups error codes by the recovery action expected from the caller.
type Category string

const (
	// MalformedInput means an offer, request or query could not be parsed. Not retryable.
	MalformedInput Category = "MALFORMED_INPUT"
	// ProtocolState means a method was invoked out of order.
	ProtocolState Category = "PROTOCOL_STATE"
	// Authentication means a PIN or OTP was missing or wrong. The caller may re-prompt and retry.
	Authentication Category = "AUTHENTICATION"
	// RemoteRejection means the issuer or verifier denied the request. A new interaction is required.
	RemoteRejection Category = "REMOTE_REJECTION"
	// Transport means a network failure or timeout. The same call may be retried.
	Transport Category = "TRANSPORT"
	// Selection means the caller selected credentials that do not satisfy the query.
	Selection Category = "SELECTION"
	// Query means the presentation query is malformed or uses an unsupported constraint.
	Query Category = "QUERY"
	// Signing means the signer capability failed.
	Signing Category = "SIGNING"
	// Resolution means the DID resolver capability failed.
	Resolution Category = "RESOLUTION"
)

// Retryable reports whether a call that failed with this category can be repeated as is.
func (c Category) Retryable() bool {
	return c == Authentication || c == Transport
}

// Error is the error type returned by every engine component.
type Error[T ~string] struct {
	ErrorCode      T
	ErrorCategory  Category
	ErrorComponent Component
	Operation      string
	IncorrectValue string
	HTTPStatus     int
	ServerCode     string
	ServerMessage  string
	Err            error
}

// ErrorJSON is a helper struct for JSON encoding/decoding of Error.
type ErrorJSON[T comparable] struct {
	ErrorCode       T         `json:"error"`
	Category        Category  `json:"category,omitempty"`
	Component       Component `json:"component,omitempty"`
	Operation       string    `json:"operation,omitempty"`
	IncorrectValue  string    `json:"incorrect_value,omitempty"`
	HTTPStatusField int       `json:"http_status,omitempty"`
	ServerCode      string    `json:"server_error,omitempty"`
	ServerMessage   string    `json:"server_error_description,omitempty"`
	Description     string    `json:"error_description,omitempty"`
}

// New creates an Error with the given code and category.
func New[T ~string](code T, category Category, err error) *Error[T] {
	if err == nil {
		err = errors.New(string(code))
	}

	return &Error[T]{
		ErrorCode:     code,
		ErrorCategory: category,
		Err:           err,
	}
}

func (e *Error[T]) MarshalJSON() ([]byte, error) {
	var description string
	if e.Err != nil {
		description = e.Err.Error()
	}

	return json.Marshal(&ErrorJSON[T]{
		ErrorCode:       e.ErrorCode,
		Category:        e.ErrorCategory,
		Component:       e.ErrorComponent,
		Operation:       e.Operation,
		IncorrectValue:  e.IncorrectValue,
		HTTPStatusField: e.HTTPStatus,
		ServerCode:      e.ServerCode,
		ServerMessage:   e.ServerMessage,
		Description:     description,
	})
}

func (e *Error[T]) UnmarshalJSON(b []byte) error {
	var data ErrorJSON[T]

	if err := json.Unmarshal(b, &data); err != nil {
		return err
	}

	e.ErrorCode = data.ErrorCode
	e.ErrorCategory = data.Category
	e.ErrorComponent = data.Component
	e.Operation = data.Operation
	e.IncorrectValue = data.IncorrectValue
	e.HTTPStatus = data.HTTPStatusField
	e.ServerCode = data.ServerCode
	e.ServerMessage = data.ServerMessage
	e.Err = errors.New(data.Description)

	return nil
}

func (e *Error[T]) Error() string {
	var description []string

	if e.ErrorCategory != "" {
		description = append(description, fmt.Sprintf("category: %s", e.ErrorCategory))
	}

	if e.ErrorComponent != "" {
		description = append(description, fmt.Sprintf("component: %s", e.ErrorComponent))
	}

	if e.Operation != "" {
		description = append(description, fmt.Sprintf("operation: %s", e.Operation))
	}

	if e.IncorrectValue != "" {
		description = append(description, fmt.Sprintf("incorrect value: %s", e.IncorrectValue))
	}

	if e.HTTPStatus != 0 {
		description = append(description, fmt.Sprintf("http status: %d", e.HTTPStatus))
	}

	if e.ServerCode != "" {
		description = append(description, fmt.Sprintf("server error: %s", e.ServerCode))
	}

	return fmt.Sprintf("%s[%s]: %v", e.ErrorCode, strings.Join(description, "; "), e.Err)
}

func (e *Error[T]) WithComponent(component Component) *Error[T] {
	e.ErrorComponent = component

	return e
}

func (e *Error[T]) WithOperation(operation string) *Error[T] {
	e.Operation = operation

	return e
}

func (e *Error[T]) WithIncorrectValue(incorrectValue string) *Error[T] {
	e.IncorrectValue = incorrectValue

	return e
}

func (e *Error[T]) WithHTTPStatusField(httpStatus int) *Error[T] {
	e.HTTPStatus = httpStatus

	return e
}

// WithServerError keeps the error code and description returned by the remote party.
func (e *Error[T]) WithServerError(code, message string) *Error[T] {
	e.ServerCode = code
	e.ServerMessage = message

	return e
}

func (e *Error[T]) WithErrorPrefix(errPrefix string) *Error[T] {
	e.Err = fmt.Errorf("%s: %w", errPrefix, e.Err)

	return e
}

func (e *Error[T]) Code() string {
	return string(e.ErrorCode)
}

func (e *Error[T]) Category() Category {
	return e.ErrorCategory
}

func (e *Error[T]) Component() string {
	return string(e.ErrorComponent)
}

func (e *Error[T]) Unwrap() error {
	return e.Err
}

type categorized interface {
	error
	Category() Category
}

type coded interface {
	error
	Code() string
}

// CategoryOf returns the category of the first engine error found in the err chain.
func CategoryOf(err error) (Category, bool) {
	var c categorized
	if errors.As(err, &c) {
		return c.Category(), true
	}

	return "", false
}

// Is reports whether err carries the given category.
func Is(err error, category Category) bool {
	c, ok := CategoryOf(err)

	return ok && c == category
}

// CodeOf returns the code of the first engine error found in the err chain.
func CodeOf(err error) string {
	var c coded
	if errors.As(err, &c) {
		return c.Code()
	}

	return ""
}
