/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package presexch

import (
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// Error codes.
const (
	QueryErrorCode     = "QUERY_ERROR"
	SelectionErrorCode = "SELECTION_ERROR"
)

// Error is the error type returned by this package.
type Error = walleterror.Error[string]

func queryError(err error, operation string) *Error {
	return walleterror.New(QueryErrorCode, walleterror.Query, err).
		WithComponent(walleterror.MatcherComponent).
		WithOperation(operation)
}

func selectionError(err error, operation string) *Error {
	return walleterror.New(SelectionErrorCode, walleterror.Selection, err).
		WithComponent(walleterror.MatcherComponent).
		WithOperation(operation)
}
