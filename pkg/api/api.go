/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

//go:generate mockgen -destination ../../internal/mock/apimocks/apimocks.go -package apimocks . ActivityLogger,CredentialStore,DIDResolver,MetricsLogger,Signer,Store

// Package api defines the capabilities the engine consumes from its caller and the
// records it hands back (activities and metrics events).
package api

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/trustbloc/wallet-engine/pkg/did"
)

// ErrNotFound is returned by stores when no value exists for the requested ID.
var ErrNotFound = errors.New("data not found")

// Signer signs payloads with the private key behind a DID verification method.
// The returned signature must be in JWS form (raw r||s for ECDSA, 64 bytes for EdDSA).
// Implementations must be safe for concurrent use.
type Signer interface {
	Sign(ctx context.Context, vm *did.VerificationMethod, payload []byte) ([]byte, error)
}

// DIDResolver resolves a DID to its document. Implementations must be safe for concurrent use.
type DIDResolver interface {
	Resolve(ctx context.Context, did string) (*did.Document, error)
}

// Store is a generic byte store keyed by ID. The engine never persists anything itself;
// callers use stores to keep keys and issued credentials.
type Store interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Put(ctx context.Context, id string, value []byte) error
	Delete(ctx context.Context, id string) error
}

// KeyStore keeps private key material.
type KeyStore Store

// CredentialStore keeps serialized credentials.
type CredentialStore interface {
	Store
	List(ctx context.Context) ([]string, error)
}

// ActivityLogger records interaction activities. Failures are logged by the engine and never
// fail an interaction.
type ActivityLogger interface {
	Log(activity *Activity) error
}

// MetricsLogger records timing events for outbound requests and protocol steps.
type MetricsLogger interface {
	Log(event *MetricsEvent) error
}

// Header is an extra HTTP header added to every outbound request.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Activity types.
const (
	CredentialActivityType = "credential-activity"
)

// Activity statuses.
const (
	ActivityStatusSuccess = "success"
	ActivityStatusFailure = "failure"
)

// Activity is a single immutable entry emitted by an interaction.
type Activity struct {
	ID   uuid.UUID    `json:"id"`
	Type string       `json:"type"`
	Time time.Time    `json:"timestamp"`
	Data ActivityData `json:"data"`
}

// ActivityData describes what happened.
type ActivityData struct {
	Client    string                 `json:"client,omitempty"`
	Operation string                 `json:"operation,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Status    string                 `json:"status,omitempty"`
	Params    map[string]interface{} `json:"params,omitempty"`
}

// NewActivity creates an activity stamped with a new ID and the current time.
func NewActivity(client, operation, action, status string, params map[string]interface{}) *Activity {
	return &Activity{
		ID:   uuid.New(),
		Type: CredentialActivityType,
		Time: time.Now().UTC(),
		Data: ActivityData{
			Client:    client,
			Operation: operation,
			Action:    action,
			Status:    status,
			Params:    params,
		},
	}
}

// MetricsEvent is a timed event. ParentEvent links sub-steps to the protocol step they belong to.
type MetricsEvent struct {
	Event       string        `json:"event"`
	ParentEvent string        `json:"parentEvent,omitempty"`
	Duration    time.Duration `json:"duration"`
}
