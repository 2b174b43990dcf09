/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"time"

	"github.com/trustbloc/logutil-go/pkg/log"
)

// Logger used by different metrics provider.
var Logger = log.New("metrics-provider")

// Constants used by different metrics provider.
const (
	// Namespace Organization namespace.
	Namespace = "walletengine"

	// Crypto plain crypto operations.
	Crypto               = "crypto"
	CryptoSignTimeMetric = "crypto_sign_seconds"

	// Engine events (outbound requests and protocol steps).
	Engine           = "engine"
	EventTimeMetric  = "event_seconds"
	EventCountMetric = "events_total"

	// Label names.
	EventLabel       = "event"
	ParentEventLabel = "parent_event"
)

// Provider is an interface for metrics provider.
type Provider interface {
	// Create creates a metrics provider instance
	Create() error
	// Destroy destroys the metrics provider instance
	Destroy() error
	// Metrics providers metrics
	Metrics() Metrics
}

// Metrics is an interface for the metrics to be supported by the provider.
type Metrics interface {
	SignTime(value time.Duration)
	EventTime(event, parentEvent string, value time.Duration)
}
