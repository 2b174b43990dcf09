/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metrics

import (
	"errors"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

// EventLogger records engine metrics events through a Metrics implementation.
type EventLogger struct {
	metrics Metrics
}

// NewEventLogger returns an api.MetricsLogger backed by m.
func NewEventLogger(m Metrics) *EventLogger {
	return &EventLogger{metrics: m}
}

// Log records the duration of the event.
func (l *EventLogger) Log(event *api.MetricsEvent) error {
	if event == nil || event.Event == "" {
		return errors.New("metrics event name is required")
	}

	l.metrics.EventTime(event.Event, event.ParentEvent, event.Duration)

	return nil
}
