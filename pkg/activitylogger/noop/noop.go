/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package noop provides the default activity logger, which discards activities.
package noop

import (
	"github.com/trustbloc/wallet-engine/pkg/api"
)

// ActivityLogger discards every activity.
type ActivityLogger struct{}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger() *ActivityLogger {
	return &ActivityLogger{}
}

func (n *ActivityLogger) Log(*api.Activity) error {
	return nil
}

// MetricsLogger discards every metrics event.
type MetricsLogger struct{}

// NewMetricsLogger returns a new MetricsLogger.
func NewMetricsLogger() *MetricsLogger {
	return &MetricsLogger{}
}

func (n *MetricsLogger) Log(*api.MetricsEvent) error {
	return nil
}
