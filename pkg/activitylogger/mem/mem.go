/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mem keeps logged activities in memory, in the order they were logged.
package mem

import (
	"errors"
	"sync"

	"github.com/trustbloc/wallet-engine/pkg/api"
)

// ActivityLogger is an in-memory api.ActivityLogger. It is safe for concurrent use.
type ActivityLogger struct {
	mu         sync.RWMutex
	activities []*api.Activity
}

// NewActivityLogger returns a new ActivityLogger.
func NewActivityLogger() *ActivityLogger {
	return &ActivityLogger{}
}

// Log appends activity.
func (l *ActivityLogger) Log(activity *api.Activity) error {
	if activity == nil {
		return errors.New("activity is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.activities = append(l.activities, activity)

	return nil
}

// Length returns the number of logged activities.
func (l *ActivityLogger) Length() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.activities)
}

// AtIndex returns the activity at index, or nil when index is out of range.
func (l *ActivityLogger) AtIndex(index int) *api.Activity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if index < 0 || index >= len(l.activities) {
		return nil
	}

	return l.activities[index]
}

// All returns a copy of the logged activities.
func (l *ActivityLogger) All() []*api.Activity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return append([]*api.Activity(nil), l.activities...)
}
