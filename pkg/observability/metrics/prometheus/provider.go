/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package prometheus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/observability/metrics"
)

var logger = metrics.Logger

const readHeaderTimeout = 5 * time.Second

var (
	createOnce sync.Once       //nolint:gochecknoglobals
	instance   metrics.Metrics //nolint:gochecknoglobals
)

type promProvider struct {
	httpServer *http.Server
}

// NewPrometheusProvider creates new instance of Prometheus Metrics Provider.
// When httpServer is not nil, Create starts serving it in the background.
func NewPrometheusProvider(httpServer *http.Server) metrics.Provider {
	return &promProvider{httpServer: httpServer}
}

// Create creates/initializes the prometheus metrics provider.
func (pp *promProvider) Create() error {
	if pp.httpServer == nil {
		return nil
	}

	ln, err := net.Listen("tcp", pp.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("start metrics HTTP server: %w", err)
	}

	go func() {
		if errServe := pp.httpServer.Serve(ln); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			logger.Error("Metrics HTTP server stopped", log.WithError(errServe))
		}
	}()

	return nil
}

// Metrics returns supported metrics.
func (pp *promProvider) Metrics() metrics.Metrics {
	return GetMetrics()
}

// Destroy destroys the prometheus metrics provider.
func (pp *promProvider) Destroy() error {
	if pp.httpServer != nil {
		return pp.httpServer.Shutdown(context.Background())
	}

	return nil
}

// GetMetrics returns metrics implementation.
func GetMetrics() metrics.Metrics {
	createOnce.Do(func() {
		instance = NewMetrics()
	})

	return instance
}

// PromMetrics manages the metrics of the wallet engine.
type PromMetrics struct {
	signTime   prometheus.Histogram
	eventTime  *prometheus.HistogramVec
	eventCount *prometheus.CounterVec
}

// NewMetrics creates instance of prometheus metrics.
func NewMetrics() metrics.Metrics {
	pm := &PromMetrics{
		signTime:   newSignTime(),
		eventTime:  newEventTime(),
		eventCount: newEventCount(),
	}

	registerMetrics(pm)

	return pm
}

// SignTime records the time for sign.
func (pm *PromMetrics) SignTime(value time.Duration) {
	pm.signTime.Observe(value.Seconds())

	logger.Debug("crypto sign time", log.WithDuration(value))
}

// EventTime records the duration of an engine event (an outbound request or a protocol step).
func (pm *PromMetrics) EventTime(event, parentEvent string, value time.Duration) {
	pm.eventTime.WithLabelValues(event, parentEvent).Observe(value.Seconds())
	pm.eventCount.WithLabelValues(event, parentEvent).Inc()

	logger.Debug("engine event time", logfields.WithEvent(event), logfields.WithParentEvent(parentEvent),
		log.WithDuration(value))
}

func registerMetrics(pm *PromMetrics) {
	prometheus.MustRegister(
		pm.signTime, pm.eventTime, pm.eventCount,
	)
}

func newCounterVec(subsystem, name, help string, labelNames []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labelNames)
}

func newHistogramVec(subsystem, name, help string, labelNames []string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Subsystem: subsystem,
		Name:      name,
		Help:      help,
	}, labelNames)
}

func newHistogram(subsystem, name, help string, labels prometheus.Labels) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   metrics.Namespace,
		Subsystem:   subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: labels,
	})
}

func newSignTime() prometheus.Histogram {
	return newHistogram(
		metrics.Crypto, metrics.CryptoSignTimeMetric,
		"The time (in seconds) it takes to run crypto sign.",
		nil,
	)
}

func newEventTime() *prometheus.HistogramVec {
	return newHistogramVec(
		metrics.Engine, metrics.EventTimeMetric,
		"The time (in seconds) it takes to complete an engine event.",
		[]string{metrics.EventLabel, metrics.ParentEventLabel},
	)
}

func newEventCount() *prometheus.CounterVec {
	return newCounterVec(
		metrics.Engine, metrics.EventCountMetric,
		"The number of completed engine events.",
		[]string{metrics.EventLabel, metrics.ParentEventLabel},
	)
}
