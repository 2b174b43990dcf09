/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httprequest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/samber/lo"
	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/api"
)

var logger = log.New("httprequest")

const (
	defaultRetryInterval = 500 * time.Millisecond
	defaultMaxRetries    = 2
)

// TransportError is returned when no response was received from the remote party.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// StatusError is returned when the remote party answered with an unexpected status code and
// no ErrorResponseHandler was supplied.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("expected status code %d but got status code %d with response body %s instead",
		http.StatusOK, e.StatusCode, e.Body)
}

// ErrorResponseHandler converts an unexpected response into an error.
type ErrorResponseHandler func(statusCode int, respBody []byte) error

// Request sends outbound requests, reporting metrics events for each of them.
type Request struct {
	httpClient    *http.Client
	metricsLogger api.MetricsLogger
	maxRetries    uint64
	retryInterval time.Duration
}

// Opt configures Request.
type Opt func(r *Request)

// WithMaxRetries sets how many times idempotent GET requests are retried on transport failures
// and 5xx responses.
func WithMaxRetries(n uint64) Opt {
	return func(r *Request) {
		r.maxRetries = n
	}
}

// WithRetryInterval sets the constant back-off between GET retries.
func WithRetryInterval(d time.Duration) Opt {
	return func(r *Request) {
		r.retryInterval = d
	}
}

// New returns a new Request. httpClient is expected to already carry header injection (see NewClient).
func New(httpClient *http.Client, metricsLogger api.MetricsLogger, opts ...Opt) *Request {
	r := &Request{
		httpClient:    httpClient,
		metricsLogger: metricsLogger,
		maxRetries:    defaultMaxRetries,
		retryInterval: defaultRetryInterval,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Client returns the underlying HTTP client.
func (r *Request) Client() *http.Client {
	return r.httpClient
}

// Do sends a request and returns the response body when the status code is one of acceptableStatuses
// (200 when empty).
func (r *Request) Do(ctx context.Context, method, endpointURL, contentType string, body io.Reader,
	headers http.Header, event, parentEvent string, acceptableStatuses []int,
	errorResponseHandler ErrorResponseHandler,
) ([]byte, error) {
	start := time.Now()

	respBytes, statusCode, err := r.send(ctx, method, endpointURL, contentType, body, headers)
	if err != nil {
		return nil, err
	}

	r.logMetrics(ctx, event, parentEvent, time.Since(start))

	logger.Debugc(ctx, "Outbound request completed", log.WithURL(endpointURL),
		log.WithHTTPStatus(statusCode), log.WithDuration(time.Since(start)))

	if len(acceptableStatuses) == 0 {
		acceptableStatuses = []int{http.StatusOK}
	}

	if !lo.Contains(acceptableStatuses, statusCode) {
		if errorResponseHandler == nil {
			return nil, &StatusError{StatusCode: statusCode, Body: respBytes}
		}

		return nil, errorResponseHandler(statusCode, respBytes)
	}

	return respBytes, nil
}

// Get sends a GET request, retrying transport failures and 5xx responses with a constant back-off.
func (r *Request) Get(ctx context.Context, endpointURL string, event, parentEvent string,
	errorResponseHandler ErrorResponseHandler,
) ([]byte, error) {
	var respBytes []byte

	operation := func() error {
		var err error

		respBytes, err = r.Do(ctx, http.MethodGet, endpointURL, "", nil, nil, event, parentEvent, nil, nil)
		if err == nil {
			return nil
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode < http.StatusInternalServerError {
			return backoff.Permanent(err)
		}

		return err
	}

	err := backoff.RetryNotify(operation,
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(r.retryInterval), r.maxRetries), ctx),
		func(err error, d time.Duration) {
			logger.Debugc(ctx, "Retrying GET request", log.WithURL(endpointURL), log.WithError(err),
				logfields.WithSleep(d))
		},
	)
	if err != nil {
		var statusErr *StatusError
		if errorResponseHandler != nil && errors.As(err, &statusErr) {
			return nil, errorResponseHandler(statusErr.StatusCode, statusErr.Body)
		}

		return nil, err
	}

	return respBytes, nil
}

func (r *Request) send(ctx context.Context, method, endpointURL, contentType string, body io.Reader,
	headers http.Header,
) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpointURL, body)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for k, v := range headers {
		req.Header[k] = v
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, 0, &TransportError{Err: err}
	}

	defer func() {
		if errClose := resp.Body.Close(); errClose != nil {
			logger.Warnc(ctx, "Failed to close response body", log.WithError(errClose))
		}
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &TransportError{Err: fmt.Errorf("read response body: %w", err)}
	}

	return respBytes, resp.StatusCode, nil
}

func (r *Request) logMetrics(ctx context.Context, event, parentEvent string, d time.Duration) {
	if r.metricsLogger == nil || event == "" {
		return
	}

	if err := r.metricsLogger.Log(&api.MetricsEvent{
		Event:       event,
		ParentEvent: parentEvent,
		Duration:    d,
	}); err != nil {
		logger.Warnc(ctx, "Failed to log metrics event", log.WithError(err),
			logfields.WithParentEvent(parentEvent))
	}
}
