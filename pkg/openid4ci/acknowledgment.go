/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package openid4ci

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/samber/lo"

	"github.com/trustbloc/wallet-engine/pkg/api"
	"github.com/trustbloc/wallet-engine/pkg/walleterror"
)

// Acknowledge reports to the issuer whether the wallet accepted the issued credentials and completes the
// interaction. Without notification IDs or a notification endpoint only the state changes.
func (i *interaction) Acknowledge(ctx context.Context, status AckStatus) error {
	const operation = "Acknowledge"

	ctx, span := i.cfg.Tracer.Start(ctx, "openid4ci.Acknowledge")
	defer span.End()

	if i.state != StateCredentialIssued {
		return i.errors.invalidState(operation, i.state)
	}

	switch status {
	case AckAccepted, AckRejected, AckFailure:
	default:
		return i.errors.new(InvalidConfigCode, walleterror.MalformedInput, operation,
			fmt.Errorf("unsupported acknowledgment status %q", status)).
			WithIncorrectValue(string(status))
	}

	start := time.Now()

	endpoint := i.metadata.NotificationURL()
	ids := lo.Uniq(i.notificationIDs)

	if endpoint != "" && len(ids) > 0 {
		req := i.credentialClient(ctx)

		for _, id := range ids {
			body, err := json.Marshal(&notificationRequest{
				NotificationID: id,
				Event:          status,
			})
			if err != nil {
				return i.errors.new(InvalidConfigCode, walleterror.MalformedInput, operation, err)
			}

			_, err = req.Do(ctx, http.MethodPost, endpoint, "application/json", bytes.NewReader(body), nil,
				fmt.Sprintf(notifyEventText, endpoint), acknowledgeEventText,
				[]int{http.StatusNoContent, http.StatusOK}, remoteErrorHandler("notification"))
			if err != nil {
				i.logActivity(ctx, operation, api.ActivityStatusFailure, nil)

				return i.fail(ctx, i.errors.remote(operation, err))
			}
		}
	}

	i.setState(ctx, StateCompleted)

	i.logActivity(ctx, operation, api.ActivityStatusSuccess, map[string]interface{}{
		"event": string(status),
	})
	i.logMetrics(ctx, acknowledgeEventText, "", time.Since(start))

	return nil
}
