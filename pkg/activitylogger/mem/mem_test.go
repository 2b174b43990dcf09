/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package mem_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trustbloc/wallet-engine/pkg/activitylogger/mem"
	"github.com/trustbloc/wallet-engine/pkg/activitylogger/noop"
	"github.com/trustbloc/wallet-engine/pkg/api"
)

func TestActivityLogger(t *testing.T) {
	l := mem.NewActivityLogger()
	require.Equal(t, 0, l.Length())
	require.Nil(t, l.AtIndex(0))

	first := api.NewActivity("https://issuer.example.com", "oidc-issuance", "Authorize",
		api.ActivityStatusSuccess, nil)
	second := api.NewActivity("https://issuer.example.com", "oidc-issuance", "RequestCredential",
		api.ActivityStatusFailure, map[string]interface{}{"error": "ISSUER_REJECTED"})

	require.NoError(t, l.Log(first))
	require.NoError(t, l.Log(second))
	require.EqualError(t, l.Log(nil), "activity is required")

	require.Equal(t, 2, l.Length())
	require.Equal(t, first, l.AtIndex(0))
	require.Equal(t, second, l.AtIndex(1))
	require.Nil(t, l.AtIndex(2))
	require.Nil(t, l.AtIndex(-1))

	all := l.All()
	all[0] = nil
	require.Equal(t, first, l.AtIndex(0))
}

func TestActivityLogger_Concurrent(t *testing.T) {
	l := mem.NewActivityLogger()

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = l.Log(api.NewActivity("client", "op", "action", api.ActivityStatusSuccess, nil))
		}()
	}

	wg.Wait()

	require.Equal(t, 10, l.Length())
}

func TestNoop(t *testing.T) {
	require.NoError(t, noop.NewActivityLogger().Log(&api.Activity{}))
	require.NoError(t, noop.NewMetricsLogger().Log(&api.MetricsEvent{}))
}
