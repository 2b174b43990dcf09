/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/openid4vp"
	"github.com/trustbloc/wallet-engine/pkg/presexch"
)

const (
	requestFlagName  = "request"
	requestFlagUsage = "Authorization request (openid4vp:// URI, request object or @file)."

	declineFlagName  = "decline"
	declineFlagUsage = "Decline the request instead of presenting credentials."
)

type presentResult struct {
	Verifier    *openid4vp.VerifierDisplayData `json:"verifier,omitempty"`
	Presented   []string                       `json:"presented,omitempty"`
	Declined    bool                           `json:"declined,omitempty"`
	RedirectURI string                         `json:"redirect_uri,omitempty"`
}

func newPresentCmd() *cobra.Command {
	presentCmd := &cobra.Command{
		Use:   "present",
		Short: "Present stored credentials to a verifier over OpenID4VP",
		RunE:  runWithEngine(present),
	}

	presentCmd.Flags().String(requestFlagName, "", requestFlagUsage)
	presentCmd.Flags().String(didFlagName, "", didFlagUsage)
	presentCmd.Flags().String(keyIDFlagName, "", keyIDFlagUsage)
	presentCmd.Flags().StringArray(credentialFlagName, nil, credentialFlagUsage)
	presentCmd.Flags().Bool(declineFlagName, false, declineFlagUsage)

	return presentCmd
}

func present(cmd *cobra.Command, _ []string, e *engine) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	request, _ := flags.GetString(requestFlagName)
	didID, _ := flags.GetString(didFlagName)
	keyID, _ := flags.GetString(keyIDFlagName)
	selected, _ := flags.GetStringArray(credentialFlagName)
	decline, _ := flags.GetBool(declineFlagName)

	if request == "" {
		return errors.New("--request is required")
	}

	b, err := readInput(request)
	if err != nil {
		return err
	}

	interaction, err := openid4vp.NewInteraction(strings.TrimSpace(string(b)), &openid4vp.ClientConfig{
		DIDResolver:    e.resolver,
		Signer:         e.kms.Signer(),
		ActivityLogger: e.activities,
		MetricsLogger:  e.metrics,
		HTTPClient:     e.httpClient,
		Headers:        e.headers,
		Tracer:         e.tracer,
	})
	if err != nil {
		return err
	}

	pd, err := interaction.GetQuery(ctx)
	if err != nil {
		return err
	}

	verifier, err := interaction.VerifierDisplayData()
	if err != nil {
		return err
	}

	result := &presentResult{Verifier: verifier}

	if decline {
		if err = interaction.Reject(ctx, openid4vp.NoConsent); err != nil {
			return err
		}

		result.Declined = true

		return printJSON(cmd, result)
	}

	h, err := loadHoldings(ctx, e, selected)
	if err != nil {
		return err
	}

	m := newMatcher(e)

	reqs, err := m.Evaluate(ctx, pd, credential.NewCollection(h.creds...))
	if err != nil {
		return err
	}

	if unsatisfied, found := lo.Find(reqs, func(r *presexch.Requirement) bool { return !r.Satisfied() }); found {
		logger.Infoc(ctx, "Wallet cannot satisfy the request", logfields.WithPresDefID(pd.ID),
			logfields.WithRequirement(unsatisfied.Name))

		if rejectErr := interaction.Reject(ctx, openid4vp.NoMatchFound); rejectErr != nil {
			logger.Warnc(ctx, "Decline not delivered", logfields.WithCommand("present"))
		}

		return fmt.Errorf("no stored credentials satisfy presentation definition %s", pd.ID)
	}

	vm, err := e.signingMethod(ctx, didID, keyID)
	if err != nil {
		return err
	}

	chosen := selectCredentials(reqs)

	content, err := m.BuildPresentation(ctx, pd, chosen)
	if err != nil {
		return err
	}

	if err = interaction.PresentCredential(ctx, content, vm); err != nil {
		return err
	}

	result.Presented = lo.Map(chosen, func(c *credential.Credential, _ int) string { return h.idOf(c) })
	result.RedirectURI = interaction.RedirectURI()

	return printJSON(cmd, result)
}
