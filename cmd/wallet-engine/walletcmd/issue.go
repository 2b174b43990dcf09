/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/credential"
	"github.com/trustbloc/wallet-engine/pkg/did"
	"github.com/trustbloc/wallet-engine/pkg/openid4ci"
)

const (
	offerFlagName  = "offer"
	offerFlagUsage = "Credential offer URI (openid-credential-offer://...) or @file holding it."

	issuerFlagName  = "issuer"
	issuerFlagUsage = "Issuer URI for a wallet-initiated issuance. Requires --format and --type."

	formatFlagName  = "format"
	formatFlagUsage = "Credential format requested in a wallet-initiated issuance."

	typeFlagName  = "type"
	typeFlagUsage = "Credential type requested in a wallet-initiated issuance. May be repeated."

	didFlagName  = "did"
	didFlagUsage = "DID whose key signs proofs and presentations."

	keyIDFlagName  = "key-id"
	keyIDFlagUsage = "Verification method of the DID to sign with. Defaults to the first authentication method."

	pinFlagName  = "pin"
	pinFlagUsage = "Transaction code (PIN) of a pre-authorized offer."

	clientIDFlagName  = "client-id"
	clientIDFlagUsage = "OAuth client ID of the wallet, used for authorization code flows and as the proof issuer."

	redirectURIFlagName  = "redirect-uri"
	redirectURIFlagUsage = "Redirect URI registered for the wallet client."

	authResponseFlagName  = "auth-response"
	authResponseFlagUsage = "Redirect URI (with code and state) the authorization server sent the user back to." +
		" Read from stdin when not set."

	localeFlagName  = "locale"
	localeFlagUsage = "Locale of the display data printed with the issued credentials."

	rejectFlagName  = "reject"
	rejectFlagUsage = "Acknowledge the credentials as rejected instead of storing them."
)

type issuanceInteraction interface {
	RequestCredential(ctx context.Context, vm *did.VerificationMethod,
		opts ...openid4ci.RequestCredentialOpt) ([]*credential.Credential, error)
	ResolveDisplay(ctx context.Context, locale string) (*openid4ci.DisplayData, error)
	Acknowledge(ctx context.Context, status openid4ci.AckStatus) error
}

type issueResult struct {
	Credentials []*storedCredential    `json:"credentials"`
	Display     *openid4ci.DisplayData `json:"display,omitempty"`
	Rejected    bool                   `json:"rejected,omitempty"`
}

func newIssueCmd() *cobra.Command {
	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Receive credentials over OpenID4CI and store them",
		RunE:  runWithEngine(issue),
	}

	issueCmd.Flags().String(offerFlagName, "", offerFlagUsage)
	issueCmd.Flags().String(issuerFlagName, "", issuerFlagUsage)
	issueCmd.Flags().String(formatFlagName, string(credential.JWTVCJSON), formatFlagUsage)
	issueCmd.Flags().StringArray(typeFlagName, nil, typeFlagUsage)
	issueCmd.Flags().String(didFlagName, "", didFlagUsage)
	issueCmd.Flags().String(keyIDFlagName, "", keyIDFlagUsage)
	issueCmd.Flags().String(pinFlagName, "", pinFlagUsage)
	issueCmd.Flags().String(clientIDFlagName, "", clientIDFlagUsage)
	issueCmd.Flags().String(redirectURIFlagName, "", redirectURIFlagUsage)
	issueCmd.Flags().String(authResponseFlagName, "", authResponseFlagUsage)
	issueCmd.Flags().String(localeFlagName, "", localeFlagUsage)
	issueCmd.Flags().Bool(rejectFlagName, false, rejectFlagUsage)

	return issueCmd
}

func issue(cmd *cobra.Command, _ []string, e *engine) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	offer, _ := flags.GetString(offerFlagName)
	issuerURI, _ := flags.GetString(issuerFlagName)
	didID, _ := flags.GetString(didFlagName)
	keyID, _ := flags.GetString(keyIDFlagName)
	clientID, _ := flags.GetString(clientIDFlagName)
	locale, _ := flags.GetString(localeFlagName)
	reject, _ := flags.GetBool(rejectFlagName)

	if (offer == "") == (issuerURI == "") {
		return errors.New("exactly one of --offer and --issuer is required")
	}

	vm, err := e.signingMethod(ctx, didID, keyID)
	if err != nil {
		return err
	}

	config := &openid4ci.ClientConfig{
		ClientID:       clientID,
		DIDResolver:    e.resolver,
		Signer:         e.kms.Signer(),
		ActivityLogger: e.activities,
		MetricsLogger:  e.metrics,
		HTTPClient:     e.httpClient,
		Headers:        e.headers,
		Tracer:         e.tracer,
	}

	var (
		interaction issuanceInteraction
		opts        []openid4ci.RequestCredentialOpt
	)

	if offer != "" {
		interaction, opts, err = startIssuerInitiated(cmd, offer, config)
	} else {
		interaction, opts, err = startWalletInitiated(cmd, issuerURI, config)
	}

	if err != nil {
		return err
	}

	creds, err := interaction.RequestCredential(ctx, vm, opts...)
	if err != nil {
		return err
	}

	display, err := interaction.ResolveDisplay(ctx, locale)
	if err != nil {
		logger.Warnc(ctx, "Display data unavailable", logfields.WithCommand("issue"))
	}

	result := &issueResult{Display: display, Credentials: []*storedCredential{}}

	if reject {
		result.Rejected = true

		if err = interaction.Acknowledge(ctx, openid4ci.AckRejected); err != nil {
			return err
		}

		return printJSON(cmd, result)
	}

	for _, c := range creds {
		id, addErr := e.credentials.Add(ctx, c)
		if addErr != nil {
			if ackErr := interaction.Acknowledge(ctx, openid4ci.AckFailure); ackErr != nil {
				logger.Warnc(ctx, "Failure acknowledgment not delivered", logfields.WithCommand("issue"))
			}

			return addErr
		}

		result.Credentials = append(result.Credentials, describe(id, c))
	}

	if err = interaction.Acknowledge(ctx, openid4ci.AckAccepted); err != nil {
		return err
	}

	return printJSON(cmd, result)
}

func startIssuerInitiated(cmd *cobra.Command, offer string, config *openid4ci.ClientConfig,
) (issuanceInteraction, []openid4ci.RequestCredentialOpt, error) {
	ctx := cmd.Context()

	offerURI, err := readInput(offer)
	if err != nil {
		return nil, nil, err
	}

	interaction, err := openid4ci.NewIssuerInitiatedInteraction(ctx, strings.TrimSpace(string(offerURI)), config)
	if err != nil {
		return nil, nil, err
	}

	result, err := interaction.Authorize(ctx)
	if err != nil {
		return nil, nil, err
	}

	if result.AuthorizationCodeRequired {
		clientID, redirectURI := authorizationClient(cmd)

		authURL, urlErr := interaction.CreateAuthorizationURL(ctx, clientID, redirectURI)
		if urlErr != nil {
			return nil, nil, urlErr
		}

		response, urlErr := authorizationResponse(cmd, authURL)
		if urlErr != nil {
			return nil, nil, urlErr
		}

		return interaction, []openid4ci.RequestCredentialOpt{openid4ci.WithRedirectURI(response)}, nil
	}

	pin, _ := cmd.Flags().GetString(pinFlagName)
	if result.UserPINRequired && pin == "" {
		return nil, nil, errors.New("the offer requires a transaction code, pass it with --pin")
	}

	return interaction, []openid4ci.RequestCredentialOpt{openid4ci.WithPIN(pin)}, nil
}

func startWalletInitiated(cmd *cobra.Command, issuerURI string, config *openid4ci.ClientConfig,
) (issuanceInteraction, []openid4ci.RequestCredentialOpt, error) {
	ctx := cmd.Context()

	format, _ := cmd.Flags().GetString(formatFlagName)
	types, _ := cmd.Flags().GetStringArray(typeFlagName)

	if len(types) == 0 {
		return nil, nil, errors.New("--type is required for a wallet-initiated issuance")
	}

	interaction, err := openid4ci.NewWalletInitiatedInteraction(ctx, issuerURI, config)
	if err != nil {
		return nil, nil, err
	}

	clientID, redirectURI := authorizationClient(cmd)

	authURL, err := interaction.CreateAuthorizationURL(ctx, clientID, redirectURI, format, types)
	if err != nil {
		return nil, nil, err
	}

	response, err := authorizationResponse(cmd, authURL)
	if err != nil {
		return nil, nil, err
	}

	return interaction, []openid4ci.RequestCredentialOpt{openid4ci.WithRedirectURI(response)}, nil
}

func authorizationClient(cmd *cobra.Command) (string, string) {
	clientID, _ := cmd.Flags().GetString(clientIDFlagName)
	redirectURI, _ := cmd.Flags().GetString(redirectURIFlagName)

	return clientID, redirectURI
}

// authorizationResponse shows the authorization URL and returns the redirect the user was sent back to.
func authorizationResponse(cmd *cobra.Command, authURL string) (string, error) {
	if response, _ := cmd.Flags().GetString(authResponseFlagName); response != "" {
		return response, nil
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Open the following URL to authorize the issuance, then paste the URL "+
		"you were redirected to:\n%s\n", authURL)

	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read authorization response: %w", err)
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no authorization response given")
	}

	return line, nil
}
