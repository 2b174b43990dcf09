/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/trustbloc/wallet-engine/internal/logfields"
	"github.com/trustbloc/wallet-engine/pkg/did/creator"
	"github.com/trustbloc/wallet-engine/pkg/kms/key"
)

const (
	keyTypeFlagName  = "type"
	keyTypeFlagUsage = "Key type, one of ED25519, ECDSA_P256, ECDSA_P384."

	didMethodFlagName  = "did-method"
	didMethodFlagUsage = "DID method of the created DID, key or jwk."
)

type createdDID struct {
	DID                  string `json:"did"`
	KeyID                string `json:"keyID"`
	VerificationMethodID string `json:"verificationMethodID"`
}

func newKeyCmd() *cobra.Command {
	keyCmd := &cobra.Command{
		Use:   "key",
		Short: "Manage wallet keys",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a key and the DID it controls",
		RunE: runWithEngine(func(cmd *cobra.Command, _ []string, e *engine) error {
			keyType, _ := cmd.Flags().GetString(keyTypeFlagName)
			didMethod, _ := cmd.Flags().GetString(didMethodFlagName)

			if !lo.Contains(e.kms.SupportedKeyTypes(), key.Type(keyType)) {
				return fmt.Errorf("unsupported key type %q", keyType)
			}

			signingDID, err := creator.PublicDID(cmd.Context(), e.kms, didMethod, key.Type(keyType))
			if err != nil {
				return err
			}

			logger.Infoc(cmd.Context(), "DID created", logfields.WithDID(signingDID.DID),
				logfields.WithKeyID(signingDID.KeyID))

			return printJSON(cmd, &createdDID{
				DID:                  signingDID.DID,
				KeyID:                signingDID.KeyID,
				VerificationMethodID: signingDID.VerificationMethod.ID,
			})
		}),
	}

	createCmd.Flags().String(keyTypeFlagName, string(key.ED25519), keyTypeFlagUsage)
	createCmd.Flags().String(didMethodFlagName, creator.KeyMethod, didMethodFlagUsage)

	keyCmd.AddCommand(createCmd)

	return keyCmd
}
