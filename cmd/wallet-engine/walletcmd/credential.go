/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/trustbloc/wallet-engine/pkg/credential"
)

const (
	verifyProofFlagName  = "verify-proof"
	verifyProofFlagUsage = "Verify the signature of JWT credentials before storing them."
)

type storedCredential struct {
	ID     string            `json:"id"`
	Format credential.Format `json:"format"`
	Types  []string          `json:"types"`
	Issuer string            `json:"issuer,omitempty"`
}

func describe(id string, c *credential.Credential) *storedCredential {
	return &storedCredential{ID: id, Format: c.Format(), Types: c.Types(), Issuer: c.Issuer()}
}

func newCredentialCmd() *cobra.Command {
	credCmd := &cobra.Command{
		Use:   "credential",
		Short: "Manage stored credentials",
	}

	addCmd := &cobra.Command{
		Use:   "add <credential|@file>",
		Short: "Store a credential (JSON-LD or JWT)",
		Args:  cobra.ExactArgs(1),
		RunE: runWithEngine(func(cmd *cobra.Command, args []string, e *engine) error {
			b, err := readInput(args[0])
			if err != nil {
				return err
			}

			var opts []credential.ParseOpt

			if verify, _ := cmd.Flags().GetBool(verifyProofFlagName); verify {
				opts = append(opts, credential.WithProofCheck(e.resolver))
			}

			c, err := credential.Parse(cmd.Context(), b, opts...)
			if err != nil {
				return err
			}

			id, err := e.credentials.Add(cmd.Context(), c)
			if err != nil {
				return err
			}

			return printJSON(cmd, describe(id, c))
		}),
	}

	addCmd.Flags().Bool(verifyProofFlagName, false, verifyProofFlagUsage)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored credentials",
		RunE: runWithEngine(func(cmd *cobra.Command, _ []string, e *engine) error {
			ids, creds, err := e.credentials.All(cmd.Context())
			if err != nil {
				return err
			}

			out := make([]*storedCredential, 0, len(creds))
			for i, c := range creds {
				out = append(out, describe(ids[i], c))
			}

			return printJSON(cmd, out)
		}),
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Print a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: runWithEngine(func(cmd *cobra.Command, args []string, e *engine) error {
			c, err := e.credentials.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd, c)
		}),
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored credential",
		Args:  cobra.ExactArgs(1),
		RunE: runWithEngine(func(cmd *cobra.Command, args []string, e *engine) error {
			if args[0] == "" {
				return errors.New("credential id is empty")
			}

			return e.credentials.Delete(cmd.Context(), args[0])
		}),
	}

	credCmd.AddCommand(addCmd, listCmd, getCmd, deleteCmd)

	return credCmd
}
