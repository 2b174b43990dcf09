/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package walletcmd implements the wallet-engine commands.
package walletcmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/trustbloc/logutil-go/pkg/log"
)

var logger = log.New("wallet-engine")

type options struct {
	version string
}

// Opt configures the root command.
type Opt func(o *options)

// WithVersion sets the version reported by the version command.
func WithVersion(version string) Opt {
	return func(o *options) {
		o.version = version
	}
}

// GetRootCmd returns the wallet-engine root command with all subcommands.
func GetRootCmd(opts ...Opt) *cobra.Command {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	rootCmd := &cobra.Command{
		Use:           "wallet-engine",
		Short:         "Command line wallet for OpenID4CI and OpenID4VP",
		SilenceUsage:  true,
		SilenceErrors: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	createFlags(rootCmd)

	rootCmd.AddCommand(
		newKeyCmd(),
		newCredentialCmd(),
		newActivityCmd(),
		newIssueCmd(),
		newPresentCmd(),
		newMatchCmd(),
		newVersionCmd(o.version),
	)

	return rootCmd
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the wallet-engine version",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, map[string]string{"version": version})
		},
	}
}

// runWithEngine builds the engine, runs fn and releases the engine's resources.
func runWithEngine(fn func(cmd *cobra.Command, args []string, e *engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := newEngine(cmd)
		if err != nil {
			return err
		}

		defer e.close()

		return fn(cmd, args, e)
	}
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	return nil
}

// readInput reads a flag value that may be given inline or as @path.
func readInput(value string) ([]byte, error) {
	if len(value) > 1 && value[0] == '@' {
		b, err := os.ReadFile(value[1:])
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", value[1:], err)
		}

		return b, nil
	}

	return []byte(value), nil
}
