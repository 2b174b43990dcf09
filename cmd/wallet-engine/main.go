/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package main is the wallet-engine command line wallet. It keeps keys and credentials in a local or
// shared database and runs OpenID4CI issuance and OpenID4VP presentation against remote parties.
package main

import (
	"os"

	"github.com/trustbloc/logutil-go/pkg/log"

	"github.com/trustbloc/wallet-engine/cmd/wallet-engine/walletcmd"
)

var logger = log.New("wallet-engine")

// Version is set at build time.
var Version string

func main() {
	rootCmd := walletcmd.GetRootCmd(walletcmd.WithVersion(Version))

	if err := rootCmd.Execute(); err != nil {
		logger.Error("Failed to run wallet-engine", log.WithError(err))

		os.Exit(1)
	}
}
