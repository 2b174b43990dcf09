/*
Copyright Gen Digital Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package walletcmd

import (
	"github.com/spf13/cobra"
)

func newActivityCmd() *cobra.Command {
	activityCmd := &cobra.Command{
		Use:   "activity",
		Short: "Inspect the activity log",
	}

	activityCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List logged issuance and presentation activities, oldest first",
		RunE: runWithEngine(func(cmd *cobra.Command, _ []string, e *engine) error {
			activities, err := e.activities.List(cmd.Context())
			if err != nil {
				return err
			}

			return printJSON(cmd, activities)
		}),
	})

	return activityCmd
}
