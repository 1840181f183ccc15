package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ajharbinger/msa-market-engine/internal/auth"
)

func newHashKeyCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "hash-key <api-key>",
		Short:       "Print the bcrypt hash to set as API_KEY_HASH",
		Annotations: skipInit,
		Args:        cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashAPIKey(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
