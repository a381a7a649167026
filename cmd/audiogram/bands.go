package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/audiogram/internal/domain/severity"
)

func newBandsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bands",
		Short: "Print the hearing-loss classification legend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), severity.Bands())
			}
			return opts.renderer().Bands(cmd.OutOrStdout(), severity.Bands())
		},
	}
}
