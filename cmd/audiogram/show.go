package main

import (
	"github.com/spf13/cobra"

	service "github.com/okian/audiogram/internal/app"
)

func newShowCmd(opts *options) *cobra.Command {
	var (
		dataset string
		id      int64
		index   int
		random  bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Analyze one participant of a dataset",
		Long:  "Loads a dataset (file path or http(s) URL) and analyzes one participant: by --id, by --index, at --random, or the first one.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := opts.newService(ctx, dataset)
			if err != nil {
				return err
			}
			defer svc.Stop()

			var a service.Analysis
			switch {
			case cmd.Flags().Changed("id"):
				a, err = svc.ByID(ctx, id)
			case cmd.Flags().Changed("index"):
				a, err = svc.At(ctx, index)
			case random:
				a, err = svc.Random(ctx)
			default:
				a, err = svc.First(ctx)
			}
			if err != nil {
				return err
			}

			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), a.Result)
			}
			return opts.renderer().Analysis(cmd.OutOrStdout(), a.Result)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset file path or URL")
	cmd.Flags().Int64Var(&id, "id", 0, "Participant id (SEQN)")
	cmd.Flags().IntVar(&index, "index", 0, "Participant position in load order")
	cmd.Flags().BoolVar(&random, "random", false, "Pick a random participant")
	cmd.MarkFlagsMutuallyExclusive("id", "index", "random")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
