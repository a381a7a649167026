package main

import (
	"github.com/spf13/cobra"

	service "github.com/okian/audiogram/internal/app"
)

func newSummaryCmd(opts *options) *cobra.Command {
	var (
		dataset     string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize hearing-loss categories over a dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var extra []service.Option
			if concurrency > 0 {
				extra = append(extra, service.WithSummaryConcurrency(concurrency))
			}
			svc, err := opts.newService(ctx, dataset, extra...)
			if err != nil {
				return err
			}
			defer svc.Stop()

			sum, err := svc.Summary(ctx)
			if err != nil {
				return err
			}
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), sum)
			}
			return opts.renderer().Summary(cmd.OutOrStdout(), sum)
		},
	}
	cmd.Flags().StringVar(&dataset, "dataset", "", "Dataset file path or URL")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Parallel classification workers (default: number of CPUs)")
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
