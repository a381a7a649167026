package main

import (
	"errors"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/okian/audiogram/internal/domain/model"
)

var errNoThresholds = errors.New("at least one of --re or --le is required")

func newManualCmd(opts *options) *cobra.Command {
	var (
		id             int64
		re, le         string
		boneRE, boneLE string
	)
	cmd := &cobra.Command{
		Use:   "manual",
		Short: "Analyze thresholds typed on the command line",
		Long: "Each ear takes up to seven comma-separated thresholds in dB HL for 500, 1000, 2000, 3000, 4000, 6000 and 8000 Hz.\n" +
			"Leave a position empty for a frequency that was not measured, e.g. --re \"20,22,,25,19,21,20\".",
		Example: `  audiogram manual --re "20,22,,25,19,21,20" --le "30,35,40,45,50,55,60"
  audiogram manual --id 93705 --re 30,35 --le 40 --bone-re 10,15 --bone-le 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if re == "" && le == "" {
				return errNoThresholds
			}
			svc, err := opts.newService(cmd.Context(), "")
			if err != nil {
				return err
			}

			entry := model.ManualEntry{
				Air: model.ManualRows{RE: model.ParseRow(re), LE: model.ParseRow(le)},
			}
			if cmd.Flags().Changed("id") {
				entry.ParticipantID = strconv.FormatInt(id, 10)
			}
			if boneRE != "" || boneLE != "" {
				entry.Bone = &model.ManualRows{RE: model.ParseRow(boneRE), LE: model.ParseRow(boneLE)}
			}

			a := svc.AnalyzeManual(cmd.Context(), entry)
			if opts.jsonOut {
				return writeJSON(cmd.OutOrStdout(), a.Result)
			}
			return opts.renderer().Analysis(cmd.OutOrStdout(), a.Result)
		},
	}
	cmd.Flags().Int64Var(&id, "id", 0, "Participant id; a placeholder is generated when omitted")
	cmd.Flags().StringVar(&re, "re", "", "Right-ear air-conduction thresholds")
	cmd.Flags().StringVar(&le, "le", "", "Left-ear air-conduction thresholds")
	cmd.Flags().StringVar(&boneRE, "bone-re", "", "Right-ear bone-conduction thresholds")
	cmd.Flags().StringVar(&boneLE, "bone-le", "", "Left-ear bone-conduction thresholds")
	return cmd
}
