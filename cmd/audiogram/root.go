package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	service "github.com/okian/audiogram/internal/app"
	"github.com/okian/audiogram/internal/domain/fieldtable"
	"github.com/okian/audiogram/internal/report"
	"github.com/okian/audiogram/pkg/logger"
)

var errDatasetUnavailable = errors.New("dataset unavailable")

// options holds the global flags shared by every subcommand.
type options struct {
	logLevel   string
	jsonOut    bool
	noColor    bool
	fieldTable string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "audiogram",
		Short:         "Hearing-loss classification for audiometry records",
		Long:          "audiogram classifies pure-tone thresholds per ear into hearing-loss categories, from a dataset or from values typed on the command line.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.Init(logger.WithWriter(cmd.ErrOrStderr())); err != nil {
				return err
			}
			return logger.SetLevelString(opts.logLevel)
		},
	}

	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&opts.jsonOut, "json", false, "Print the result as JSON instead of a table")
	root.PersistentFlags().BoolVar(&opts.noColor, "no-color", os.Getenv("NO_COLOR") != "", "Disable colored badges")
	root.PersistentFlags().StringVar(&opts.fieldTable, "field-table", "", "YAML field table overriding the built-in one")

	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newManualCmd(opts))
	root.AddCommand(newSummaryCmd(opts))
	root.AddCommand(newBandsCmd(opts))
	return root
}

func (o *options) renderer() *report.Renderer {
	return report.New(report.WithColor(!o.noColor))
}

// newService builds a service; a non-empty dataset is loaded before return.
func (o *options) newService(ctx context.Context, dataset string, extra ...service.Option) (*service.Service, error) {
	table, err := fieldtable.Load(o.fieldTable)
	if err != nil {
		return nil, err
	}
	opts := append([]service.Option{
		service.WithLogger(logger.Named("cli")),
		service.WithFieldTable(table),
	}, extra...)
	if dataset == "" {
		return service.New(opts...), nil
	}

	svc := service.New(append(opts, service.WithDatasetPath(dataset))...)
	if err := svc.Start(ctx); err != nil {
		return nil, err
	}
	if st := svc.Dataset(ctx); !st.Loaded {
		svc.Stop()
		return nil, fmt.Errorf("%w: %s: %s", errDatasetUnavailable, dataset, st.LastError)
	}
	return svc, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
