package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/compare"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/recording"
)

type compareOptions struct {
	predictors  []string
	counterInit string
	jobs        int
	csv         bool
	record      string
}

func defaultJobs() int {
	jobs, err := strconv.Atoi(os.Getenv(envJobs))
	if err != nil {
		return 0
	}
	return jobs
}

func newCompareCmd() *cobra.Command {
	opts := &compareOptions{}

	cmd := &cobra.Command{
		Use:   "compare [flags] <trace>...",
		Short: "Compare predictor configurations over one or more trace files.",
		Long: `Run every predictor configuration over every trace file, each pair ` +
			`with a freshly initialized predictor, and print the results side by side. ` +
			`Without --predictor the gshare:13 and tournament:9:10:10 defaults are compared.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompare(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&opts.predictors, "predictor", "p", nil, "predictor configuration to compare (repeatable)")
	flags.StringVar(&opts.counterInit, "counter-init", os.Getenv(envCounterInit), "initial counter state (0-3 or a state name)")
	flags.IntVarP(&opts.jobs, "jobs", "j", defaultJobs(), "maximum number of runs in parallel (0: one per CPU)")
	flags.BoolVar(&opts.csv, "csv", false, "output results in CSV format")
	flags.StringVar(&opts.record, "record", "", "SQLite file to record the summaries into")

	return cmd
}

func comparePredictors(opts *compareOptions) ([]predictor.Config, error) {
	if len(opts.predictors) == 0 {
		configs := compare.DefaultPredictors()
		for i := range configs {
			c, err := applyCounterInit(configs[i], opts.counterInit)
			if err != nil {
				return nil, err
			}
			configs[i] = c
		}
		return configs, nil
	}

	configs := make([]predictor.Config, 0, len(opts.predictors))
	for _, s := range opts.predictors {
		c, err := predictor.ParseConfig(s)
		if err != nil {
			return nil, err
		}

		c, err = applyCounterInit(c, opts.counterInit)
		if err != nil {
			return nil, err
		}
		configs = append(configs, c)
	}

	return configs, nil
}

func runCompare(cmd *cobra.Command, args []string, opts *compareOptions) (err error) {
	configs, err := comparePredictors(opts)
	if err != nil {
		return err
	}

	harness := compare.NewHarness(compare.HarnessConfig{
		Jobs:   opts.jobs,
		Output: cmd.OutOrStdout(),
	})
	harness.AddPredictors(configs)
	for _, path := range args {
		harness.AddTrace(compare.FileTrace(path))
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	results, err := harness.RunAll(ctx)
	if err != nil {
		return err
	}

	if opts.csv {
		harness.PrintCSV(results)
	} else {
		harness.PrintResults(results)
	}

	if opts.record == "" {
		return nil
	}

	rec, err := recording.New(opts.record)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := rec.Close(); err == nil {
			err = closeErr
		}
	}()

	for _, r := range results {
		if err := rec.RecordSummary(recording.NewRunID(), r.Trace, r.Summary); err != nil {
			return fmt.Errorf("failed to record %s on %s: %w", r.Summary.Config, r.Trace, err)
		}
	}

	return nil
}
