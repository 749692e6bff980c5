package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sarchlab/bpsim/engine"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/recording"
	"github.com/sarchlab/bpsim/trace"
)

// Environment variables that provide flag defaults. They may be set in a
// .env file next to the binary's working directory.
const (
	envCounterInit = "BPSIM_COUNTER_INIT"
	envJobs        = "BPSIM_JOBS"
)

type runOptions struct {
	tracePath   string
	configFile  string
	counterInit string
	record      string
	verbose     bool
	cpuProfile  string
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "bpsim [flags] <config>",
		Short: "Run a branch predictor over a branch trace.",
		Long: `Run a branch predictor over a branch trace and print the number of ` +
			`branches, the number of mispredictions, and the misprediction rate.

Configurations:
  static
  gshare:<historyBits>
  tournament:<globalBits>:<localHistoryBits>:<pcIndexBits>`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPredict(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.tracePath, "trace", "t", "", "trace file to read (default: stdin)")
	flags.StringVar(&opts.configFile, "config-file", "", "JSON predictor configuration, used when no config argument is given")
	flags.StringVar(&opts.counterInit, "counter-init", os.Getenv(envCounterInit), "initial counter state (0-3 or a state name)")
	flags.StringVar(&opts.record, "record", "", "SQLite file to record every branch and the summary into")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log mispredicted branches to stderr")
	flags.StringVar(&opts.cpuProfile, "cpuprofile", "", "write cpu profile to file")

	cmd.AddCommand(newCompareCmd())

	return cmd
}

// normalizeArgs turns "--gshare:13" style predictor arguments into plain
// positional arguments so they are not mistaken for flags.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if strings.HasPrefix(a, "--") {
			if _, err := predictor.ParseConfig(a); err == nil {
				a = strings.TrimPrefix(a, "--")
			}
		}
		out = append(out, a)
	}
	return out
}

func resolveConfig(args []string, opts *runOptions) (predictor.Config, error) {
	var (
		config predictor.Config
		err    error
	)

	switch {
	case len(args) == 1:
		config, err = predictor.ParseConfig(args[0])
	case opts.configFile != "":
		config, err = predictor.LoadConfig(opts.configFile)
	default:
		return predictor.Config{}, errors.New("a predictor configuration is required")
	}
	if err != nil {
		return predictor.Config{}, err
	}

	return applyCounterInit(config, opts.counterInit)
}

func applyCounterInit(config predictor.Config, counterInit string) (predictor.Config, error) {
	if counterInit == "" {
		return config, nil
	}

	state, err := predictor.ParseCounterInit(counterInit)
	if err != nil {
		return predictor.Config{}, err
	}

	return config.WithCounterInit(state), nil
}

func openTrace(path string, stdin io.Reader) (io.ReadCloser, string, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), "stdin", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open trace: %w", err)
	}

	return f, path, nil
}

func startCPUProfile(path string) (func(), error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create CPU profile: %w", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to start CPU profile: %w", err)
	}

	return func() {
		pprof.StopCPUProfile()
		_ = f.Close()
	}, nil
}

func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}

func runPredict(cmd *cobra.Command, args []string, opts *runOptions) (err error) {
	config, err := resolveConfig(args, opts)
	if err != nil {
		return err
	}

	// Fail on configuration before touching the trace.
	e, err := engine.New(config)
	if err != nil {
		return err
	}

	rc, traceName, err := openTrace(opts.tracePath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	if opts.verbose {
		e.AcceptHook(engine.NewLogHook(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	var hook *recording.BranchHook
	if opts.record != "" {
		var rec *recording.Recorder
		rec, err = recording.New(opts.record)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := rec.Close(); err == nil {
				err = closeErr
			}
		}()

		hook, err = recording.NewBranchHook(rec, traceName)
		if err != nil {
			return err
		}
		e.AcceptHook(hook)
	}

	if opts.cpuProfile != "" {
		stop, err := startCPUProfile(opts.cpuProfile)
		if err != nil {
			return err
		}
		defer stop()
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	summary, err := e.Run(ctx, trace.NewReader(rc))
	if err != nil {
		return err
	}

	if hook != nil && hook.Err() != nil {
		return fmt.Errorf("failed to record run: %w", hook.Err())
	}

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary)

	return nil
}
