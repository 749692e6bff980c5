// Package compare runs several predictor configurations over several traces
// and reports their misprediction rates side by side. Every (trace,
// configuration) pair gets its own engine, so pairs run in parallel.
package compare

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sarchlab/bpsim/engine"
	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// Trace names a trace and opens a fresh reader over it for every run.
type Trace struct {
	// Name identifies the trace in reports.
	Name string

	// Open returns a new stream of trace text positioned at the start.
	Open func() (io.ReadCloser, error)
}

// FileTrace returns a Trace reading the file at path. The trace is named
// after the file.
func FileTrace(path string) Trace {
	return Trace{
		Name: filepath.Base(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// RecordsTrace returns a Trace over in-memory records.
func RecordsTrace(name string, records []trace.Record) Trace {
	return Trace{
		Name: name,
		Open: func() (io.ReadCloser, error) {
			var buf bytes.Buffer
			if err := trace.Write(&buf, records); err != nil {
				return nil, err
			}
			return io.NopCloser(&buf), nil
		},
	}
}

// Result holds the outcome of one (trace, configuration) pair.
type Result struct {
	// Trace is the name of the trace.
	Trace string `json:"trace"`

	// Summary holds the prediction counts.
	Summary engine.Summary `json:"summary"`

	// WallTime is the actual time taken to run the pair.
	WallTime time.Duration `json:"wall_time_ns"`
}

// HarnessConfig configures the comparison harness.
type HarnessConfig struct {
	// Jobs limits how many pairs run at once. 0 means one per CPU.
	Jobs int

	// Output is where to write reports (default: os.Stdout)
	Output io.Writer
}

// DefaultConfig returns a default harness configuration.
func DefaultConfig() HarnessConfig {
	return HarnessConfig{
		Jobs:   runtime.NumCPU(),
		Output: os.Stdout,
	}
}

// DefaultPredictors returns the configurations compared when none are given.
func DefaultPredictors() []predictor.Config {
	return []predictor.Config{
		predictor.DefaultGshareConfig(),
		predictor.DefaultTournamentConfig(),
	}
}

// Harness runs every configured predictor over every trace.
type Harness struct {
	config     HarnessConfig
	traces     []Trace
	predictors []predictor.Config
}

// NewHarness creates a new comparison harness.
func NewHarness(config HarnessConfig) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	if config.Jobs <= 0 {
		config.Jobs = runtime.NumCPU()
	}
	return &Harness{config: config}
}

// AddTrace adds a trace to the harness.
func (h *Harness) AddTrace(t Trace) {
	h.traces = append(h.traces, t)
}

// AddTraces adds multiple traces to the harness.
func (h *Harness) AddTraces(traces []Trace) {
	h.traces = append(h.traces, traces...)
}

// AddPredictor adds a predictor configuration to the harness.
func (h *Harness) AddPredictor(c predictor.Config) {
	h.predictors = append(h.predictors, c)
}

// AddPredictors adds multiple predictor configurations to the harness.
func (h *Harness) AddPredictors(configs []predictor.Config) {
	h.predictors = append(h.predictors, configs...)
}

// RunAll runs every pair and returns results ordered by trace, then by
// predictor. All configurations are validated before any trace is opened. The
// first failing pair cancels the others.
func (h *Harness) RunAll(ctx context.Context) ([]Result, error) {
	for _, c := range h.predictors {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	results := make([]Result, len(h.traces)*len(h.predictors))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.config.Jobs)

	for ti, t := range h.traces {
		for pi, c := range h.predictors {
			t, c := t, c
			slot := &results[ti*len(h.predictors)+pi]
			g.Go(func() error {
				r, err := runPair(gctx, t, c)
				if err != nil {
					return fmt.Errorf("%s on %s: %w", c, t.Name, err)
				}
				*slot = r
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// runPair runs one configuration over one trace with a fresh engine.
func runPair(ctx context.Context, t Trace, c predictor.Config) (Result, error) {
	e, err := engine.New(c)
	if err != nil {
		return Result{}, err
	}

	rc, err := t.Open()
	if err != nil {
		return Result{}, fmt.Errorf("failed to open trace: %w", err)
	}
	defer func() { _ = rc.Close() }()

	start := time.Now()
	summary, err := e.Run(ctx, trace.NewReader(rc))
	if err != nil {
		return Result{}, err
	}

	return Result{
		Trace:    t.Name,
		Summary:  summary,
		WallTime: time.Since(start),
	}, nil
}

// PrintResults outputs results in a human-readable table.
func (h *Harness) PrintResults(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output, "=== Branch Predictor Comparison ===")
	_, _ = fmt.Fprintln(h.config.Output, "")
	_, _ = fmt.Fprintf(h.config.Output, "%-20s %-22s %12s %12s %10s\n",
		"Trace", "Predictor", "Branches", "Incorrect", "Rate")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%-20s %-22s %12d %12d %9.3f%%\n",
			r.Trace,
			r.Summary.Config,
			r.Summary.Branches,
			r.Summary.Mispredictions,
			100*r.Summary.MispredictionRate(),
		)
	}

	_, _ = fmt.Fprintln(h.config.Output, "")
}

// PrintCSV outputs results in CSV format for easy comparison.
func (h *Harness) PrintCSV(results []Result) {
	_, _ = fmt.Fprintln(h.config.Output,
		"trace,predictor,branches,mispredictions,misprediction_rate,wall_time_ns")

	for _, r := range results {
		_, _ = fmt.Fprintf(h.config.Output, "%s,%s,%d,%d,%.6f,%d\n",
			r.Trace,
			r.Summary.Config,
			r.Summary.Branches,
			r.Summary.Mispredictions,
			r.Summary.MispredictionRate(),
			r.WallTime.Nanoseconds(),
		)
	}
}
