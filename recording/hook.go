package recording

import (
	"fmt"

	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/engine"
	"github.com/sarchlab/bpsim/trace"
)

// Table names used by the hooks and summaries.
const (
	BranchTable  = "branches"
	SummaryTable = "summaries"
)

// BranchEntry is one resolved branch of a run.
type BranchEntry struct {
	RunID     string
	Seq       int64
	Addr      string
	Predicted bool
	Actual    bool
}

// SummaryEntry is the final result of a run.
type SummaryEntry struct {
	RunID          string
	Config         string
	Trace          string
	Branches       int64
	Mispredictions int64
	Rate           float64
}

// NewRunID returns a unique identifier for a run.
func NewRunID() string {
	return xid.New().String()
}

// RecordSummary stores the summary of a finished run.
func (r *Recorder) RecordSummary(runID, traceName string, s engine.Summary) error {
	if err := r.CreateTable(SummaryTable, SummaryEntry{}); err != nil {
		return err
	}

	return r.InsertData(SummaryTable, SummaryEntry{
		RunID:          runID,
		Config:         s.Config,
		Trace:          traceName,
		Branches:       int64(s.Branches),
		Mispredictions: int64(s.Mispredictions),
		Rate:           s.MispredictionRate(),
	})
}

// BranchHook records every resolved branch of an engine and the run summary.
// Hooks cannot return errors, so the first failure is kept and reported by
// Err.
type BranchHook struct {
	recorder  *Recorder
	runID     string
	traceName string
	err       error
}

// NewBranchHook creates the branch and summary tables and returns a hook that
// fills them for one run.
func NewBranchHook(r *Recorder, traceName string) (*BranchHook, error) {
	if err := r.CreateTable(BranchTable, BranchEntry{}); err != nil {
		return nil, err
	}
	if err := r.CreateTable(SummaryTable, SummaryEntry{}); err != nil {
		return nil, err
	}

	return &BranchHook{
		recorder:  r,
		runID:     NewRunID(),
		traceName: traceName,
	}, nil
}

// RunID returns the identifier written into every row of this run.
func (h *BranchHook) RunID() string {
	return h.runID
}

// Err returns the first error hit while recording.
func (h *BranchHook) Err() error {
	return h.err
}

// Func implements sim.Hook.
func (h *BranchHook) Func(ctx sim.HookCtx) {
	if h.err != nil {
		return
	}

	switch ctx.Pos {
	case engine.HookPosBranchResolved:
		rec := ctx.Item.(trace.Record)
		outcome := ctx.Detail.(engine.BranchOutcome)
		h.err = h.recorder.InsertData(BranchTable, BranchEntry{
			RunID:     h.runID,
			Seq:       int64(outcome.Seq),
			Addr:      fmt.Sprintf("0x%x", rec.Addr),
			Predicted: outcome.Predicted,
			Actual:    outcome.Actual,
		})
	case engine.HookPosRunFinished:
		h.err = h.recorder.RecordSummary(h.runID, h.traceName, ctx.Detail.(engine.Summary))
	}
}
