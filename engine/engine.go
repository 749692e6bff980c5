// Package engine drives a branch predictor over a trace. For every record it
// asks the predictor for a direction before revealing the outcome, counts
// mispredictions, and then trains the predictor with the actual outcome.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/predictor"
	"github.com/sarchlab/bpsim/trace"
)

// State is the lifecycle state of an Engine.
type State int

// Engine states. A zero Engine is Uninitialized; New returns a Ready engine;
// a Ready engine becomes Finished once its trace ends.
const (
	StateUninitialized State = iota
	StateReady
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrNotReady is returned when an engine is used before construction.
	ErrNotReady = errors.New("engine is not initialized")
	// ErrFinished is returned when a finished engine is asked to process
	// more records.
	ErrFinished = errors.New("engine has already finished its trace")
)

// HookPosBranchResolved triggers after each record is predicted and
// trained. The hook context Item is the trace.Record and Detail is a
// BranchOutcome.
var HookPosBranchResolved = &sim.HookPos{Name: "BranchResolved"}

// HookPosRunFinished triggers once the trace is exhausted. Detail is the
// final Summary.
var HookPosRunFinished = &sim.HookPos{Name: "RunFinished"}

// BranchOutcome describes one resolved branch.
type BranchOutcome struct {
	// Seq is the 1-based position of the record in the trace.
	Seq uint64
	// Predicted is the direction the predictor chose.
	Predicted bool
	// Actual is the direction recorded in the trace.
	Actual bool
}

// Mispredicted returns true if the prediction was wrong.
func (o BranchOutcome) Mispredicted() bool {
	return o.Predicted != o.Actual
}

// Engine runs one predictor instance over one trace. Hooks may be attached
// in any state, including to a zero Engine.
type Engine struct {
	sim.HookableBase

	predictor predictor.Predictor
	state     State
	summary   Summary
}

// New validates the configuration and creates a Ready engine with a freshly
// initialized predictor. Configuration errors are reported before any trace
// record is read.
func New(config predictor.Config) (*Engine, error) {
	p, err := predictor.New(config)
	if err != nil {
		return nil, err
	}

	return NewWithPredictor(p), nil
}

// NewFromString parses a configuration string and creates a Ready engine.
func NewFromString(config string) (*Engine, error) {
	c, err := predictor.ParseConfig(config)
	if err != nil {
		return nil, err
	}

	return New(c)
}

// NewWithPredictor creates a Ready engine around an existing predictor. The
// engine takes ownership of the predictor.
func NewWithPredictor(p predictor.Predictor) *Engine {
	return &Engine{
		predictor: p,
		state:     StateReady,
		summary:   Summary{Config: p.Name()},
	}
}

// State returns the lifecycle state of the engine.
func (e *Engine) State() State {
	return e.state
}

// Predictor returns the predictor the engine drives.
func (e *Engine) Predictor() predictor.Predictor {
	return e.predictor
}

// Summary returns the statistics collected so far.
func (e *Engine) Summary() Summary {
	return e.summary
}

func (e *Engine) checkReady() error {
	switch e.state {
	case StateReady:
		return nil
	case StateFinished:
		return ErrFinished
	default:
		return ErrNotReady
	}
}

// Step processes a single record: predict, count, then train. It returns
// the prediction that was made.
func (e *Engine) Step(rec trace.Record) (bool, error) {
	if err := e.checkReady(); err != nil {
		return false, err
	}

	return e.step(rec), nil
}

func (e *Engine) step(rec trace.Record) bool {
	predicted := e.predictor.Predict(rec.Addr)

	e.summary.Branches++
	if predicted == rec.Taken {
		e.summary.Correct++
	} else {
		e.summary.Mispredictions++
	}

	e.predictor.Update(rec.Addr, rec.Taken)

	if e.NumHooks() > 0 {
		e.InvokeHook(sim.HookCtx{
			Domain: e,
			Pos:    HookPosBranchResolved,
			Item:   rec,
			Detail: BranchOutcome{
				Seq:       e.summary.Branches,
				Predicted: predicted,
				Actual:    rec.Taken,
			},
		})
	}

	return predicted
}

// Run consumes the source in order until it returns io.EOF, then marks the
// engine Finished and returns the summary. A source error also finishes the
// engine, since the counts no longer describe the whole trace. Cancelling the
// context stops consumption and leaves the engine Ready.
func (e *Engine) Run(ctx context.Context, src trace.Source) (Summary, error) {
	if err := e.checkReady(); err != nil {
		return e.summary, err
	}

	for {
		select {
		case <-ctx.Done():
			return e.summary, ctx.Err()
		default:
		}

		rec, err := src.Next()
		if err == io.EOF {
			e.finish()
			return e.summary, nil
		}
		if err != nil {
			e.state = StateFinished
			return e.summary, fmt.Errorf("trace record %d: %w",
				e.summary.Branches+1, err)
		}

		e.step(rec)
	}
}

func (e *Engine) finish() {
	e.state = StateFinished

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    HookPosRunFinished,
		Detail: e.summary,
	})
}

// Run builds a Ready engine from a configuration string and runs it over the
// source. It is the library form of invoking the predictor binary.
func Run(ctx context.Context, config string, src trace.Source) (Summary, error) {
	e, err := NewFromString(config)
	if err != nil {
		return Summary{}, err
	}

	return e.Run(ctx, src)
}
