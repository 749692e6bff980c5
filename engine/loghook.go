package engine

import (
	"log"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/bpsim/trace"
)

// LogHook writes resolved branches to a logger. By default only
// mispredictions are logged.
type LogHook struct {
	*log.Logger

	// LogAll logs every branch instead of only mispredicted ones.
	LogAll bool
}

// NewLogHook creates a LogHook writing to logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func implements sim.Hook.
func (h *LogHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosBranchResolved:
		outcome := ctx.Detail.(BranchOutcome)
		if !h.LogAll && !outcome.Mispredicted() {
			return
		}

		rec := ctx.Item.(trace.Record)
		h.Printf("#%d pc=0x%x predicted=%s actual=%s",
			outcome.Seq, rec.Addr,
			direction(outcome.Predicted), direction(outcome.Actual))
	case HookPosRunFinished:
		h.Printf("finished: %s", ctx.Detail.(Summary))
	}
}

func direction(taken bool) string {
	if taken {
		return "T"
	}
	return "N"
}
