package predictor

import "fmt"

// TournamentStats holds statistics about the tournament chooser.
type TournamentStats struct {
	// Updates is the number of resolved branches the predictor was trained on.
	Updates uint64
	// GlobalSelected is the number of branches for which the chooser trusted
	// the global vote.
	GlobalSelected uint64
	// Disagreements is the number of branches where the global and local
	// votes differed. The chooser is trained on exactly these branches.
	Disagreements uint64
	// GlobalWins is the number of disagreements the global vote got right.
	GlobalWins uint64
}

// Tournament runs a global-history predictor and a per-address local-history
// predictor side by side. A chooser table, indexed by global history, picks
// which of the two votes to trust.
type Tournament struct {
	globalBits       uint
	localHistoryBits uint
	pcIndexBits      uint

	globalHistory BitRegister
	globalTable   *PredictionTable
	localHistory  *LocalHistoryBank
	localTable    *PredictionTable
	chooserTable  *PredictionTable

	stats TournamentStats
}

// NewTournament creates a tournament predictor. globalBits sizes the global
// history, the global table, and the chooser; localHistoryBits sizes the
// per-address history registers and the local table; pcIndexBits sizes the
// local history bank.
func NewTournament(
	globalBits, localHistoryBits, pcIndexBits uint,
	initial SaturatingCounter,
) *Tournament {
	return &Tournament{
		globalBits:       globalBits,
		localHistoryBits: localHistoryBits,
		pcIndexBits:      pcIndexBits,
		globalHistory:    NewBitRegister(globalBits),
		globalTable:      NewPredictionTable(globalBits, initial),
		localHistory:     NewLocalHistoryBank(pcIndexBits, localHistoryBits),
		localTable:       NewPredictionTable(localHistoryBits, initial),
		chooserTable:     NewPredictionTable(globalBits, initial),
	}
}

// Name returns the configuration string of the predictor.
func (t *Tournament) Name() string {
	return fmt.Sprintf("tournament:%d:%d:%d",
		t.globalBits, t.localHistoryBits, t.pcIndexBits)
}

// votes is the set of intermediate values both Predict and Update need.
type votes struct {
	globalIndex uint64
	localIndex  uint64
	global      bool
	local       bool
}

func (t *Tournament) collectVotes(addr uint64) votes {
	v := votes{}

	v.globalIndex = t.globalHistory.AsIndex()
	v.global = t.globalTable.Lookup(v.globalIndex).Predict()

	v.localIndex = t.localHistory.History(addr)
	v.local = t.localTable.Lookup(v.localIndex).Predict()

	return v
}

// Predict returns the vote of the sub-predictor the chooser currently trusts.
func (t *Tournament) Predict(addr uint64) bool {
	v := t.collectVotes(addr)

	if t.chooserTable.Lookup(v.globalIndex).Predict() {
		return v.global
	}
	return v.local
}

// Update trains both sub-predictors, trains the chooser when they disagreed,
// and then advances the global and local histories.
func (t *Tournament) Update(addr uint64, taken bool) {
	v := t.collectVotes(addr)
	chooser := t.chooserTable.Lookup(v.globalIndex)

	t.stats.Updates++
	if chooser.Predict() {
		t.stats.GlobalSelected++
	}

	t.globalTable.Lookup(v.globalIndex).Adjust(taken)
	t.localTable.Lookup(v.localIndex).Adjust(taken)

	if v.global != v.local {
		t.stats.Disagreements++

		// Toward global (up) when global was right, toward local otherwise.
		globalRight := v.global == taken
		if globalRight {
			t.stats.GlobalWins++
		}
		chooser.Adjust(globalRight)
	}

	t.globalHistory.ShiftIn(taken)
	t.localHistory.ShiftIn(addr, taken)
}

// GlobalTable returns the global pattern history table.
func (t *Tournament) GlobalTable() *PredictionTable {
	return t.globalTable
}

// LocalTable returns the local pattern history table.
func (t *Tournament) LocalTable() *PredictionTable {
	return t.localTable
}

// ChooserTable returns the chooser table.
func (t *Tournament) ChooserTable() *PredictionTable {
	return t.chooserTable
}

// LocalHistory returns the per-address history bank.
func (t *Tournament) LocalHistory() *LocalHistoryBank {
	return t.localHistory
}

// Stats returns the chooser statistics.
func (t *Tournament) Stats() TournamentStats {
	return t.stats
}
