package predictor

import "fmt"

// Gshare indexes a single counter table with the branch address XORed with
// the global history.
type Gshare struct {
	historyBits uint
	history     BitRegister
	table       *PredictionTable
}

// NewGshare creates a gshare predictor with a historyBits-wide global history
// and a 2^historyBits entry table. A width of 0 gives a single shared counter.
func NewGshare(historyBits uint, initial SaturatingCounter) *Gshare {
	return &Gshare{
		historyBits: historyBits,
		history:     NewBitRegister(historyBits),
		table:       NewPredictionTable(historyBits, initial),
	}
}

// Name returns the configuration string of the predictor.
func (g *Gshare) Name() string {
	return fmt.Sprintf("gshare:%d", g.historyBits)
}

// index computes the table index for a given address from the current
// history.
func (g *Gshare) index(addr uint64) uint64 {
	return (addr ^ g.history.AsIndex()) & lowBitsMask(g.historyBits)
}

// Predict returns the predicted direction of the branch at addr.
func (g *Gshare) Predict(addr uint64) bool {
	return g.table.Lookup(g.index(addr)).Predict()
}

// Update trains the counter the prediction came from, then records the
// outcome in the global history.
func (g *Gshare) Update(addr uint64, taken bool) {
	g.table.Lookup(g.index(addr)).Adjust(taken)
	g.history.ShiftIn(taken)
}

// Table returns the pattern history table.
func (g *Gshare) Table() *PredictionTable {
	return g.table
}

// History returns the current global history value.
func (g *Gshare) History() uint64 {
	return g.history.AsIndex()
}
