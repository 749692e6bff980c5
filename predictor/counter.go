// Package predictor implements the branch direction predictors and the
// hardware-like building blocks they are made of: saturating counters,
// counter tables, and history shift registers.
package predictor

// SaturatingCounter is a 2-bit up/down counter. States 2 and 3 predict
// taken, states 0 and 1 predict not taken.
type SaturatingCounter uint8

// Counter states.
const (
	StronglyNotTaken SaturatingCounter = 0
	WeaklyNotTaken   SaturatingCounter = 1
	WeaklyTaken      SaturatingCounter = 2
	StronglyTaken    SaturatingCounter = 3
)

// maxCounterState is the saturation point of a 2-bit counter.
const maxCounterState = StronglyTaken

// Predict returns true if the counter predicts taken.
func (c SaturatingCounter) Predict() bool {
	return c >= WeaklyTaken
}

// Adjust moves the counter one step toward the actual outcome. The counter
// clamps at both ends instead of wrapping.
func (c *SaturatingCounter) Adjust(taken bool) {
	if taken {
		if *c < maxCounterState {
			*c++
		}
		return
	}

	if *c > StronglyNotTaken {
		*c--
	}
}

// Valid reports whether the counter holds a legal 2-bit state.
func (c SaturatingCounter) Valid() bool {
	return c <= maxCounterState
}

// String returns the conventional name of the counter state.
func (c SaturatingCounter) String() string {
	switch c {
	case StronglyNotTaken:
		return "strongly-not-taken"
	case WeaklyNotTaken:
		return "weakly-not-taken"
	case WeaklyTaken:
		return "weakly-taken"
	case StronglyTaken:
		return "strongly-taken"
	default:
		return "invalid"
	}
}

// PredictionTable is a power-of-two sized array of saturating counters.
type PredictionTable struct {
	counters []SaturatingCounter
	mask     uint64
}

// NewPredictionTable creates a table with 2^bits counters, all set to initial.
// Widths above MaxTableBits are clamped to MaxTableBits.
func NewPredictionTable(bits uint, initial SaturatingCounter) *PredictionTable {
	size := uint64(1) << clampTableBits(bits)
	t := &PredictionTable{
		counters: make([]SaturatingCounter, size),
		mask:     size - 1,
	}

	for i := range t.counters {
		t.counters[i] = initial
	}

	return t
}

func clampTableBits(bits uint) uint {
	if bits > MaxTableBits {
		return MaxTableBits
	}
	return bits
}

// Size returns the number of counters in the table.
func (t *PredictionTable) Size() int {
	return len(t.counters)
}

// Lookup returns the counter at index mod Size(). Callers are expected to
// mask the index already; the table masks again so the access is always in
// range.
func (t *PredictionTable) Lookup(index uint64) *SaturatingCounter {
	return &t.counters[index&t.mask]
}

// Snapshot returns a copy of all counter states.
func (t *PredictionTable) Snapshot() []SaturatingCounter {
	out := make([]SaturatingCounter, len(t.counters))
	copy(out, t.counters)
	return out
}
