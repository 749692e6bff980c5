package predictor

// LocalHistoryBank keeps one history per low-address slot. The bank is a
// fixed arena indexed by address mod 2^pcIndexBits; every history starts at
// zero. Only the history values are stored per slot; the width is shared.
type LocalHistoryBank struct {
	histories   []uint64
	slotMask    uint64
	historyBits uint
	historyMask uint64
}

// NewLocalHistoryBank creates a bank of 2^pcIndexBits histories, each
// historyBits wide. pcIndexBits is clamped to MaxTableBits and historyBits
// to 64.
func NewLocalHistoryBank(pcIndexBits, historyBits uint) *LocalHistoryBank {
	pcIndexBits = clampTableBits(pcIndexBits)
	if historyBits > 64 {
		historyBits = 64
	}

	size := uint64(1) << pcIndexBits

	return &LocalHistoryBank{
		histories:   make([]uint64, size),
		slotMask:    size - 1,
		historyBits: historyBits,
		historyMask: lowBitsMask(historyBits),
	}
}

// Size returns the number of address slots.
func (b *LocalHistoryBank) Size() int {
	return len(b.histories)
}

// Width returns the number of outcomes each history keeps.
func (b *LocalHistoryBank) Width() uint {
	return b.historyBits
}

// History returns the history of the slot that tracks addr, as a table index.
func (b *LocalHistoryBank) History(addr uint64) uint64 {
	return b.histories[addr&b.slotMask]
}

// ShiftIn pushes an outcome into the history of the slot that tracks addr.
func (b *LocalHistoryBank) ShiftIn(addr uint64, taken bool) {
	slot := &b.histories[addr&b.slotMask]

	v := *slot << 1
	if taken {
		v |= 1
	}
	*slot = v & b.historyMask
}
