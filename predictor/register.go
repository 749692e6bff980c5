package predictor

// BitRegister is a fixed-width shift register of branch outcomes. The most
// recent outcome is the least significant bit.
type BitRegister struct {
	width uint
	mask  uint64
	value uint64
}

// NewBitRegister creates a zeroed register that keeps the last width bits.
// Widths above 64 are clamped to 64.
func NewBitRegister(width uint) BitRegister {
	if width > 64 {
		width = 64
	}

	return BitRegister{
		width: width,
		mask:  lowBitsMask(width),
	}
}

// lowBitsMask returns a mask with the lowest n bits set.
func lowBitsMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// Width returns the number of bits the register keeps.
func (r *BitRegister) Width() uint {
	return r.width
}

// ShiftIn pushes an outcome into the register, discarding the oldest bit.
func (r *BitRegister) ShiftIn(taken bool) {
	v := r.value << 1
	if taken {
		v |= 1
	}
	r.value = v & r.mask
}

// AsIndex returns the register content as a table index.
func (r *BitRegister) AsIndex() uint64 {
	return r.value
}
