package bit

// Combine combines two 8 bit values into a single 16 bit value.
// The high byte will be the most significant one.
func Combine(high, low uint8) uint16 {
	return (uint16(high) << 8) | uint16(low)
}

// All reports whether every bit of mask is set in value.
func All(mask, value uint8) bool {
	return value&mask == mask
}

// Any reports whether at least one bit of mask is set in value.
func Any(mask, value uint8) bool {
	return value&mask != 0
}

// Rising reports whether the bits of mask went from not all set in prev to
// all set in next.
func Rising(mask, prev, next uint8) bool {
	return !All(mask, prev) && All(mask, next)
}

// Low returns the low (LSB) part of a 16 bit number.
func Low(value uint16) uint8 {
	return uint8(value)
}

// High returns the high (MSB) part of a 16 bit number.
func High(value uint16) uint8 {
	return uint8(value >> 8)
}

// SetLow replaces the low byte of value.
func SetLow(value uint16, low uint8) uint16 {
	return (value & 0xFF00) | uint16(low)
}

// SetHigh replaces the high byte of value.
func SetHigh(value uint16, high uint8) uint16 {
	return (value & 0x00FF) | (uint16(high) << 8)
}

// ExtractBits extracts bits from highBit to lowBit (inclusive)
// Example: ExtractBits(0b11010110, 6, 4) -> 0b101 (extracts bits 6, 5, 4)
func ExtractBits(value uint8, highBit, lowBit uint8) uint8 {
	shift := lowBit
	width := highBit - lowBit + 1
	mask := uint8((1 << width) - 1)
	return (value >> shift) & mask
}
