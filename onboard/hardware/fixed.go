package hardware

import "math"

// Q15 is a signed fractional value with 15 fractional bits, range [-1, 1).
type Q15 int16

const (
	Q15_ONE Q15 = math.MaxInt16 // largest representable value, ~0.99997
)

// ToQ15 converts f into Q15, truncating toward zero. Values at or beyond
// +/-1.0 are clamped to +/-Q15_ONE.
func ToQ15(f float64) Q15 {
	scaled := f * float64(Q15_ONE)
	switch {
	case scaled >= float64(Q15_ONE):
		return Q15_ONE
	case scaled <= -float64(Q15_ONE):
		return -Q15_ONE
	case math.IsNaN(scaled):
		return 0
	}

	return Q15(int32(scaled))
}

func (q Q15) Float() float64 {
	return float64(q) / float64(Q15_ONE)
}

// MulHigh multiplies two signed 16 bit values and returns the high word of
// the 32 bit product. For an S15.0 integer a and an S0.15 fraction b this
// yields a*b/2, which is why callers double the integer operand first.
func MulHigh(a, b int16) int16 {
	return int16((int32(a) * int32(b)) >> 16)
}

// double returns 2*v saturated to the int16 range.
func double(v int16) int16 {
	switch {
	case v > math.MaxInt16/2:
		return math.MaxInt16
	case v < math.MinInt16/2:
		return math.MinInt16
	}
	return v << 1
}
