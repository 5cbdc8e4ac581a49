package render

// minPrecisionBits is the floor applied to measured timer precision.
// Some embedded GPUs only resolve ~10 bits, which wraps the millisecond
// timer after about a second; a larger range matters more than exact
// millisecond accuracy.
const minPrecisionBits = 13

// TimeMask limits the elapsed-millisecond counter to the bit width the
// host's shader numeric domain can represent without rounding artifacts.
// The zero value applies no mask.
type TimeMask struct {
	Bits int
}

// NewTimeMask builds a mask from a measured bit count. Non-positive
// measurements mean masking is disabled; anything else is floored to
// minPrecisionBits.
func NewTimeMask(measuredBits int) TimeMask {
	if measuredBits <= 0 {
		return TimeMask{}
	}
	if measuredBits < minPrecisionBits {
		measuredBits = minPrecisionBits
	}
	return TimeMask{Bits: measuredBits}
}

// Apply masks an elapsed-millisecond value to the usable bit width.
func (m TimeMask) Apply(ms int64) int64 {
	if m.Bits > 0 {
		return ms & ((1 << m.Bits) - 1)
	}
	return ms
}

// PrecisionProber measures how many bits of the millisecond timer the
// platform resolves. It is pluggable because future targets may carry
// full precision and want no mask at all.
type PrecisionProber interface {
	MeasureBits() (int, error)
}

// FixedPrecision is a PrecisionProber that reports a constant
// measurement; FixedPrecision(0) selects the unmasked mode.
type FixedPrecision int

// MeasureBits returns the fixed value.
func (p FixedPrecision) MeasureBits() (int, error) { return int(p), nil }

// countTransitions walks the vertical scanline through the horizontal
// center of an RGBA readback and counts 0 -> non-zero edges in the red
// channel. Each edge is one resolvable timer bit in the calibration
// pattern.
func countTransitions(pixels []byte, w, h int) int {
	if w <= 0 || h <= 0 || len(pixels) < w*h*4 {
		return 0
	}
	bits := 0
	prev := byte(0)
	x := w / 2
	for y := 0; y < h; y++ {
		c := pixels[4*(y*w+x)]
		if c != 0 && prev == 0 {
			bits++
		}
		prev = c
	}
	return bits
}
