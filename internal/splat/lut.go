package splat

import "math"

// Gaussian lookup tables. Both variants sample exp(-d²/2) at uniformly
// spaced d² and are filled once at package init; afterwards they are
// read-only and safe for concurrent readers.
//
// Float table: 1024+1 entries over d² in [0,9) with linear interpolation
// between neighbours. The 3-sigma cutoff truncates less than 2% of the
// rendered intensity and keeps the table small enough to stay cached.
//
// Fixed table: 2048 u0.16 entries over d² in [0,8), no interpolation.
// Entry i represents exp(-0.5 * i/256); the rasterizer's u4.18 d²
// accumulator indexes it with a single >>10.

const (
	// GaussCutoff is the float-regime d² cutoff. kernel(d²) is exactly
	// zero at and beyond it.
	GaussCutoff = 9.0

	gaussTableSize  = 1024
	gaussTableScale = gaussTableSize / float32(GaussCutoff)

	gaussLUTSize = 2048

	// GaussCutoffFixed is the fixed-regime cutoff in u4.18: d² >= 8.0.
	GaussCutoffFixed = 8 << 18
)

var (
	gaussTable [gaussTableSize + 1]float32
	gaussLUT   [gaussLUTSize]uint16
)

func init() {
	for i := 0; i <= gaussTableSize; i++ {
		d2 := float64(i) * GaussCutoff / gaussTableSize
		gaussTable[i] = float32(math.Exp(-0.5 * d2))
	}
	for i := 0; i < gaussLUTSize; i++ {
		d2 := float64(i) / 256.0
		gaussLUT[i] = uint16(math.Exp(-0.5*d2)*65535.0 + 0.5)
	}
}

// Gauss approximates exp(-d²/2) by linear interpolation in the float
// table. Returns 0 for d² outside [0, GaussCutoff).
func Gauss(d2 float32) float32 {
	if d2 < 0 || d2 >= GaussCutoff {
		return 0
	}
	t := d2 * gaussTableScale
	i := int(t)
	f := t - float32(i)
	g0 := gaussTable[i]
	return g0 + (gaussTable[i+1]-g0)*f
}

// GaussFixed approximates exp(-d²/2) as u0.16 from a u4.18 d²
// accumulator value. Returns 0 outside [0, GaussCutoffFixed).
func GaussFixed(d2fp int32) uint16 {
	if d2fp < 0 || d2fp >= GaussCutoffFixed {
		return 0
	}
	return gaussLUT[d2fp>>10]
}
