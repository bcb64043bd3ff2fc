package splat

import (
	"errors"
	"fmt"
	"strings"
)

// Regime identifies the rasterizer's numeric implementation.
type Regime string

const (
	// RegimeFloat blends in per-channel [0,1] float32. Default.
	RegimeFloat Regime = "float"
	// RegimeFixed runs the entirely integer pipeline: u0.10 accumulator,
	// s14.4 positions, u2.14/s2.14 coefficients. Bit-exact across hosts
	// and identical to what the accelerator consumes.
	RegimeFixed Regime = "fixed"
)

// ErrUnknownRegime is returned when the name does not match a known
// numeric regime.
var ErrUnknownRegime = errors.New("unknown rasterizer regime")

// NormalizeRegime maps arbitrary user input to a canonical regime.
func NormalizeRegime(name string) Regime {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "float", "f32", "fp":
		return RegimeFloat
	case "fixed", "fixedpoint", "int":
		return RegimeFixed
	default:
		return Regime(name)
	}
}

// SupportedRegimes returns the regimes understood by NewRenderer.
func SupportedRegimes() []Regime {
	return []Regime{RegimeFloat, RegimeFixed}
}

// NewRenderer constructs a renderer for the requested regime.
func NewRenderer(name string) (*Renderer, error) {
	regime := NormalizeRegime(name)
	switch regime {
	case RegimeFloat, RegimeFixed:
		return &Renderer{regime: regime}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownRegime, name)
	}
}
