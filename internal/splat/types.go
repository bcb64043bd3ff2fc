package splat

// Tile dimensions. 32x32 keeps a four-channel accumulator (16KB as
// float32, 8KB as uint16) resident in one half of a 32KB L1 partition.
const (
	TileW = 32
	TileH = 32
)

// CulledDepth marks splats rejected by the projector. It lies far beyond
// any visible depth; the sorter gives every culled splat the reserved key
// 0xFFFF so it lands at the tail of the permutation.
const CulledDepth = float32(1e30)

const culledThreshold = float32(1e20)

// Splat3D is a raw anisotropic Gaussian as stored or received from a
// transport. Immutable during a render.
type Splat3D struct {
	X, Y, Z float32
	// Symmetric 3x3 covariance: xx, xy, xz, yy, yz, zz.
	// Must be positive semi-definite.
	Cov [6]float32
	R, G, B uint8
	Alpha   uint8
}

// Splat2D is the projected screen-space record consumed by the float
// rasterizer. Regenerated every frame by the projector.
//
// InvB2 carries the doubled cross coefficient of the inverse 2D
// covariance, so d² = InvA*dx² + InvB2*dx*dy + InvC*dy².
type Splat2D struct {
	SX, SY float32
	Depth  float32

	InvA, InvB2, InvC float32

	// Color as float [0,1] so the blend loop has no integer conversions.
	RF, GF, BF float32
	Opacity    float32

	// Screen-space bounding box, clipped to the surface.
	X0, Y0, X1, Y1 int16
}

// Splat2DFixed is the integer form consumed by the fixed-point
// rasterizer and streamed verbatim into accelerator descriptors.
// The encoded layout is 32 bytes, little-endian, field order as below.
type Splat2DFixed struct {
	SxFP, SyFP int32  // s14.4 screen position
	AFP, CFP   uint16 // u2.14 inverse covariance diagonal
	B2FP       int32  // s2.14, pre-doubled cross term

	R, G, B, Opacity uint8

	X0, Y0, X1, Y1 int16

	Depth float32
}

// FixedRecordSize is the encoded size of one Splat2DFixed record.
const FixedRecordSize = 32

// Culled reports whether the splat was rejected by the projector.
func (s *Splat2D) Culled() bool {
	return s.Depth >= culledThreshold
}

// Culled reports whether the splat was rejected by the projector.
func (s *Splat2DFixed) Culled() bool {
	return s.Depth >= culledThreshold
}
