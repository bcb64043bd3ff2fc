package splat

import "math"

// EWA projection constants.
const (
	nearEpsilon = 0.1  // camera-space cull plane, world units
	detEpsilon  = 1e-8 // singular 2D covariance threshold
	lowPass     = 0.3  // diagonal regularizer, guarantees >= 1px footprint
)

// Project rewrites every splat's 2D record for the given camera and
// surface size. Per-splat degeneracies (behind the near plane, singular
// covariance, NaN or fully offscreen bbox) cull the splat by writing the
// sentinel depth and a zero bbox; projection itself never fails.
//
// Projection math is always done in float. When quantize is set the
// fixed-point record is derived alongside, with the coefficient clamps
// the s2.14/u2.14 formats require.
func Project(st *Store, cam *Camera, width, height int, quantize bool) {
	m := &cam.View
	splats := st.splats
	proj := st.proj

	for i := range splats {
		s3 := &splats[i]
		s2 := &proj[i]

		// Camera space.
		cx := m[0]*s3.X + m[4]*s3.Y + m[8]*s3.Z + m[12]
		cy := m[1]*s3.X + m[5]*s3.Y + m[9]*s3.Z + m[13]
		cz := m[2]*s3.X + m[6]*s3.Y + m[10]*s3.Z + m[14]

		if cz >= -nearEpsilon {
			cull(st, i, quantize)
			continue
		}

		iz := -1.0 / cz

		sxf := cam.FX*cx*iz + cam.CX
		syf := cam.FY*cy*iz + cam.CY
		depth := -cz

		// Jacobian of the perspective divide at the camera-space point.
		jxz := cam.FX * iz
		jyz := cam.FY * iz
		jxzz := cam.FX * cx * iz * iz
		jyzz := cam.FY * cy * iz * iz

		// W = J * R with R the rotation part of the view matrix.
		// J has only four non-zero entries, so the 2x3 product unrolls.
		var w [2][3]float32
		w[0][0] = jxz*m[0] + jxzz*m[2]
		w[0][1] = jxz*m[4] + jxzz*m[6]
		w[0][2] = jxz*m[8] + jxzz*m[10]
		w[1][0] = jyz*m[1] + jyzz*m[2]
		w[1][1] = jyz*m[5] + jyzz*m[6]
		w[1][2] = jyz*m[9] + jyzz*m[10]

		// T = W * Sigma, with Sigma unpacked from its 6 scalars.
		var t [2][3]float32
		for r := 0; r < 2; r++ {
			t[r][0] = w[r][0]*s3.Cov[0] + w[r][1]*s3.Cov[1] + w[r][2]*s3.Cov[2]
			t[r][1] = w[r][0]*s3.Cov[1] + w[r][1]*s3.Cov[3] + w[r][2]*s3.Cov[4]
			t[r][2] = w[r][0]*s3.Cov[2] + w[r][1]*s3.Cov[4] + w[r][2]*s3.Cov[5]
		}

		// Screen covariance = T * Wᵀ, plus the EWA low-pass.
		ca := t[0][0]*w[0][0] + t[0][1]*w[0][1] + t[0][2]*w[0][2] + lowPass
		cb := t[0][0]*w[1][0] + t[0][1]*w[1][1] + t[0][2]*w[1][2]
		cc := t[1][0]*w[1][0] + t[1][1]*w[1][1] + t[1][2]*w[1][2] + lowPass

		det := ca*cc - cb*cb
		if det < detEpsilon {
			cull(st, i, quantize)
			continue
		}

		invDet := 1.0 / det
		invA := cc * invDet
		invB := -cb * invDet
		invC := ca * invDet

		// 3-sigma bbox from the forward covariance.
		rx := 3 * float32(math.Sqrt(float64(ca)))
		ry := 3 * float32(math.Sqrt(float64(cc)))

		bx0 := sxf - rx
		by0 := syf - ry
		bx1 := sxf + rx
		by1 := syf + ry

		// Entirely offscreen, or NaN anywhere in the chain.
		if bx1 < 0 || by1 < 0 ||
			bx0 >= float32(width) || by0 >= float32(height) ||
			bx0 != bx0 || by0 != by0 {
			cull(st, i, quantize)
			continue
		}

		if bx0 < 0 {
			bx0 = 0
		}
		if by0 < 0 {
			by0 = 0
		}
		if bx1 >= float32(width) {
			bx1 = float32(width - 1)
		}
		if by1 >= float32(height) {
			by1 = float32(height - 1)
		}

		s2.SX = sxf
		s2.SY = syf
		s2.Depth = depth
		s2.InvA = invA
		s2.InvB2 = 2 * invB
		s2.InvC = invC
		s2.RF = float32(s3.R) / 255
		s2.GF = float32(s3.G) / 255
		s2.BF = float32(s3.B) / 255
		s2.Opacity = float32(s3.Alpha) / 255
		s2.X0 = int16(bx0)
		s2.Y0 = int16(by0)
		s2.X1 = int16(bx1)
		s2.Y1 = int16(by1)

		if quantize {
			quantizeSplat(&st.projFixed[i], s2, s3)
		}
	}
}

func cull(st *Store, i int, quantize bool) {
	s2 := &st.proj[i]
	s2.Depth = CulledDepth
	s2.X0, s2.Y0, s2.X1, s2.Y1 = 0, 0, 0, 0
	if quantize {
		f := &st.projFixed[i]
		*f = Splat2DFixed{Depth: CulledDepth}
	}
}

// quantizeSplat converts a projected record to the fixed-point form:
// s14.4 screen position, u2.14 diagonal and s2.14 doubled cross term.
// Coefficients saturate at the format limits; a coefficient that large
// means a sub-pixel footprint already shrunk to nothing by the cutoff.
func quantizeSplat(f *Splat2DFixed, s2 *Splat2D, s3 *Splat3D) {
	invA := s2.InvA
	invC := s2.InvC
	invB2 := s2.InvB2
	if invA > 3.999 {
		invA = 3.999
	}
	if invC > 3.999 {
		invC = 3.999
	}
	if invB2 > 3.999 {
		invB2 = 3.999
	}
	if invB2 < -4.0 {
		invB2 = -4.0
	}

	f.SxFP = int32(s2.SX*16 + 0.5)
	f.SyFP = int32(s2.SY*16 + 0.5)
	f.AFP = uint16(invA*16384 + 0.5)
	f.CFP = uint16(invC*16384 + 0.5)
	f.B2FP = int32(invB2 * 16384)
	f.R = s3.R
	f.G = s3.G
	f.B = s3.B
	f.Opacity = s3.Alpha
	f.X0, f.Y0, f.X1, f.Y1 = s2.X0, s2.Y0, s2.X1, s2.Y1
	f.Depth = s2.Depth
}
