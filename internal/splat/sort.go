package splat

// Sort produces the back-to-front traversal permutation: two-pass stable
// LSD counting sort on a 16-bit quantized depth key.
//
// Keys are inverted (65535 - q) so that a stable ascending sort yields
// non-increasing depth. Culled splats are treated explicitly: they take
// the largest key, 0xFFFF, which an ascending sort places at the far end
// of the permutation, and visible splats clamp to 0xFFFE so the nearest
// one can never collide with the sentinels. Consumers rely on this and
// stop walking at the first sentinel. Ties keep input order as a direct
// consequence of counting-sort stability.
func Sort(st *Store) {
	n := len(st.splats)
	if n == 0 {
		return
	}

	proj := st.proj
	order := st.order
	keys := st.sortKeys
	tmp := st.sortTmp

	// Depth range over visible splats only.
	dmin := float32(1e30)
	dmax := float32(0)
	for i := 0; i < n; i++ {
		d := proj[i].Depth
		if d < culledThreshold {
			if d < dmin {
				dmin = d
			}
			if d > dmax {
				dmax = d
			}
		}
	}

	rng := dmax - dmin
	if rng < 1e-6 {
		rng = 1.0
	}
	scale := 65535.0 / rng

	for i := 0; i < n; i++ {
		order[i] = uint32(i)
		d := proj[i].Depth
		if d >= culledThreshold {
			keys[i] = 0xFFFF
		} else {
			k := 65535 - uint16((d-dmin)*scale)
			// 0xFFFF is reserved for sentinels; the nearest visible
			// splat (q = 0) would otherwise interleave with them.
			if k == 0xFFFF {
				k = 0xFFFE
			}
			keys[i] = k
		}
	}

	var count [256]uint32
	var offset [256]uint32

	// Pass 1: low byte.
	for i := 0; i < n; i++ {
		count[keys[i]&0xFF]++
	}
	offset[0] = 0
	for i := 1; i < 256; i++ {
		offset[i] = offset[i-1] + count[i-1]
	}
	for i := 0; i < n; i++ {
		k := keys[order[i]] & 0xFF
		tmp[offset[k]] = order[i]
		offset[k]++
	}

	// Pass 2: high byte.
	count = [256]uint32{}
	for i := 0; i < n; i++ {
		count[keys[tmp[i]]>>8]++
	}
	offset[0] = 0
	for i := 1; i < 256; i++ {
		offset[i] = offset[i-1] + count[i-1]
	}
	for i := 0; i < n; i++ {
		k := keys[tmp[i]] >> 8
		order[offset[k]] = tmp[i]
		offset[k]++
	}
}
