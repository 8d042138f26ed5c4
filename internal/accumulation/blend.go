package accumulation

// blendAlpha maps a contour distance to the frame color's share of the
// blend. Points near the seam (large contour distance is deep inside
// the overlap) take more of the incoming frame's color. Clamped so a
// probe/merge float discrepancy can never push a channel outside the
// two inputs.
func blendAlpha(maxContourDist, distToContour float64) float64 {
	alpha := (maxContourDist - distToContour) / maxContourDist
	if alpha < 0 {
		return 0
	}
	if alpha > 1 {
		return 1
	}
	return alpha
}

// blendColor mixes the accumulated and frame colors per channel:
// out = (1-alpha)*acc + alpha*frame.
func blendColor(accR, accG, accB, frameR, frameG, frameB uint8, alpha float64) (uint8, uint8, uint8) {
	mix := func(a, f uint8) uint8 {
		return uint8((1-alpha)*float64(a) + alpha*float64(f))
	}
	return mix(accR, frameR), mix(accG, frameG), mix(accB, frameB)
}
