// Package physics provides lane geometry and overlap tests for the catch field.
package physics

// LaneCenters splits width into equal bands and returns each band's center.
func LaneCenters(width float64, lanes int) []float64 {
	if lanes <= 0 {
		return nil
	}
	band := width / float64(lanes)
	centers := make([]float64, lanes)
	for i := range centers {
		centers[i] = (float64(i) + 0.5) * band
	}
	return centers
}

// LaneAt returns the band index containing x, clamped to [0, lanes).
func LaneAt(x, width float64, lanes int) int {
	if lanes <= 0 || width <= 0 {
		return 0
	}
	lane := int(x / (width / float64(lanes)))
	return ClampLane(lane, lanes)
}

// ClampLane keeps lane within [0, lanes).
func ClampLane(lane, lanes int) int {
	if lane < 0 {
		return 0
	}
	if lane >= lanes {
		return lanes - 1
	}
	return lane
}

// SpansOverlap reports whether [aTop, aTop+aSize) and [bTop, bTop+bSize) intersect.
func SpansOverlap(aTop, aSize, bTop, bSize float64) bool {
	return aTop < bTop+bSize && aTop+aSize > bTop
}

// Below reports whether a span starting at top has fallen past limit.
func Below(top, limit float64) bool {
	return top > limit
}
