// Package geom holds the integer geometry shared by the renderer and the
// variant preparer: aspect-preserving box fits, nearest-neighbor sampling
// and quarter-turn coordinate remapping.
package geom

// Placement is a fitted rectangle inside a box.
type Placement struct {
	W, H int // output size
	X, Y int // offset of the top-left corner inside the box
}

// FitDimensions returns the output size of a (srcW x srcH) image fitted into
// a (boxW x boxH) box with its aspect ratio preserved.
//
// When allowUpscale is false and the source already fits, the source size is
// returned unchanged. Otherwise one dimension is clamped to the box and the
// other derived by integer division, never below 1 and never above the box.
func FitDimensions(srcW, srcH, boxW, boxH int, allowUpscale bool) (int, int) {
	if srcW <= 0 || srcH <= 0 || boxW <= 0 || boxH <= 0 {
		return 0, 0
	}
	if !allowUpscale && srcW <= boxW && srcH <= boxH {
		return srcW, srcH
	}

	var w, h int
	if int64(srcW)*int64(boxH) >= int64(srcH)*int64(boxW) {
		w = boxW
		h = int(int64(srcH) * int64(boxW) / int64(srcW))
	} else {
		h = boxH
		w = int(int64(srcW) * int64(boxH) / int64(srcH))
	}
	return clampDim(w, boxW), clampDim(h, boxH)
}

// Fit is FitDimensions plus the centered offset.
func Fit(srcW, srcH, boxW, boxH int, allowUpscale bool) Placement {
	w, h := FitDimensions(srcW, srcH, boxW, boxH, allowUpscale)
	return Placement{W: w, H: h, X: (boxW - w) / 2, Y: (boxH - h) / 2}
}

// SampleIndex maps an output index to its nearest-neighbor source index.
func SampleIndex(out, srcDim, outDim int) int {
	if outDim <= 0 {
		return 0
	}
	return int(int64(out) * int64(srcDim) / int64(outDim))
}

func clampDim(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}
