package geom

// NormalizeRotation reduces deg to one of 0, 90, 180, 270. Values that are
// not a multiple of 90 normalize to 0.
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	switch deg {
	case 0, 90, 180, 270:
		return deg
	}
	return 0
}

// ValidRotation reports whether deg is exactly one of 0, 90, 180, 270.
func ValidRotation(deg int) bool {
	switch deg {
	case 0, 90, 180, 270:
		return true
	}
	return false
}

// Delta is the rotation that takes content stored at orientation src to a
// canvas at orientation dst: (dst - src) mod 360.
func Delta(src, dst int) int {
	return NormalizeRotation(dst - src)
}

// RotatedSize returns the size of a (w x h) image viewed after delta. Deltas
// other than 0, 90, 180 and 270 are treated as 0.
func RotatedSize(w, h, delta int) (int, int) {
	switch delta {
	case 90, 270:
		return h, w
	}
	return w, h
}

// RotateCoords maps a coordinate in the rotated view back to the source
// image of size (srcW x srcH). The result may fall outside the source when
// the view coordinate does; callers skip such pixels. Deltas other than 0,
// 90, 180 and 270 map to the identity; use Delta to reduce a difference of
// rotations first.
func RotateCoords(x, y, delta, srcW, srcH int) (int, int) {
	switch delta {
	case 90:
		return y, srcH - 1 - x
	case 180:
		return srcW - 1 - x, srcH - 1 - y
	case 270:
		return srcW - 1 - y, x
	}
	return x, y
}

// InBounds reports whether (x, y) lies inside a (w x h) image.
func InBounds(x, y, w, h int) bool {
	return x >= 0 && y >= 0 && x < w && y < h
}
