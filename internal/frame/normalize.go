package frame

// Normalize resizes src to the target geometry using nearest-neighbor
// sampling. A source that already matches the target is returned as-is
// without copying. A degenerate source (zero width or height) yields an
// all-zero buffer of the target size.
func Normalize(src *Raster, target Geometry) *Raster {
	if target.Matches(src) {
		return src
	}
	if target.Width <= 0 || target.Height <= 0 {
		return &Raster{}
	}

	dst := NewRaster(target.Width, target.Height)
	if src == nil || src.Width <= 0 || src.Height <= 0 {
		return dst
	}

	xRatio := float64(src.Width) / float64(target.Width)
	yRatio := float64(src.Height) / float64(target.Height)

	for y := 0; y < target.Height; y++ {
		sy := int(float64(y) * yRatio)
		if sy > src.Height-1 {
			sy = src.Height - 1
		}
		dstRow := y * target.Width * BytesPerPixel
		srcRow := sy * src.Width * BytesPerPixel
		for x := 0; x < target.Width; x++ {
			sx := int(float64(x) * xRatio)
			if sx > src.Width-1 {
				sx = src.Width - 1
			}
			si := srcRow + sx*BytesPerPixel
			di := dstRow + x*BytesPerPixel
			copy(dst.Pix[di:di+BytesPerPixel], src.Pix[si:si+BytesPerPixel])
		}
	}
	return dst
}
