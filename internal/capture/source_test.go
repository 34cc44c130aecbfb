package capture

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alexkarpovich/multiscreencap/internal/frame"
)

func TestFromImagePackedStride(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Pix[0] = 77

	r := fromImage(img)
	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 3, r.Height)
	assert.Len(t, r.Pix, 4*3*frame.BytesPerPixel)
	assert.Equal(t, byte(77), r.Pix[0])
}

func TestFromImagePaddedStride(t *testing.T) {
	// Subimages keep the parent stride, so rows are wider than the
	// visible region and must be repacked.
	parent := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range parent.Pix {
		parent.Pix[i] = byte(i % 251)
	}
	sub := parent.SubImage(image.Rect(2, 1, 6, 3)).(*image.RGBA)

	r := fromImage(sub)
	assert.Equal(t, 4, r.Width)
	assert.Equal(t, 2, r.Height)
	assert.Len(t, r.Pix, 4*2*frame.BytesPerPixel)

	// First pixel of the raster must equal pixel (2,1) of the parent.
	off := parent.PixOffset(2, 1)
	assert.Equal(t, parent.Pix[off:off+4], r.Pix[0:4])
}
