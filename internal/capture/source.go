package capture

import (
	"image"

	"github.com/kbinani/screenshot"

	"github.com/alexkarpovich/multiscreencap/internal/frame"
	"github.com/alexkarpovich/multiscreencap/internal/window"
)

// Source produces single RGBA frames of one window. A miss (window
// closed, capture refused by the platform) returns false and is never
// an error; callers reuse their previous frame.
type Source interface {
	Capture() (*frame.Raster, bool)
}

// WindowSource captures the screen region currently occupied by a
// window. Each call resolves the window's bounds fresh, so the source
// follows the window when it moves or resizes.
type WindowSource struct {
	id uint64
}

func NewWindowSource(id uint64) *WindowSource {
	return &WindowSource{id: id}
}

func (s *WindowSource) Capture() (*frame.Raster, bool) {
	bounds, ok := window.Bounds(s.id)
	if !ok {
		return nil, false
	}

	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, false
	}
	return fromImage(img), true
}

// fromImage flattens an *image.RGBA into a packed raster. screenshot
// usually returns stride == 4*width, in which case the pixel slice is
// reused without copying.
func fromImage(img *image.RGBA) *frame.Raster {
	w := img.Rect.Dx()
	h := img.Rect.Dy()

	if img.Stride == w*frame.BytesPerPixel {
		return &frame.Raster{Pix: img.Pix, Width: w, Height: h}
	}

	r := frame.NewRaster(w, h)
	rowLen := w * frame.BytesPerPixel
	for y := 0; y < h; y++ {
		copy(r.Pix[y*rowLen:(y+1)*rowLen], img.Pix[y*img.Stride:y*img.Stride+rowLen])
	}
	return r
}
