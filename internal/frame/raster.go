package frame

import "fmt"

// BytesPerPixel is the size of one RGBA pixel on the encoder wire.
const BytesPerPixel = 4

// Raster is a raw RGBA pixel buffer, row-major, no stride padding.
type Raster struct {
	Pix    []byte
	Width  int
	Height int
}

func NewRaster(width, height int) *Raster {
	return &Raster{
		Pix:    make([]byte, width*height*BytesPerPixel),
		Width:  width,
		Height: height,
	}
}

// Size returns the exact byte length one frame occupies on the pipe.
func (r *Raster) Size() int {
	return r.Width * r.Height * BytesPerPixel
}

// Geometry is a fixed output resolution. Both dimensions must be even
// before frames are fed to a chroma-subsampled encoder.
type Geometry struct {
	Width  int
	Height int
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

// EvenUp rounds both dimensions up to the nearest even value.
func (g Geometry) EvenUp() Geometry {
	if g.Width%2 != 0 {
		g.Width++
	}
	if g.Height%2 != 0 {
		g.Height++
	}
	return g
}

// EvenDown rounds both dimensions down to the nearest even value.
func (g Geometry) EvenDown() Geometry {
	g.Width -= g.Width % 2
	g.Height -= g.Height % 2
	return g
}

func (g Geometry) Matches(r *Raster) bool {
	return r != nil && r.Width == g.Width && r.Height == g.Height
}
