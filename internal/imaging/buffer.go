package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Reserved intensity values of a binarized buffer.
const (
	Background uint8 = 0
	Visited    uint8 = 128
	Foreground uint8 = 255
)

// GrayBuffer is a single-channel image with one byte per pixel, stored row-major.
//
// Unlike image.Gray, a GrayBuffer always starts at (0,0) and has no stride: the
// sample at (x, y) lives at Pix[y*Width+x].
type GrayBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrayBuffer allocates a buffer of the given size with every sample set to
// Background.
func NewGrayBuffer(width, height int) *GrayBuffer {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &GrayBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height),
	}
}

// At returns the sample at (x, y). The coordinates must be inside the buffer.
func (b *GrayBuffer) At(x, y int) uint8 {
	return b.Pix[y*b.Width+x]
}

// Set stores v at (x, y). The coordinates must be inside the buffer.
func (b *GrayBuffer) Set(x, y int, v uint8) {
	b.Pix[y*b.Width+x] = v
}

// FromImage converts any image to a GrayBuffer.
//
// Luminance is computed by imaging.Grayscale (ITU-R BT.601 weights), which returns
// an NRGBA image whose three colour channels carry the same value; the red channel
// is copied into the buffer. The result is anchored at (0,0) regardless of the
// source bounds.
func FromImage(img image.Image) *GrayBuffer {
	gray := imaging.Grayscale(img)
	bounds := gray.Bounds()
	buf := NewGrayBuffer(bounds.Dx(), bounds.Dy())

	for y := 0; y < buf.Height; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < buf.Width; x++ {
			buf.Pix[y*buf.Width+x] = row[x*4]
		}
	}
	return buf
}

// ToImage wraps a copy of the buffer in an *image.Gray for encoding or drawing.
func (b *GrayBuffer) ToImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	copy(img.Pix, b.Pix)
	return img
}

// Binarize returns a new buffer where samples strictly above threshold become
// Foreground and all others Background.
func Binarize(src *GrayBuffer, threshold int) *GrayBuffer {
	dst := NewGrayBuffer(src.Width, src.Height)
	for i, v := range src.Pix {
		if int(v) > threshold {
			dst.Pix[i] = Foreground
		}
	}
	return dst
}
