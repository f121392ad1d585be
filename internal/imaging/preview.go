package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MinGridSpacing is the smallest grid spacing RegionPreview draws; smaller
// positive spacings are raised to it.
const MinGridSpacing = 10

var (
	labelForeground = color.RGBA{255, 255, 255, 255}
	labelBackground = color.RGBA{0, 0, 0, 180}
)

// RegionPreview returns a copy of a full frame with a labelled coordinate grid
// and the outline of region, for choosing the region of interest.
//
// Grid lines are drawn every spacing pixels, at least MinGridSpacing apart;
// spacing <= 0 disables the grid.
// An empty region outlines the whole frame.
func RegionPreview(img image.Image, region image.Rectangle, spacing int, c color.Color) *image.RGBA {
	canvas := NewCanvas(img, 0, 0)
	bounds := canvas.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if spacing > 0 {
		spacing = max(spacing, MinGridSpacing)
		grid := color.NRGBAModel.Convert(c).(color.NRGBA)
		grid.A = 128
		for x := spacing; x < width; x += spacing {
			for y := 0; y < height; y++ {
				blend(canvas, x, y, grid)
			}
		}
		for y := spacing; y < height; y += spacing {
			for x := 0; x < width; x++ {
				blend(canvas, x, y, grid)
			}
		}
		for y := spacing; y < height; y += spacing {
			for x := spacing; x < width; x += spacing {
				drawLabel(canvas, x+2, y+2, fmt.Sprintf("%d,%d", x, y), labelForeground, labelBackground)
			}
		}
	}

	// Region coordinates are relative to the source frame's origin.
	r := region.Sub(img.Bounds().Min)
	if region.Empty() {
		r = bounds
	}
	outline(canvas, r, c)

	return canvas
}

// blend composites c over the pixel at (x, y).
func blend(dst *image.RGBA, x, y int, c color.Color) {
	cell := image.Rect(x, y, x+1, y+1)
	draw.Draw(dst, cell, image.NewUniform(c), image.Point{}, draw.Over)
}

// outline draws the inner border of r.
func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	for x := r.Min.X; x < r.Max.X; x++ {
		dst.Set(x, r.Min.Y, c)
		dst.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		dst.Set(r.Min.X, y, c)
		dst.Set(r.Max.X-1, y, c)
	}
}

// drawLabel draws text on a filled box with its top-left corner at (x, y).
func drawLabel(dst *image.RGBA, x, y int, text string, fg, bg color.RGBA) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(fg),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}

	box := image.Rect(x-1, y-1, x+d.MeasureString(text).Ceil()+1, y+face.Height)
	draw.Draw(dst, box.Intersect(dst.Bounds()), image.NewUniform(bg), image.Point{}, draw.Over)
	d.DrawString(text)
}
