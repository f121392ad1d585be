package imaging

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseHighlight parses a "#RRGGBB" colour used to mark traced boundaries.
func ParseHighlight(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid highlight colour %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// NewCanvas returns an RGBA copy of img anchored at (0,0), or an opaque black
// canvas of the given size when img is nil.
func NewCanvas(img image.Image, width, height int) *image.RGBA {
	if img == nil {
		canvas := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)
		return canvas
	}

	bounds := img.Bounds()
	canvas := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), img, bounds.Min, draw.Src)
	return canvas
}

// DrawPolarLine draws the line x·cos(θ) + y·sin(θ) = rho across dst.
//
// The line is given in region coordinates; offset translates it into dst, so a
// line fitted inside a cropped region can be drawn on the full frame. Pixels
// outside dst are skipped.
func DrawPolarLine(dst draw.Image, rho, theta float64, offset image.Point, c color.Color) {
	bounds := dst.Bounds()
	reach := math.Hypot(float64(bounds.Dx()), float64(bounds.Dy())) + math.Abs(rho)

	cosT, sinT := math.Cos(theta), math.Sin(theta)
	x0 := rho*cosT + float64(offset.X)
	y0 := rho*sinT + float64(offset.Y)

	x1 := int(math.Round(x0 - reach*sinT))
	y1 := int(math.Round(y0 + reach*cosT))
	x2 := int(math.Round(x0 + reach*sinT))
	y2 := int(math.Round(y0 - reach*cosT))

	drawSegment(dst, x1, y1, x2, y2, c)
}

// drawSegment rasterizes a segment with Bresenham's algorithm.
func drawSegment(dst draw.Image, x1, y1, x2, y2 int, c color.Color) {
	bounds := dst.Bounds()
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}

	e := dx + dy
	for {
		if (image.Point{X: x1, Y: y1}).In(bounds) {
			dst.Set(x1, y1, c)
		}
		if x1 == x2 && y1 == y2 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x1 += sx
		}
		if e2 <= dx {
			e += dx
			y1 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
