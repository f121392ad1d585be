package detection

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ironsheep/gauge-tools-mcp/internal/imaging"
)

// ErrRunawayTrace reports a boundary walk that did not return to its seed
// within the step budget.
var ErrRunawayTrace = errors.New("contour trace did not return to its seed")

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Bounds represents a rectangular bounding box in pixel coordinates.
// Both corners are inclusive.
type Bounds struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Blob is a traced closed boundary.
//
// Points are kept in trace order, which is the clockwise boundary walk starting
// at the seed. The perimeter is the number of recorded points. A Blob is
// immutable: Points returns a copy.
type Blob struct {
	points []Point
}

// newBlob builds a blob from an ordered point sequence. The slice is copied.
func newBlob(points []Point) Blob {
	pts := make([]Point, len(points))
	copy(pts, points)
	return Blob{points: pts}
}

// Points returns a copy of the boundary points in trace order.
func (b Blob) Points() []Point {
	pts := make([]Point, len(b.points))
	copy(pts, b.points)
	return pts
}

// Perimeter returns the number of recorded boundary points.
func (b Blob) Perimeter() int {
	return len(b.points)
}

// Closed reports whether the last point is 8-adjacent to (or equal to) the first.
func (b Blob) Closed() bool {
	if len(b.points) == 0 {
		return false
	}
	first, last := b.points[0], b.points[len(b.points)-1]
	return abs(first.X-last.X) <= 1 && abs(first.Y-last.Y) <= 1
}

// Bounds returns the inclusive bounding box of the boundary points.
func (b Blob) Bounds() Bounds {
	if len(b.points) == 0 {
		return Bounds{}
	}
	bb := Bounds{X1: b.points[0].X, Y1: b.points[0].Y, X2: b.points[0].X, Y2: b.points[0].Y}
	for _, p := range b.points[1:] {
		bb.X1 = min(bb.X1, p.X)
		bb.Y1 = min(bb.Y1, p.Y)
		bb.X2 = max(bb.X2, p.X)
		bb.Y2 = max(bb.Y2, p.Y)
	}
	return bb
}

// clockOffsets lists the eight neighbours clockwise, starting at the upper-left.
var clockOffsets = [8]image.Point{
	{X: -1, Y: -1}, {X: 0, Y: -1}, {X: 1, Y: -1}, {X: 1, Y: 0},
	{X: 1, Y: 1}, {X: 0, Y: 1}, {X: -1, Y: 1}, {X: -1, Y: 0},
}

// nextStart maps the direction just moved to the clock position where the
// following neighbour search begins.
var nextStart = [8]int{6, 0, 0, 2, 2, 4, 4, 6}

// nextClock is the tracer's transition function.
func nextClock(moved int) int {
	return nextStart[moved]
}

// tracer follows boundaries in a padded binary buffer, marking what it visits.
type tracer struct {
	img    *imaging.GrayBuffer
	margin int
	limit  int
}

func newTracer(img *imaging.GrayBuffer, margin int) *tracer {
	return &tracer{
		img:    img,
		margin: margin,
		limit:  4*img.Width*img.Height + 8,
	}
}

// advance searches the neighbourhood of cur clockwise from clock and returns
// the first non-background neighbour and the direction it lies in.
func (t *tracer) advance(cur image.Point, clock int) (image.Point, int, bool) {
	for i := 0; i < 8; i++ {
		dir := (clock + i) % 8
		p := cur.Add(clockOffsets[dir])
		if t.img.At(p.X, p.Y) != imaging.Background {
			return p, dir, true
		}
	}
	return cur, clock, false
}

func (t *tracer) unpad(p image.Point) Point {
	return Point{X: p.X - t.margin, Y: p.Y - t.margin}
}

// trace walks the boundary that contains seed until the cursor returns to it.
func (t *tracer) trace(seed image.Point) (Blob, error) {
	points := []Point{t.unpad(seed)}
	t.img.Set(seed.X, seed.Y, imaging.Visited)

	cur := seed
	clock := 0
	for steps := 0; ; steps++ {
		if steps >= t.limit {
			return Blob{}, fmt.Errorf("%w: seed (%d,%d) after %d steps",
				ErrRunawayTrace, seed.X-t.margin, seed.Y-t.margin, steps)
		}

		next, dir, ok := t.advance(cur, clock)
		if ok {
			cur = next
			if t.img.At(cur.X, cur.Y) == imaging.Foreground {
				points = append(points, t.unpad(cur))
			}
			t.img.Set(cur.X, cur.Y, imaging.Visited)
			clock = nextClock(dir)
		}

		if cur == seed {
			break
		}
	}

	return Blob{points: points}, nil
}

// traceBlob traces the boundary through seed in a padded binary buffer.
//
// The seed is given in padded coordinates and must be a Foreground pixel inside
// the unpadded area. Traced pixels are set to Visited in padded. Returned points
// are in unpadded coordinates.
func traceBlob(padded *imaging.GrayBuffer, margin int, seed image.Point) (Blob, error) {
	if margin < 1 {
		return Blob{}, fmt.Errorf("padding margin must be at least 1, got %d", margin)
	}
	inner := image.Rect(margin, margin, padded.Width-margin, padded.Height-margin)
	if !seed.In(inner) {
		return Blob{}, fmt.Errorf("seed (%d,%d) outside unpadded area %v", seed.X, seed.Y, inner)
	}
	if padded.At(seed.X, seed.Y) != imaging.Foreground {
		return Blob{}, fmt.Errorf("seed (%d,%d) is not a foreground pixel", seed.X, seed.Y)
	}

	return newTracer(padded, margin).trace(seed)
}

// ScanOptions configures FindBlobs.
type ScanOptions struct {
	// Margin is the padding width added around the binary image (at least 1).
	Margin int

	// MinPerimeter and MaxPerimeter bound the perimeter of kept blobs (inclusive).
	MinPerimeter int
	MaxPerimeter int

	// Marks, when non-nil, receives every boundary point of every kept blob in
	// the Highlight colour. It should have the unpadded image's dimensions.
	Marks draw.Image

	// Highlight is the marker colour. Defaults to opaque red.
	Highlight color.Color
}

// FindBlobs locates every closed foreground boundary in a padded binary buffer.
//
// The unpadded area is raster-scanned row by row. An armed flag, initially
// true and carried across row ends, gates tracing: a Foreground pixel seen
// while armed seeds a trace, a Visited pixel disarms the scan, and a Background
// pixel re-arms it. Blobs whose perimeter lies within the bounds are returned
// in discovery order.
//
// padded is modified: every traced pixel becomes Visited.
//
// # Errors
//
//   - Returns error if the margin is below 1 or the perimeter bounds are inverted
//   - Returns ErrRunawayTrace (wrapped) if a trace fails to close
func FindBlobs(padded *imaging.GrayBuffer, opts ScanOptions) ([]Blob, error) {
	if opts.Margin < 1 {
		return nil, fmt.Errorf("padding margin must be at least 1, got %d", opts.Margin)
	}
	if opts.MinPerimeter > opts.MaxPerimeter {
		return nil, fmt.Errorf("invalid perimeter bounds [%d,%d]", opts.MinPerimeter, opts.MaxPerimeter)
	}

	t := newTracer(padded, opts.Margin)
	blobs := make([]Blob, 0)
	armed := true

	for y := opts.Margin; y < padded.Height-opts.Margin; y++ {
		for x := opts.Margin; x < padded.Width-opts.Margin; x++ {
			if armed && padded.At(x, y) == imaging.Foreground {
				blob, err := t.trace(image.Pt(x, y))
				if err != nil {
					return nil, err
				}
				if p := blob.Perimeter(); p >= opts.MinPerimeter && p <= opts.MaxPerimeter {
					blobs = append(blobs, blob)
				}
			}

			if v := padded.At(x, y); v == imaging.Background {
				armed = true
			} else if v != imaging.Foreground {
				armed = false
			}
		}
	}

	if opts.Marks != nil {
		stamp(opts.Marks, blobs, opts.Highlight)
	}

	return blobs, nil
}

// stamp paints the boundary points of blobs onto dst.
func stamp(dst draw.Image, blobs []Blob, c color.Color) {
	if c == nil {
		c = color.RGBA{R: 255, A: 255}
	}
	origin := dst.Bounds().Min
	for _, b := range blobs {
		for _, p := range b.points {
			dst.Set(p.X+origin.X, p.Y+origin.Y, c)
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
