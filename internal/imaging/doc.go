// Package imaging provides the pixel-level stages of the gauge reading pipeline.
//
// This package converts decoded frames into single-channel intensity buffers and
// implements the segmentation steps that precede contour tracing: histogram
// construction, Otsu threshold selection, binarization and border padding. It
// also renders annotated copies of a frame and coordinate-grid previews used to
// choose the region of interest.
//
// # Coordinate System
//
// All pixel coordinates in this package are 0-based:
//   - X: horizontal position (0 = leftmost pixel, the buffer column)
//   - Y: vertical position (0 = topmost pixel, the buffer row)
//   - GrayBuffer stores samples row-major, so sample (x, y) is Pix[y*Width+x]
//
// # Reserved Intensities
//
// Binarized buffers use three meaningful values:
//   - Background (0): pixels at or below the threshold
//   - Visited (128): foreground pixels already claimed by a contour trace
//   - Foreground (255): pixels above the threshold not yet traced
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. GrayBuffer is a plain value
// container; the contour tracer mutates it in place, so callers must not share a
// padded buffer between goroutines.
//
// # Error Handling
//
// Histogram and threshold functions never fail. A histogram whose mass sits in a
// single bin (or an empty histogram) yields threshold 0. Functions that take
// geometry (crop regions, padding margins) return errors for invalid inputs.
package imaging
