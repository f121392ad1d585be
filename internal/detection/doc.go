// Package detection extracts geometry from binarized gauge frames.
//
// This package implements the two shape-level stages of the gauge reading
// pipeline: boundary tracing, which turns a padded binary buffer into closed
// contours ("blobs"), and Hough line fitting, which recovers the dominant
// straight line through one blob's boundary.
//
// # Contour Tracing
//
// Boundaries are followed with Moore-neighbour tracing. From a seed pixel the
// tracer inspects the eight neighbours clockwise starting at a "clock position";
// the first non-background neighbour becomes the new cursor and the next search
// starts from a position behind the direction just taken. Traced pixels are
// marked Visited in the buffer, so the buffer must be a padded scratch copy.
//
// The scanning driver (FindBlobs) raster-scans the buffer with an armed flag:
// touching an already traced pixel disarms the scan until background is seen
// again, which prevents re-entering a blob that has been discovered.
//
// # Line Fitting
//
// FitLine votes every boundary point into a (distance, angle) accumulator with
// one-degree angular resolution and returns the first cell that reached the
// highest vote count.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner of the unpadded image
//   - X increases rightward (column)
//   - Y increases downward (row)
//
// # Failure Modes
//
// Both stages fail only on contract violations: ErrRunawayTrace when a trace
// exceeds its step budget without returning to the seed, ErrEmptyBlob when a
// line is requested for an empty point set. Neither is transient; callers should
// abandon the frame.
package detection
