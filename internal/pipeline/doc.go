// Package pipeline turns frames into speed readings.
//
// An Analyzer runs the per-frame stages: region crop, grayscale conversion, Otsu
// binarization, padding, contour tracing, blob selection and line fitting. Speed
// mapping is kept separate because it carries hysteresis between frames; Read
// takes the speed.Mapper explicitly and Run feeds frames to it in source order.
//
// # Frame Failures
//
// Contract violations inside a frame (a runaway contour trace, an empty blob)
// abandon that frame only; Run logs them and moves on. Source and sink errors
// abort the run.
package pipeline
