package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ironsheep/gauge-tools-mcp/internal/config"
	"github.com/ironsheep/gauge-tools-mcp/internal/detection"
	"github.com/ironsheep/gauge-tools-mcp/internal/imaging"
	"github.com/ironsheep/gauge-tools-mcp/internal/report"
	"github.com/ironsheep/gauge-tools-mcp/internal/speed"
)

// Frame is one decoded video frame and its 1-based position in the stream.
type Frame struct {
	Index int
	Image image.Image
}

// Analysis is the outcome of the per-frame stages that do not depend on
// previous frames.
type Analysis struct {
	// Threshold is the Otsu cutoff chosen for the region.
	Threshold int

	// Blobs are the boundaries whose perimeter passed the filter, in scan order.
	Blobs []detection.Blob

	// Selected is the index into Blobs of the blob the line was fitted to, or -1.
	Selected int

	// Line is the fitted needle line, valid when Selected >= 0.
	Line detection.Line

	// Boundaries has the region's size and shows kept blob boundaries in the
	// highlight colour on black.
	Boundaries *image.RGBA
}

// HasLine reports whether a blob qualified and a line was fitted.
func (a *Analysis) HasLine() bool {
	return a.Selected >= 0
}

// Reading is a frame's analysis plus its speed.
type Reading struct {
	Frame    int
	Elapsed  float64
	Analysis *Analysis
	Speed    float64
}

// HasSpeed reports whether the frame produced a speed.
func (r *Reading) HasSpeed() bool {
	return r.Analysis.HasLine()
}

// Record converts the reading into a persisted record.
func (r *Reading) Record() report.Record {
	return report.Record{Frame: r.Frame, Speed: r.Speed, Time: r.Elapsed}
}

// Analyzer runs the stateless stages of the pipeline.
type Analyzer struct {
	cfg       *config.Config
	highlight color.RGBA
}

// NewAnalyzer validates cfg and builds an Analyzer.
func NewAnalyzer(cfg *config.Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	highlight, err := imaging.ParseHighlight(cfg.Highlight)
	if err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg, highlight: highlight}, nil
}

// Config returns the configuration the Analyzer was built with.
func (a *Analyzer) Config() *config.Config {
	return a.cfg
}

// Segment crops the region of interest and binarizes it, returning the binary
// buffer and the Otsu threshold.
func (a *Analyzer) Segment(img image.Image) (*imaging.GrayBuffer, int, error) {
	region, err := imaging.CropRegion(img, a.cfg.Region)
	if err != nil {
		return nil, 0, err
	}
	bin, threshold := imaging.ThresholdImage(imaging.FromImage(region))
	return bin, threshold, nil
}

// Analyze runs segmentation, contour tracing and line fitting on one frame.
//
// The last blob kept by the perimeter filter is the needle. When no blob
// qualifies the analysis has no line and Selected is -1.
func (a *Analyzer) Analyze(img image.Image) (*Analysis, error) {
	bin, threshold, err := a.Segment(img)
	if err != nil {
		return nil, err
	}

	padded, err := imaging.Pad(bin, a.cfg.Margin)
	if err != nil {
		return nil, err
	}

	boundaries := imaging.NewCanvas(nil, bin.Width, bin.Height)
	blobs, err := detection.FindBlobs(padded, detection.ScanOptions{
		Margin:       a.cfg.Margin,
		MinPerimeter: a.cfg.MinPerimeter,
		MaxPerimeter: a.cfg.MaxPerimeter,
		Marks:        boundaries,
		Highlight:    a.highlight,
	})
	if err != nil {
		return nil, fmt.Errorf("contour tracing failed: %w", err)
	}

	result := &Analysis{
		Threshold:  threshold,
		Blobs:      blobs,
		Selected:   -1,
		Boundaries: boundaries,
	}
	if len(blobs) == 0 {
		return result, nil
	}

	selected := len(blobs) - 1
	line, err := detection.FitLine(blobs[selected].Points())
	if err != nil {
		return nil, fmt.Errorf("line fit failed: %w", err)
	}
	result.Selected = selected
	result.Line = line

	return result, nil
}

// Read analyzes a frame and, when a line was found, maps its angle to a speed
// with m. Frames without a line leave m untouched.
func (a *Analyzer) Read(frame Frame, m *speed.Mapper) (*Reading, error) {
	analysis, err := a.Analyze(frame.Image)
	if err != nil {
		return nil, fmt.Errorf("frame %d: %w", frame.Index, err)
	}

	reading := &Reading{
		Frame:    frame.Index,
		Elapsed:  float64(frame.Index) / a.cfg.FPS,
		Analysis: analysis,
	}
	if analysis.HasLine() {
		reading.Speed = m.Speed(analysis.Line.Angle)
	}
	return reading, nil
}

// Annotate returns a copy of the full frame with the fitted line drawn in the
// highlight colour, positioned at the region's offset.
func (a *Analyzer) Annotate(img image.Image, analysis *Analysis) *image.RGBA {
	canvas := imaging.NewCanvas(img, 0, 0)
	if analysis == nil || !analysis.HasLine() {
		return canvas
	}

	var offset image.Point
	if !a.cfg.Region.Empty() {
		offset = a.cfg.Region.Min.Sub(img.Bounds().Min)
	}
	imaging.DrawPolarLine(canvas, analysis.Line.Distance, analysis.Line.Angle, offset, a.highlight)
	return canvas
}

// AnnotateRegion returns a copy of the analysis' boundary image with the fitted
// line drawn over it.
func (a *Analyzer) AnnotateRegion(analysis *Analysis) *image.RGBA {
	canvas := imaging.NewCanvas(analysis.Boundaries, 0, 0)
	if analysis.HasLine() {
		imaging.DrawPolarLine(canvas, analysis.Line.Distance, analysis.Line.Angle, image.Point{}, a.highlight)
	}
	return canvas
}

// IsFrameFailure reports whether err is a per-frame contract violation after
// which processing can continue with the next frame.
func IsFrameFailure(err error) bool {
	return errors.Is(err, detection.ErrRunawayTrace) || errors.Is(err, detection.ErrEmptyBlob)
}
