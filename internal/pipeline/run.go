package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/ironsheep/gauge-tools-mcp/internal/report"
	"github.com/ironsheep/gauge-tools-mcp/internal/speed"
)

// Sink receives one record per frame that produced a speed.
type Sink interface {
	Add(rec report.Record) error
}

// FrameHook, when set on RunOptions, is called for every analyzed frame,
// including frames without a reading.
type FrameHook func(frame Frame, reading *Reading) error

// RunOptions configures Run.
type RunOptions struct {
	// Sink receives the readings. Required.
	Sink Sink

	// OnFrame is called after each successfully analyzed frame.
	OnFrame FrameHook
}

// Stats summarizes a run.
type Stats struct {
	Frames   int `json:"frames"`
	Readings int `json:"readings"`
	Skipped  int `json:"skipped"`
}

// Run processes every frame of src in order, mapping angles with m.
//
// Frames that fail with a contract violation are logged and skipped. Any other
// error, including context cancellation, stops the run and is returned together
// with the statistics gathered so far.
func Run(ctx context.Context, src FrameSource, a *Analyzer, m *speed.Mapper, opts RunOptions) (Stats, error) {
	var stats Stats
	if opts.Sink == nil {
		return stats, errors.New("run requires a sink")
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			return stats, err
		}
		stats.Frames++

		reading, err := a.Read(frame, m)
		if err != nil {
			if IsFrameFailure(err) {
				log.Printf("Skipping frame: %v", err)
				stats.Skipped++
				continue
			}
			return stats, err
		}

		if a.cfg.Debug {
			log.Printf("frame %d: threshold=%d blobs=%d line=%v speed=%.2f",
				frame.Index, reading.Analysis.Threshold, len(reading.Analysis.Blobs),
				reading.Analysis.HasLine(), reading.Speed)
		}

		if reading.HasSpeed() {
			if err := opts.Sink.Add(reading.Record()); err != nil {
				return stats, fmt.Errorf("failed to record frame %d: %w", frame.Index, err)
			}
			stats.Readings++
		}

		if opts.OnFrame != nil {
			if err := opts.OnFrame(frame, reading); err != nil {
				return stats, err
			}
		}
	}
}
