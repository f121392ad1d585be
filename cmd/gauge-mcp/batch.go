package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/ironsheep/gauge-tools-mcp/internal/config"
	"github.com/ironsheep/gauge-tools-mcp/internal/imaging"
	"github.com/ironsheep/gauge-tools-mcp/internal/pipeline"
	"github.com/ironsheep/gauge-tools-mcp/internal/report"
	"github.com/ironsheep/gauge-tools-mcp/internal/speed"
)

// batchResult is printed as JSON when a batch run completes.
type batchResult struct {
	Stats   pipeline.Stats `json:"stats"`
	Summary report.Summary `json:"summary"`
	CSV     string         `json:"csv"`
	Plot    string         `json:"plot,omitempty"`
	HTML    string         `json:"html,omitempty"`
	DB      string         `json:"db,omitempty"`
	RunID   string         `json:"run_id,omitempty"`
}

// runBatch processes a directory of frames in name order and writes the
// readings as CSV, with an optional plot and annotated frames.
func runBatch(args []string, stdout io.Writer) error {
	defaults := config.Default()
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	framesDir := fs.String("frames", "", "directory of frame images (required)")
	csvPath := fs.String("csv", "", "output CSV of speed,time readings (required)")
	plotPath := fs.String("plot", "", "optional speed-over-time plot (png, svg or pdf)")
	annotateDir := fs.String("annotate", "", "optional directory for frames with the fitted needle drawn")
	htmlPath := fs.String("html", "", "optional interactive HTML chart of the readings")
	dbPath := fs.String("db", "", "optional SQLite database the readings are appended to")
	region := fs.String("region", "", "gauge region as x,y,w,h or 'full' (overrides "+config.EnvRegion+")")
	minPerimeter := fs.Int("min-perimeter", defaults.MinPerimeter, "smallest accepted blob perimeter (overrides "+config.EnvMinPerimeter+")")
	maxPerimeter := fs.Int("max-perimeter", defaults.MaxPerimeter, "largest accepted blob perimeter (overrides "+config.EnvMaxPerimeter+")")
	fps := fs.Float64("fps", defaults.FPS, "frame rate used for elapsed time (overrides "+config.EnvFPS+")")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *framesDir == "" || *csvPath == "" {
		fs.Usage()
		return errors.New("-frames and -csv are required")
	}

	// Flags given on the command line replace their environment variables.
	overrides := map[string]string{
		"region":        config.EnvRegion,
		"min-perimeter": config.EnvMinPerimeter,
		"max-perimeter": config.EnvMaxPerimeter,
		"fps":           config.EnvFPS,
	}
	var skip []string
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		if env, ok := overrides[f.Name]; ok {
			skip = append(skip, env)
			set[f.Name] = true
		}
	})

	cfg, err := config.LoadWith(skip, func(cfg *config.Config) error {
		if set["region"] {
			r, err := config.ParseRegion(*region)
			if err != nil {
				return err
			}
			cfg.Region = r
		}
		if set["min-perimeter"] {
			cfg.MinPerimeter = *minPerimeter
		}
		if set["max-perimeter"] {
			cfg.MaxPerimeter = *maxPerimeter
		}
		if set["fps"] {
			cfg.FPS = *fps
		}
		return nil
	})
	if err != nil {
		return err
	}

	analyzer, err := pipeline.NewAnalyzer(cfg)
	if err != nil {
		return err
	}

	src, err := pipeline.NewDirectorySource(*framesDir)
	if err != nil {
		return err
	}
	log.Printf("Processing %d frames from %s", src.Len(), *framesDir)

	if *annotateDir != "" {
		if err := os.MkdirAll(*annotateDir, 0o755); err != nil {
			return fmt.Errorf("failed to create annotation directory: %w", err)
		}
	}

	out, err := os.Create(*csvPath)
	if err != nil {
		return fmt.Errorf("failed to create csv: %w", err)
	}
	defer out.Close()

	csvw := report.NewCSVWriter(out)
	var collected report.Collector
	sinks := report.Tee{csvw, &collected}

	var store *report.Store
	if *dbPath != "" {
		store, err = report.OpenStore(*dbPath, uuid.NewString())
		if err != nil {
			return err
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	opts := pipeline.RunOptions{Sink: sinks}
	if *annotateDir != "" {
		opts.OnFrame = func(frame pipeline.Frame, reading *pipeline.Reading) error {
			name := filepath.Base(src.Path(frame.Index))
			name = name[:len(name)-len(filepath.Ext(name))] + ".png"
			return imaging.SavePNG(filepath.Join(*annotateDir, name), analyzer.Annotate(frame.Image, reading.Analysis))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, runErr := pipeline.Run(ctx, src, analyzer, speed.NewMapper(cfg.Calibration), opts)
	if err := csvw.Flush(); err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close csv: %w", err)
	}
	if runErr != nil {
		return fmt.Errorf("stopped after %d frames: %w", stats.Frames, runErr)
	}

	result := batchResult{
		Stats:   stats,
		Summary: report.Summarize(collected.Records),
		CSV:     *csvPath,
	}
	if store != nil {
		result.DB = *dbPath
		result.RunID = store.RunID()
	}
	if len(collected.Records) == 0 && (*plotPath != "" || *htmlPath != "") {
		log.Printf("No readings, skipping charts")
	} else {
		if *plotPath != "" {
			if err := report.PlotSpeed(collected.Records, *plotPath); err != nil {
				return err
			}
			result.Plot = *plotPath
		}
		if *htmlPath != "" {
			if err := writeChart(*htmlPath, *framesDir, collected.Records); err != nil {
				return err
			}
			result.HTML = *htmlPath
		}
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func writeChart(path, title string, records []report.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart: %w", err)
	}
	defer f.Close()

	if err := report.RenderChart(records, title, f); err != nil {
		return err
	}
	return f.Close()
}
