package report

import (
	"errors"
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotSpeed renders speed against elapsed time and saves it to path. The
// format follows the file extension (png, svg, pdf, ...).
func PlotSpeed(records []Record, path string) error {
	if len(records) == 0 {
		return errors.New("no readings to plot")
	}

	p := plot.New()
	p.Title.Text = "Speed"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Speed"

	pts := make(plotter.XYs, 0, len(records))
	for _, r := range records {
		pts = append(pts, plotter.XY{X: r.Time, Y: r.Speed})
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("failed to build speed line: %w", err)
	}
	line.Width = vg.Points(1)
	p.Add(line, plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot: %w", err)
	}
	return nil
}
