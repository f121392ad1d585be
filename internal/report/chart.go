package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// RenderChart writes an interactive HTML line chart of speed against elapsed
// time to w.
func RenderChart(records []Record, title string, w io.Writer) error {
	if len(records) == 0 {
		return errors.New("no readings to chart")
	}

	xs := make([]string, 0, len(records))
	ys := make([]opts.LineData, 0, len(records))
	for _, r := range records {
		xs = append(xs, strconv.FormatFloat(r.Time, 'f', 2, 64))
		ys = append(ys, opts.LineData{Value: r.Speed})
	}

	s := Summarize(records)
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("readings=%d mean=%.1f max=%.1f", s.Count, s.Mean, s.Max),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed", NameLocation: "middle", NameGap: 35}),
	)
	line.SetXAxis(xs).AddSeries("speed", ys)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}
