package report

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)

	require.NoError(t, w.Add(Record{Frame: 1, Speed: 42.5, Time: 0.5}))
	require.NoError(t, w.Add(Record{Frame: 2, Speed: 0, Time: 1}))
	require.NoError(t, w.Flush())

	want := "speed,time\n42.5,0.5\n0,1\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Errorf("csv output mismatch (-want +got):\n%s", diff)
	}
}

func TestCSVWriter_EmptyWritesHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.Flush())
	require.Equal(t, "speed,time\n", buf.String())
}

func TestCSVWriter_HeaderOnce(t *testing.T) {
	var buf bytes.Buffer
	w := NewCSVWriter(&buf)
	require.NoError(t, w.Add(Record{Speed: 1, Time: 1}))
	require.NoError(t, w.Flush())
	require.NoError(t, w.Flush())
	require.Equal(t, "speed,time\n1,1\n", buf.String())
}

func TestCollector(t *testing.T) {
	var c Collector
	recs := []Record{{Frame: 1, Speed: 10, Time: 1}, {Frame: 3, Speed: 20, Time: 3}}
	for _, r := range recs {
		require.NoError(t, c.Add(r))
	}
	if diff := cmp.Diff(recs, c.Records); diff != "" {
		t.Errorf("collected records mismatch (-want +got):\n%s", diff)
	}
}

type failingAdder struct{ calls int }

func (f *failingAdder) Add(Record) error {
	f.calls++
	return errors.New("disk full")
}

func TestTee(t *testing.T) {
	var a, b Collector
	tee := Tee{&a, &b}
	require.NoError(t, tee.Add(Record{Frame: 1, Speed: 5}))
	require.Len(t, a.Records, 1)
	require.Len(t, b.Records, 1)
}

func TestTee_StopsOnError(t *testing.T) {
	var after Collector
	fail := &failingAdder{}
	tee := Tee{fail, &after}

	require.Error(t, tee.Add(Record{Frame: 1}))
	require.Equal(t, 1, fail.calls)
	require.Empty(t, after.Records)
}

func TestSummarize(t *testing.T) {
	recs := []Record{
		{Frame: 1, Speed: 10, Time: 1},
		{Frame: 2, Speed: 20, Time: 2},
		{Frame: 3, Speed: 30, Time: 3},
	}
	s := Summarize(recs)

	require.Equal(t, 3, s.Count)
	require.InDelta(t, 20.0, s.Mean, 1e-9)
	require.InDelta(t, 10.0, s.StdDev, 1e-9)
	require.Equal(t, 30.0, s.Max)
	require.Equal(t, 10.0, s.Min)
	require.InDelta(t, 2.0, s.Duration, 1e-9)
}

func TestSummarize_Single(t *testing.T) {
	s := Summarize([]Record{{Frame: 4, Speed: 55, Time: 2}})
	want := Summary{Count: 1, Mean: 55, Max: 55, Min: 55}
	if diff := cmp.Diff(want, s); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestSummarize_Empty(t *testing.T) {
	require.Equal(t, Summary{}, Summarize(nil))
}

func TestPlotSpeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed.png")
	recs := []Record{
		{Frame: 1, Speed: 0, Time: 1.0 / 30},
		{Frame: 2, Speed: 14, Time: 2.0 / 30},
		{Frame: 3, Speed: 28, Time: 3.0 / 30},
	}
	require.NoError(t, PlotSpeed(recs, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestPlotSpeed_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "speed.png")
	require.Error(t, PlotSpeed(nil, path))
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestRenderChart(t *testing.T) {
	var buf bytes.Buffer
	recs := []Record{
		{Frame: 1, Speed: 42, Time: 1.0 / 30},
		{Frame: 2, Speed: 168, Time: 2.0 / 30},
	}
	require.NoError(t, RenderChart(recs, "Run 1", &buf))

	html := buf.String()
	require.Contains(t, html, "<html")
	require.Contains(t, html, "Run 1")
	require.Contains(t, html, "0.07")
}

func TestRenderChart_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, RenderChart(nil, "empty", &buf))
	require.Zero(t, buf.Len())
}
