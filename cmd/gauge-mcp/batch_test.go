package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/gauge-tools-mcp/internal/config"
	"github.com/ironsheep/gauge-tools-mcp/internal/imaging"
	"github.com/ironsheep/gauge-tools-mcp/internal/report"
)

func writeFrame(t *testing.T, path string, needle image.Rectangle) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 20, 30))
	for y := needle.Min.Y; y < needle.Max.Y; y++ {
		for x := needle.Min.X; x < needle.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	require.NoError(t, imaging.SavePNG(path, img))
}

func TestRunBatch(t *testing.T) {
	frames := t.TempDir()
	writeFrame(t, filepath.Join(frames, "0001.png"), image.Rect(0, 14, 20, 16))
	writeFrame(t, filepath.Join(frames, "0002.png"), image.Rect(8, 3, 10, 27))
	writeFrame(t, filepath.Join(frames, "0003.png"), image.Rectangle{})

	out := t.TempDir()
	csvPath := filepath.Join(out, "speed.csv")
	plotPath := filepath.Join(out, "speed.png")
	annotated := filepath.Join(out, "annotated")
	htmlPath := filepath.Join(out, "speed.html")
	dbPath := filepath.Join(out, "readings.db")

	var stdout bytes.Buffer
	err := runBatch([]string{
		"-frames", frames,
		"-csv", csvPath,
		"-plot", plotPath,
		"-annotate", annotated,
		"-html", htmlPath,
		"-db", dbPath,
		"-region", "full",
		"-min-perimeter", "10",
		"-max-perimeter", "200",
	}, &stdout)
	require.NoError(t, err)

	var result batchResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	require.Equal(t, 3, result.Stats.Frames)
	require.Equal(t, 2, result.Stats.Readings)
	require.Equal(t, 2, result.Summary.Count)
	require.InDelta(t, 168.0, result.Summary.Max, 1e-9)

	data, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "speed,time", lines[0])

	_, err = os.Stat(plotPath)
	require.NoError(t, err)

	entries, err := os.ReadDir(annotated)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	html, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	require.Contains(t, string(html), "<html")

	store, err := report.OpenStore(dbPath, "reader")
	require.NoError(t, err)
	defer store.Close()
	stored, err := store.Records(result.RunID)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.Equal(t, []int{1, 2}, []int{stored[0].Frame, stored[1].Frame})
}

func TestRunBatch_RequiredFlags(t *testing.T) {
	var stdout bytes.Buffer
	require.Error(t, runBatch([]string{"-frames", t.TempDir()}, &stdout))
}

func TestRunBatch_BadRegion(t *testing.T) {
	var stdout bytes.Buffer
	err := runBatch([]string{
		"-frames", t.TempDir(),
		"-csv", filepath.Join(t.TempDir(), "out.csv"),
		"-region", "1,2,3",
	}, &stdout)
	require.Error(t, err)
}

func TestRunBatch_HelpIgnoresEnvironment(t *testing.T) {
	t.Setenv(config.EnvMinPerimeter, "bogus")

	var stdout bytes.Buffer
	err := runBatch([]string{"-h"}, &stdout)
	require.True(t, errors.Is(err, flag.ErrHelp), "got %v", err)
}

func TestRunBatch_FlagOverridesMalformedEnvironment(t *testing.T) {
	t.Setenv(config.EnvMinPerimeter, "bogus")
	t.Setenv(config.EnvRegion, "not,a,region")

	frames := t.TempDir()
	writeFrame(t, filepath.Join(frames, "0001.png"), image.Rect(0, 14, 20, 16))
	csvPath := filepath.Join(t.TempDir(), "speed.csv")

	var stdout bytes.Buffer
	err := runBatch([]string{
		"-frames", frames,
		"-csv", csvPath,
		"-region", "full",
		"-min-perimeter", "10",
		"-max-perimeter", "200",
	}, &stdout)
	require.NoError(t, err)

	var result batchResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &result))
	require.Equal(t, 1, result.Summary.Count)
	require.InDelta(t, 42.0, result.Summary.Mean, 1e-9)
}

func TestRunBatch_MalformedEnvironment(t *testing.T) {
	t.Setenv(config.EnvMinPerimeter, "bogus")

	var stdout bytes.Buffer
	err := runBatch([]string{
		"-frames", t.TempDir(),
		"-csv", filepath.Join(t.TempDir(), "out.csv"),
	}, &stdout)
	require.ErrorContains(t, err, config.EnvMinPerimeter)
}
