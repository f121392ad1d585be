package report

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the speed readings of a run.
type Summary struct {
	Count    int     `json:"count"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Max      float64 `json:"max"`
	Min      float64 `json:"min"`
	Duration float64 `json:"duration"`
}

// Summarize computes speed statistics over records. An empty input yields a
// zero Summary.
func Summarize(records []Record) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	speeds := make([]float64, len(records))
	times := make([]float64, len(records))
	for i, r := range records {
		speeds[i] = r.Speed
		times[i] = r.Time
	}

	s := Summary{
		Count:    len(records),
		Mean:     stat.Mean(speeds, nil),
		Max:      floats.Max(speeds),
		Min:      floats.Min(speeds),
		Duration: floats.Max(times) - floats.Min(times),
	}
	if len(speeds) > 1 {
		s.StdDev = stat.StdDev(speeds, nil)
	}
	return s
}
