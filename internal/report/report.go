// Package report persists and summarizes speed readings.
//
// Readings are written as CSV rows of speed and elapsed time, collected in
// memory for summaries, stored per run in SQLite, and plotted as a static or
// interactive speed-over-time chart.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// Record is one speed reading.
type Record struct {
	Frame int     `json:"frame"`
	Speed float64 `json:"speed"`
	Time  float64 `json:"time"`
}

// CSVWriter writes records as "speed,time" rows.
//
// The header is written before the first record. Call Flush when done.
type CSVWriter struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSVWriter creates a CSVWriter writing to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: csv.NewWriter(w)}
}

// Add writes one record.
func (c *CSVWriter) Add(rec Record) error {
	if !c.wroteHeader {
		if err := c.w.Write([]string{"speed", "time"}); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
		c.wroteHeader = true
	}

	row := []string{
		strconv.FormatFloat(rec.Speed, 'f', -1, 64),
		strconv.FormatFloat(rec.Time, 'f', -1, 64),
	}
	if err := c.w.Write(row); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

// Flush writes the header if nothing was recorded and flushes buffered rows.
func (c *CSVWriter) Flush() error {
	if !c.wroteHeader {
		if err := c.w.Write([]string{"speed", "time"}); err != nil {
			return fmt.Errorf("failed to write csv header: %w", err)
		}
		c.wroteHeader = true
	}
	c.w.Flush()
	return c.w.Error()
}

// Collector keeps records in memory.
type Collector struct {
	Records []Record
}

// Add appends rec.
func (c *Collector) Add(rec Record) error {
	c.Records = append(c.Records, rec)
	return nil
}

// Adder is anything that accepts records.
type Adder interface {
	Add(rec Record) error
}

// Tee forwards every record to each of its targets in order.
type Tee []Adder

// Add forwards rec, stopping at the first error.
func (t Tee) Add(rec Record) error {
	for _, a := range t {
		if err := a.Add(rec); err != nil {
			return err
		}
	}
	return nil
}
