package detection

import (
	"errors"
	"math"
)

// AngleBuckets is the number of one-degree angle buckets, covering 0° to 180°.
const AngleBuckets = 181

// ErrEmptyBlob is returned when a line is requested for an empty point set.
var ErrEmptyBlob = errors.New("cannot fit a line to an empty point set")

// Line is a straight line in polar form: x·cos(Angle) + y·sin(Angle) = Distance.
type Line struct {
	// Distance is the signed offset of the line from the origin, in pixels.
	Distance float64 `json:"distance"`

	// Angle of the line normal in radians, within [0, π].
	Angle float64 `json:"angle"`

	// Degrees is the winning angle bucket.
	Degrees int `json:"degrees"`

	// Votes is the number of points that voted for the line.
	Votes int `json:"votes"`
}

var cosTable, sinTable = func() (c, s [AngleBuckets]float64) {
	for d := 0; d < AngleBuckets; d++ {
		theta := float64(d) * math.Pi / 180
		c[d] = math.Cos(theta)
		s[d] = math.Sin(theta)
	}
	return c, s
}()

// FitLine returns the most-voted line through points using a Hough transform.
//
// # Algorithm
//
//  1. diagonal = 1 + the largest truncated distance of any point from the origin;
//     it offsets signed distances into non-negative accumulator rows.
//  2. The accumulator has 2·diagonal rows and one column per integer degree
//     0..180, all starting at zero.
//  3. Each point votes once per angle for r = trunc(x·cos θ + y·sin θ).
//  4. The first cell whose count strictly exceeds every count seen before it wins,
//     so ties resolve to the cell that reached the maximum first.
//
// # Errors
//
// Returns ErrEmptyBlob if points is empty.
func FitLine(points []Point) (Line, error) {
	if len(points) == 0 {
		return Line{}, ErrEmptyBlob
	}

	diagonal := 0
	for _, p := range points {
		d := int(math.Sqrt(float64(p.X*p.X+p.Y*p.Y))) + 1
		if d > diagonal {
			diagonal = d
		}
	}

	accumulator := make([][]int, 2*diagonal)
	for i := range accumulator {
		accumulator[i] = make([]int, AngleBuckets)
	}

	bestRow, bestDeg, bestVotes := 0, 0, 0
	for _, p := range points {
		x, y := float64(p.X), float64(p.Y)
		for d := 0; d < AngleBuckets; d++ {
			r := int(x*cosTable[d] + y*sinTable[d])
			row := r + diagonal

			accumulator[row][d]++
			if accumulator[row][d] > bestVotes {
				bestRow, bestDeg, bestVotes = row, d, accumulator[row][d]
			}
		}
	}

	return Line{
		Distance: float64(bestRow - diagonal),
		Angle:    float64(bestDeg) * math.Pi / 180,
		Degrees:  bestDeg,
		Votes:    bestVotes,
	}, nil
}
