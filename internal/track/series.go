package track

import (
	"sort"
	"time"

	"geotrack/internal/geo"
)

// Series is a strictly time-ordered, read-only point sequence.
//
// A Series is safe for concurrent readers once built.
type Series struct {
	points             []geo.Point
	useSeriesStartTime bool
	dropped            int
	merged             int
}

// NewSeries builds a series from points with default options.
func NewSeries(points []geo.Point, useSeriesStartTime bool) (*Series, error) {
	samples := make([]RawSample, 0, len(points))
	for _, p := range points {
		samples = append(samples, SampleFromPoint(p))
	}
	return NewBuilder(Options{UseSeriesStartTime: useSeriesStartTime}).Build(samples)
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// At returns a copy of the i-th point.
func (s *Series) At(i int) geo.Point {
	return s.points[i].WithTime(s.points[i].Time)
}

// Points returns a copy of all points.
func (s *Series) Points() []geo.Point {
	if s == nil {
		return nil
	}
	out := make([]geo.Point, len(s.points))
	for i := range s.points {
		out[i] = s.At(i)
	}
	return out
}

// Start returns the first timestamp; zero for an empty series.
func (s *Series) Start() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.points[0].Time
}

// End returns the last timestamp; zero for an empty series.
func (s *Series) End() time.Time {
	if s.Len() == 0 {
		return time.Time{}
	}
	return s.points[len(s.points)-1].Time
}

func (s *Series) Duration() time.Duration {
	return s.End().Sub(s.Start())
}

func (s *Series) UseSeriesStartTime() bool {
	return s != nil && s.useSeriesStartTime
}

// Dropped is the number of invalid samples discarded while building.
func (s *Series) Dropped() int {
	if s == nil {
		return 0
	}
	return s.dropped
}

// Merged is the number of duplicate-timestamp samples folded into a neighbour.
func (s *Series) Merged() int {
	if s == nil {
		return 0
	}
	return s.merged
}

// LengthM sums the great-circle distance between consecutive points.
func (s *Series) LengthM() float64 {
	total := 0.0
	for i := 1; i < s.Len(); i++ {
		total += geo.DistanceM(s.points[i-1], s.points[i])
	}
	return total
}

// Search returns the index of the first point at or after t, or Len() when
// every point is before t.
func (s *Series) Search(t time.Time) int {
	return sort.Search(s.Len(), func(i int) bool {
		return !s.points[i].Time.Before(t)
	})
}
