package track

import (
	"errors"
	"log"
	"math"
	"sort"
	"time"

	"geotrack/internal/geo"
)

// ErrEmptySeries is returned when no usable point remains.
var ErrEmptySeries = errors.New("track: empty point series")

// RawSample is one producer-specific position before validation.
type RawSample struct {
	Time    time.Time
	Lat     float64
	Lon     float64
	Alt     *float64
	Heading *float64
}

// SampleFromPoint lifts an already-built point back into raw form.
func SampleFromPoint(p geo.Point) RawSample {
	return RawSample{Time: p.Time, Lat: p.Lat, Lon: p.Lon, Alt: p.Alt, Heading: p.Heading}
}

// Options controls series construction.
type Options struct {
	// Offset shifts every raw timestamp before sorting (sensor clock skew).
	Offset time.Duration

	// UseSeriesStartTime is stored on the series for the correlator; the
	// builder itself does not act on it.
	UseSeriesStartTime bool

	// Logf receives per-sample warnings. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

// OffsetFromSeconds converts a fractional-second offset into a duration.
func OffsetFromSeconds(sec float64) time.Duration {
	return time.Duration(math.Round(sec * float64(time.Second)))
}

// Builder turns raw samples into a canonical Series.
type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if opts.Logf == nil {
		opts.Logf = log.Printf
	}
	return &Builder{opts: opts}
}

// Build validates, offsets, sorts and merges samples.
//
// Invalid samples are dropped. Samples that share a timestamp after the offset
// is applied collapse into the first one seen; its missing altitude or heading
// is filled from the later duplicates.
func (b *Builder) Build(samples []RawSample) (*Series, error) {
	points := make([]geo.Point, 0, len(samples))
	dropped := 0
	for i, s := range samples {
		t := s.Time
		if !t.IsZero() {
			t = t.Add(b.opts.Offset)
		}
		p, err := geo.NewPoint(t, s.Lat, s.Lon, s.Alt, s.Heading)
		if err != nil {
			dropped++
			b.opts.Logf("track: drop sample index=%d err=%v", i, err)
			continue
		}
		points = append(points, p)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Before(points[j])
	})

	merged := 0
	out := points[:0]
	for _, p := range points {
		if n := len(out); n > 0 && out[n-1].Time.Equal(p.Time) {
			out[n-1] = mergeDuplicate(out[n-1], p)
			merged++
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, ErrEmptySeries
	}
	if dropped > 0 || merged > 0 {
		b.opts.Logf("track: built series points=%d dropped=%d merged=%d", len(out), dropped, merged)
	}
	return &Series{
		points:             out,
		useSeriesStartTime: b.opts.UseSeriesStartTime,
		dropped:            dropped,
		merged:             merged,
	}, nil
}

func mergeDuplicate(keep, dup geo.Point) geo.Point {
	if !keep.HasAlt() && dup.HasAlt() {
		keep = keep.WithAlt(dup.Alt)
	}
	if !keep.HasHeading() && dup.HasHeading() {
		keep = keep.WithHeading(dup.Heading)
	}
	return keep
}
