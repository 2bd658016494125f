// Package correlate assigns a position to arbitrary timestamps by
// interpolating a track.Series.
package correlate

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"geotrack/internal/geo"
	"geotrack/internal/track"
)

// ErrEmptySeries is fatal for a whole correlation call.
var ErrEmptySeries = track.ErrEmptySeries

// ErrOutOfRange matches every *OutOfRangeError.
var ErrOutOfRange = errors.New("correlate: timestamp outside series bounds")

// OutOfRangeError is a per-target failure under the Reject policy.
type OutOfRangeError struct {
	Target time.Time
	Start  time.Time
	End    time.Time
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("correlate: timestamp %s outside series [%s, %s]",
		e.Target.Format(time.RFC3339Nano), e.Start.Format(time.RFC3339Nano), e.End.Format(time.RFC3339Nano))
}

func (e *OutOfRangeError) Is(target error) bool { return target == ErrOutOfRange }

// Policy decides what happens to targets outside the series.
type Policy int

const (
	// Clamp uses the nearest endpoint unchanged.
	Clamp Policy = iota
	// Reject reports an OutOfRangeError for the target.
	Reject
)

func (p Policy) String() string {
	switch p {
	case Clamp:
		return "clamp"
	case Reject:
		return "reject"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts "clamp" or "reject" (case-insensitive); empty means Clamp.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp":
		return Clamp, nil
	case "reject":
		return Reject, nil
	default:
		return Clamp, fmt.Errorf("unknown out-of-range policy %q", s)
	}
}

type Options struct {
	Policy Policy

	// DeriveHeading fills heading from the bearing between the bracketing
	// points when the series carries none.
	DeriveHeading bool
}

// Fix is the outcome for one target timestamp.
type Fix struct {
	// Target is the requested timestamp, before any series-start shift.
	Target time.Time
	// Lookup is the timestamp actually searched for.
	Lookup time.Time

	Point geo.Point
	Err   error

	Interpolated bool
	Clamped      bool
}

func (f Fix) OK() bool { return f.Err == nil }

// Correlator is stateless and safe for concurrent use.
type Correlator struct {
	opts Options
}

func New(opts Options) *Correlator {
	return &Correlator{opts: opts}
}

// Correlate returns one Fix per target, in target order.
//
// When the series asks for start-time anchoring, every target is shifted by
// (earliest target - series start) before lookup.
func (c *Correlator) Correlate(s *track.Series, targets []time.Time) ([]Fix, error) {
	if s.Len() == 0 {
		return nil, ErrEmptySeries
	}

	var shift time.Duration
	if s.UseSeriesStartTime() && len(targets) > 0 {
		first := targets[0]
		for _, t := range targets[1:] {
			if t.Before(first) {
				first = t
			}
		}
		shift = first.Sub(s.Start())
	}

	out := make([]Fix, len(targets))
	for i, t := range targets {
		out[i] = c.lookup(s, t, t.Add(-shift))
	}
	return out, nil
}

// At resolves a single timestamp without any start-time shift.
func (c *Correlator) At(s *track.Series, t time.Time) (Fix, error) {
	if s.Len() == 0 {
		return Fix{}, ErrEmptySeries
	}
	return c.lookup(s, t, t), nil
}

func (c *Correlator) lookup(s *track.Series, target, t time.Time) Fix {
	fix := Fix{Target: target, Lookup: t.UTC()}
	n := s.Len()
	first, last := s.At(0), s.At(n-1)

	if t.Before(first.Time) || t.After(last.Time) {
		if c.opts.Policy == Reject {
			fix.Err = &OutOfRangeError{Target: fix.Lookup, Start: first.Time, End: last.Time}
			return fix
		}
		fix.Clamped = true
		if t.Before(first.Time) {
			fix.Point = c.endpoint(s, 0)
		} else {
			fix.Point = c.endpoint(s, n-1)
		}
		return fix
	}

	idx := s.Search(t)
	next := s.At(idx)
	if next.Time.Equal(t) {
		fix.Point = c.withDerivedHeading(s, idx, next)
		return fix
	}

	prev := s.At(idx - 1)
	fix.Point = interpolate(prev, next, t, c.opts.DeriveHeading)
	fix.Interpolated = true
	return fix
}

// endpoint returns the i-th point, deriving heading from its neighbour when asked.
func (c *Correlator) endpoint(s *track.Series, i int) geo.Point {
	return c.withDerivedHeading(s, i, s.At(i))
}

func (c *Correlator) withDerivedHeading(s *track.Series, i int, p geo.Point) geo.Point {
	if !c.opts.DeriveHeading || p.HasHeading() || s.Len() < 2 {
		return p
	}
	var h float64
	if i+1 < s.Len() {
		h = geo.Bearing(p, s.At(i+1))
	} else {
		h = geo.Bearing(s.At(i-1), p)
	}
	return p.WithHeading(&h)
}

func interpolate(prev, next geo.Point, t time.Time, deriveHeading bool) geo.Point {
	span := next.Time.Sub(prev.Time).Seconds()
	f := t.Sub(prev.Time).Seconds() / span

	out := geo.Point{
		Time: t.UTC(),
		Lat:  geo.Lerp(prev.Lat, next.Lat, f),
		Lon:  geo.InterpolateLon(prev.Lon, next.Lon, f),
	}
	if prev.HasAlt() && next.HasAlt() {
		out.Alt = geo.Float(geo.Lerp(*prev.Alt, *next.Alt, f))
	}
	switch {
	case prev.HasHeading() && next.HasHeading():
		out.Heading = geo.Float(geo.InterpolateHeading(*prev.Heading, *next.Heading, f))
	case deriveHeading:
		out.Heading = geo.Float(geo.Bearing(prev, next))
	}
	return out
}
