package geo

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrInvalidTime      = errors.New("point time is zero")
	ErrInvalidLatitude  = errors.New("latitude out of range")
	ErrInvalidLongitude = errors.New("longitude out of range")
)

// Point is a single timestamped position.
//
// Points are values: every method returns a copy, and Alt/Heading pointers are
// never shared with the caller that built the point.
type Point struct {
	Time time.Time
	Lat  float64
	Lon  float64

	// Alt is meters above mean sea level, nil when unknown.
	Alt *float64
	// Heading is degrees clockwise from true north in [0,360), nil when unknown.
	Heading *float64
}

// NewPoint validates and normalizes a position.
//
// Time is converted to UTC and heading is wrapped into [0,360).
func NewPoint(t time.Time, lat, lon float64, alt, heading *float64) (Point, error) {
	if t.IsZero() {
		return Point{}, ErrInvalidTime
	}
	if math.IsNaN(lat) || math.IsInf(lat, 0) || lat < -90 || lat > 90 {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidLatitude, lat)
	}
	if math.IsNaN(lon) || math.IsInf(lon, 0) || lon < -180 || lon > 180 {
		return Point{}, fmt.Errorf("%w: %v", ErrInvalidLongitude, lon)
	}
	p := Point{Time: t.UTC(), Lat: lat, Lon: lon}
	if alt != nil && !math.IsNaN(*alt) && !math.IsInf(*alt, 0) {
		p.Alt = Float(*alt)
	}
	if heading != nil && !math.IsNaN(*heading) && !math.IsInf(*heading, 0) {
		p.Heading = Float(NormalizeHeading(*heading))
	}
	return p, nil
}

// Float returns a pointer to a copy of v.
func Float(v float64) *float64 {
	return &v
}

func (p Point) HasAlt() bool     { return p.Alt != nil }
func (p Point) HasHeading() bool { return p.Heading != nil }

// Unix returns the timestamp as fractional seconds since the epoch.
func (p Point) Unix() float64 {
	return float64(p.Time.UnixNano()) / 1e9
}

// Before orders points by timestamp.
func (p Point) Before(o Point) bool {
	return p.Time.Before(o.Time)
}

// WithTime returns a copy of p at t.
func (p Point) WithTime(t time.Time) Point {
	out := p.clone()
	out.Time = t.UTC()
	return out
}

// WithAlt returns a copy of p with altitude replaced.
func (p Point) WithAlt(alt *float64) Point {
	out := p.clone()
	out.Alt = nil
	if alt != nil {
		out.Alt = Float(*alt)
	}
	return out
}

// WithHeading returns a copy of p with heading replaced.
func (p Point) WithHeading(heading *float64) Point {
	out := p.clone()
	out.Heading = nil
	if heading != nil {
		out.Heading = Float(NormalizeHeading(*heading))
	}
	return out
}

func (p Point) clone() Point {
	out := p
	if p.Alt != nil {
		out.Alt = Float(*p.Alt)
	}
	if p.Heading != nil {
		out.Heading = Float(*p.Heading)
	}
	return out
}

func (p Point) String() string {
	s := fmt.Sprintf("%s lat=%.7f lon=%.7f", p.Time.Format(time.RFC3339Nano), p.Lat, p.Lon)
	if p.Alt != nil {
		s += fmt.Sprintf(" alt=%.2f", *p.Alt)
	}
	if p.Heading != nil {
		s += fmt.Sprintf(" hdg=%.1f", *p.Heading)
	}
	return s
}
