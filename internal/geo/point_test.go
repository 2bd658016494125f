package geo

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestNewPoint_Validation(t *testing.T) {
	ts := time.Date(2019, 11, 18, 15, 41, 12, 0, time.UTC)
	cases := []struct {
		name string
		t    time.Time
		lat  float64
		lon  float64
		want error
	}{
		{name: "OK", t: ts, lat: 42.02, lon: -129.29},
		{name: "ZeroTime", t: time.Time{}, lat: 1, lon: 1, want: ErrInvalidTime},
		{name: "LatHigh", t: ts, lat: 90.0001, lon: 0, want: ErrInvalidLatitude},
		{name: "LatNaN", t: ts, lat: math.NaN(), lon: 0, want: ErrInvalidLatitude},
		{name: "LonLow", t: ts, lat: 0, lon: -180.5, want: ErrInvalidLongitude},
		{name: "LonInf", t: ts, lat: 0, lon: math.Inf(1), want: ErrInvalidLongitude},
		{name: "Edges", t: ts, lat: -90, lon: 180},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewPoint(tc.t, tc.lat, tc.lon, nil, nil)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected err: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err=%v want %v", err, tc.want)
			}
		})
	}
}

func TestNewPoint_NormalizesTimeAndHeading(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	p, err := NewPoint(time.Date(2020, 1, 1, 13, 0, 0, 0, loc), 1, 2, Float(10), Float(-10))
	if err != nil {
		t.Fatalf("NewPoint: %v", err)
	}
	if p.Time.Location() != time.UTC || p.Time.Hour() != 12 {
		t.Fatalf("time=%s want 12:00 UTC", p.Time)
	}
	if !p.HasHeading() || *p.Heading != 350 {
		t.Fatalf("heading=%v want 350", p.Heading)
	}
}

func TestPoint_CopiesDoNotShareOptionalFields(t *testing.T) {
	alt := 100.0
	p, err := NewPoint(time.Unix(10, 0), 1, 2, &alt, nil)
	if err != nil {
		t.Fatalf("NewPoint: %v", err)
	}
	alt = 5
	if *p.Alt != 100 {
		t.Fatalf("alt changed through caller pointer: %v", *p.Alt)
	}

	q := p.WithTime(time.Unix(20, 0))
	*q.Alt = 1
	if *p.Alt != 100 {
		t.Fatalf("alt changed through copy: %v", *p.Alt)
	}
	if q.Unix() != 20 {
		t.Fatalf("unix=%v want 20", q.Unix())
	}
	if p.WithAlt(nil).HasAlt() {
		t.Fatalf("expected altitude cleared")
	}
}

func TestInterpolateHeading_WrapsShortestArc(t *testing.T) {
	cases := []struct {
		a, b, f, want float64
	}{
		{350, 10, 0.5, 0},
		{10, 350, 0.5, 0},
		{0, 90, 0.5, 45},
		{270, 100, 0.5, 185},
		{355, 5, 0.25, 357.5},
		{180, 180, 0.7, 180},
	}
	for _, tc := range cases {
		got := InterpolateHeading(tc.a, tc.b, tc.f)
		if math.Abs(HeadingDelta(got, tc.want)) > 1e-9 {
			t.Fatalf("InterpolateHeading(%v,%v,%v)=%v want %v", tc.a, tc.b, tc.f, got, tc.want)
		}
	}
}

func TestNormalizeHeading(t *testing.T) {
	for in, want := range map[float64]float64{0: 0, 360: 0, 720.5: 0.5, -90: 270, 359.9: 359.9} {
		if got := NormalizeHeading(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("NormalizeHeading(%v)=%v want %v", in, got, want)
		}
	}
}

func TestBearingAndDistance(t *testing.T) {
	a := Point{Lat: 0, Lon: 0}
	east := Point{Lat: 0, Lon: 1}
	north := Point{Lat: 1, Lon: 0}

	if got := Bearing(a, east); math.Abs(got-90) > 1e-9 {
		t.Fatalf("bearing east=%v", got)
	}
	if got := Bearing(a, north); math.Abs(got) > 1e-9 {
		t.Fatalf("bearing north=%v", got)
	}
	// One degree of latitude is roughly 111.2 km.
	if d := DistanceM(a, north); d < 111000 || d > 111400 {
		t.Fatalf("distance=%v", d)
	}
}

func TestInterpolateLon_Antimeridian(t *testing.T) {
	if got := InterpolateLon(179, -179, 0.5); math.Abs(math.Abs(got)-180) > 1e-9 {
		t.Fatalf("got %v want +-180", got)
	}
	if got := InterpolateLon(179, -179, 0.75); math.Abs(got-(-179.5)) > 1e-9 {
		t.Fatalf("got %v want -179.5", got)
	}
	if got := InterpolateLon(0, 10, 0.5); got != 5 {
		t.Fatalf("got %v want 5", got)
	}
}
