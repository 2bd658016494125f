package track

import (
	"errors"
	"math"
	"testing"
	"time"

	"geotrack/internal/geo"
)

var t0 = time.Date(2019, 11, 18, 15, 41, 12, 0, time.UTC)

func quietOptions(opts Options) Options {
	opts.Logf = func(string, ...any) {}
	return opts
}

func sample(sec float64, lat, lon float64) RawSample {
	return RawSample{Time: t0.Add(OffsetFromSeconds(sec)), Lat: lat, Lon: lon}
}

func TestBuild_SortsAndAppliesOffset(t *testing.T) {
	b := NewBuilder(quietOptions(Options{Offset: -2 * time.Second}))
	s, err := b.Build([]RawSample{
		sample(10, 3, 3),
		sample(0, 1, 1),
		sample(5, 2, 2),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("len=%d want 3", s.Len())
	}
	if !s.Start().Equal(t0.Add(-2 * time.Second)) {
		t.Fatalf("start=%s", s.Start())
	}
	if !s.End().Equal(t0.Add(8 * time.Second)) {
		t.Fatalf("end=%s", s.End())
	}
	for i := 1; i < s.Len(); i++ {
		if !s.At(i - 1).Before(s.At(i)) {
			t.Fatalf("not strictly ordered at %d", i)
		}
	}
	if s.At(1).Lat != 2 {
		t.Fatalf("middle lat=%v want 2", s.At(1).Lat)
	}
}

func TestBuild_FractionalOffset(t *testing.T) {
	b := NewBuilder(quietOptions(Options{Offset: OffsetFromSeconds(0.5)}))
	s, err := b.Build([]RawSample{sample(1, 1, 1), sample(0.75, 2, 2)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.At(0).Lat != 2 || !s.Start().Equal(t0.Add(1250*time.Millisecond)) {
		t.Fatalf("unexpected first point %s", s.At(0))
	}
}

func TestBuild_DropsInvalidSamples(t *testing.T) {
	b := NewBuilder(quietOptions(Options{}))
	s, err := b.Build([]RawSample{
		sample(0, 1, 1),
		sample(1, 91, 1),
		sample(2, 1, math.NaN()),
		{Lat: 1, Lon: 1},
		sample(3, 2, 2),
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Len() != 2 || s.Dropped() != 3 {
		t.Fatalf("len=%d dropped=%d want 2/3", s.Len(), s.Dropped())
	}
}

func TestBuild_MergesDuplicateTimestamps(t *testing.T) {
	first := sample(1, 1, 1)
	dup := sample(1, 9, 9)
	dup.Alt = geo.Float(120)
	dup.Heading = geo.Float(45)

	s, err := NewBuilder(quietOptions(Options{})).Build([]RawSample{sample(0, 0, 0), first, dup})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Len() != 2 || s.Merged() != 1 {
		t.Fatalf("len=%d merged=%d want 2/1", s.Len(), s.Merged())
	}
	p := s.At(1)
	if p.Lat != 1 || p.Lon != 1 {
		t.Fatalf("expected first encountered position to win, got %s", p)
	}
	if !p.HasAlt() || *p.Alt != 120 || !p.HasHeading() || *p.Heading != 45 {
		t.Fatalf("expected alt/heading filled from duplicate, got %s", p)
	}
}

func TestBuild_EmptyIsError(t *testing.T) {
	b := NewBuilder(quietOptions(Options{}))
	for name, in := range map[string][]RawSample{
		"Nil":         nil,
		"AllInvalid":  {sample(0, 100, 0)},
		"ZeroTimeOne": {{Lat: 1, Lon: 1}},
	} {
		if _, err := b.Build(in); !errors.Is(err, ErrEmptySeries) {
			t.Fatalf("%s: err=%v want ErrEmptySeries", name, err)
		}
	}
}

func TestBuild_StoresStartTimeFlag(t *testing.T) {
	s, err := NewBuilder(quietOptions(Options{UseSeriesStartTime: true})).Build([]RawSample{sample(0, 1, 1)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !s.UseSeriesStartTime() {
		t.Fatalf("expected flag stored on series")
	}
	// The builder must not shift anything because of the flag.
	if !s.Start().Equal(t0) {
		t.Fatalf("start=%s want %s", s.Start(), t0)
	}
}

func TestSeries_SearchAndCopies(t *testing.T) {
	s, err := NewSeries([]geo.Point{
		{Time: t0, Lat: 0, Lon: 0},
		{Time: t0.Add(10 * time.Second), Lat: 0, Lon: 1, Alt: geo.Float(5)},
	}, false)
	if err != nil {
		t.Fatalf("NewSeries: %v", err)
	}
	if got := s.Search(t0.Add(-time.Second)); got != 0 {
		t.Fatalf("search before=%d", got)
	}
	if got := s.Search(t0.Add(5 * time.Second)); got != 1 {
		t.Fatalf("search mid=%d", got)
	}
	if got := s.Search(t0.Add(10 * time.Second)); got != 1 {
		t.Fatalf("search exact=%d", got)
	}
	if got := s.Search(t0.Add(11 * time.Second)); got != 2 {
		t.Fatalf("search after=%d", got)
	}

	pts := s.Points()
	*pts[1].Alt = 999
	pts[0].Lat = 50
	if *s.At(1).Alt != 5 || s.At(0).Lat != 0 {
		t.Fatalf("series mutated through Points() copy")
	}
	if s.Duration() != 10*time.Second {
		t.Fatalf("duration=%s", s.Duration())
	}
	if l := s.LengthM(); l < 110000 || l > 112000 {
		t.Fatalf("length=%v", l)
	}
}
