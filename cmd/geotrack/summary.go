package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"geotrack/internal/config"
	"geotrack/internal/geo"
	"geotrack/internal/source"
	"geotrack/internal/track"
)

type trackSummary struct {
	Samples    int
	Points     int
	Dropped    int
	Merged     int
	WithAlt    int
	WithHead   int
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	LengthM    float64
	MaxGap     time.Duration
	MaxSpeedMS float64
}

func summarizeSeries(samples int, s *track.Series) trackSummary {
	sum := trackSummary{Samples: samples}
	if s.Len() == 0 {
		return sum
	}
	sum.Points = s.Len()
	sum.Dropped = s.Dropped()
	sum.Merged = s.Merged()
	sum.Start = s.Start()
	sum.End = s.End()
	sum.Duration = s.Duration()
	sum.LengthM = s.LengthM()

	pts := s.Points()
	for i, p := range pts {
		if p.HasAlt() {
			sum.WithAlt++
		}
		if p.HasHeading() {
			sum.WithHead++
		}
		if i == 0 {
			continue
		}
		gap := p.Time.Sub(pts[i-1].Time)
		if gap > sum.MaxGap {
			sum.MaxGap = gap
		}
		if gap > 0 {
			if v := geo.DistanceM(pts[i-1], p) / gap.Seconds(); v > sum.MaxSpeedMS {
				sum.MaxSpeedMS = v
			}
		}
	}
	return sum
}

func printTrackSummary(ctx context.Context, w io.Writer, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("path is empty")
	}
	kind, err := source.ParseKind("", path)
	if err != nil {
		return err
	}
	src, err := newSource(ctx, kind, path, config.ExifToolConfig{})
	if err != nil {
		return err
	}
	samples, err := src.Samples(ctx)
	if err != nil {
		return err
	}
	series, err := track.NewBuilder(track.Options{}).Build(samples)
	if err != nil {
		return err
	}

	s := summarizeSeries(len(samples), series)
	fmt.Fprintf(w, "path: %s\n", path)
	fmt.Fprintf(w, "kind: %s\n", kind)
	fmt.Fprintf(w, "samples: %d\n", s.Samples)
	fmt.Fprintf(w, "points: %d\n", s.Points)
	fmt.Fprintf(w, "dropped: %d\n", s.Dropped)
	fmt.Fprintf(w, "merged: %d\n", s.Merged)
	fmt.Fprintf(w, "with_alt: %d\n", s.WithAlt)
	fmt.Fprintf(w, "with_heading: %d\n", s.WithHead)
	fmt.Fprintf(w, "start: %s\n", s.Start.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "end: %s\n", s.End.Format(time.RFC3339Nano))
	fmt.Fprintf(w, "duration: %s\n", s.Duration)
	fmt.Fprintf(w, "max_gap: %s\n", s.MaxGap)
	fmt.Fprintf(w, "length_m: %.1f\n", s.LengthM)
	fmt.Fprintf(w, "max_speed_ms: %.2f\n", s.MaxSpeedMS)
	return nil
}
