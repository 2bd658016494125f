package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"geotrack/internal/config"
	"geotrack/internal/correlate"
	"geotrack/internal/exiftool"
	"geotrack/internal/metrics"
	"geotrack/internal/pipeline"
	"geotrack/internal/source"
	"geotrack/internal/track"
)

// newSource picks the adapter for kind. Video sources probe exiftool up front.
func newSource(ctx context.Context, kind source.Kind, path string, et config.ExifToolConfig) (source.Source, error) {
	switch kind {
	case source.KindNMEA:
		return &source.NMEAFile{Path: path}, nil
	case source.KindGPX:
		return &source.GPXFile{Path: path}, nil
	case source.KindVideo:
		tool, err := exiftool.New(ctx, exiftool.Config{Path: et.Path, AltPath: et.AltPath})
		if err != nil {
			return nil, err
		}
		return &source.Video{Path: path, Extractor: tool}, nil
	default:
		return nil, fmt.Errorf("unsupported source kind %q", kind)
	}
}

func run(ctx context.Context, cfg config.Config, stdout io.Writer) error {
	kind, err := source.ParseKind(cfg.Source.Kind, cfg.Source.Path)
	if err != nil {
		return err
	}
	src, err := newSource(ctx, kind, cfg.Source.Path, cfg.ExifTool)
	if err != nil {
		return err
	}
	policy, err := correlate.ParsePolicy(cfg.Correlate.OutOfRangePolicy)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Textfile != "" {
		collector, err = metrics.NewCollector(prometheus.NewRegistry())
		if err != nil {
			return fmt.Errorf("metrics init: %w", err)
		}
	}

	targets, err := os.Open(cfg.Targets.Path)
	if err != nil {
		return err
	}
	defer targets.Close()

	rep, err := pipeline.Run(ctx, pipeline.Request{
		Source:   src,
		Kind:     kind,
		Targets:  targets,
		Timezone: cfg.Targets.Timezone,
		Build: track.Options{
			Offset:             track.OffsetFromSeconds(cfg.Correlate.OffsetTime),
			UseSeriesStartTime: cfg.Correlate.UseSeriesStartTime,
		},
		Correlate: correlate.Options{
			Policy:        policy,
			DeriveHeading: cfg.Correlate.DeriveHeading,
		},
		Metrics: collector,
	})
	if err != nil {
		return err
	}

	if err := writeOutput(cfg.Output.Path, stdout, func(w io.Writer) error {
		return writeResults(w, rep.Results)
	}); err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	if cfg.Output.GPXPath != "" {
		name := strings.TrimSuffix(filepath.Base(cfg.Source.Path), filepath.Ext(cfg.Source.Path))
		if err := writeOutput(cfg.Output.GPXPath, stdout, func(w io.Writer) error {
			return source.WriteGPX(w, rep.Series, name)
		}); err != nil {
			return fmt.Errorf("write gpx: %w", err)
		}
	}
	if cfg.Metrics.Textfile != "" {
		if err := collector.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	log.Printf("sequence=%s zone=%s targets=%d exact=%d interpolated=%d clamped=%d rejected=%d",
		rep.SequenceUUID, rep.Zone, len(rep.Results),
		rep.Count(pipeline.OutcomeExact), rep.Count(pipeline.OutcomeInterpolated),
		rep.Count(pipeline.OutcomeClamped), rep.Count(pipeline.OutcomeRejected))
	return nil
}

// writeResults emits one JSON object per line.
func writeResults(w io.Writer, results []pipeline.Result) error {
	enc := json.NewEncoder(w)
	for _, r := range results {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}
	return nil
}

// writeOutput sends fn's output to path, or to stdout when path is "" or "-".
func writeOutput(path string, stdout io.Writer, fn func(io.Writer) error) error {
	if path == "" || path == "-" {
		return fn(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
