// Package pipeline runs one geotagging batch: read a track source, build the
// series, resolve capture times and correlate them.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/google/uuid"

	"geotrack/internal/capture"
	"geotrack/internal/correlate"
	"geotrack/internal/metrics"
	"geotrack/internal/source"
	"geotrack/internal/track"
)

// Outcome labels a Result for reporting and metrics.
const (
	OutcomeExact        = "exact"
	OutcomeInterpolated = "interpolated"
	OutcomeClamped      = "clamped"
	OutcomeRejected     = "rejected"
)

type Request struct {
	Source source.Source
	// Kind labels source metrics; optional.
	Kind source.Kind

	// Targets holds "<id>,<timestamp>" lines, see capture.Read.
	Targets io.Reader
	// Timezone is applied to naive capture times: "", UTC, auto or an IANA name.
	Timezone string

	Build     track.Options
	Correlate correlate.Options

	// SequenceUUID is generated when empty.
	SequenceUUID string

	Metrics *metrics.Collector
	Logf    func(format string, args ...any)
}

// Result is the geo-fix of one capture target.
type Result struct {
	ID           string   `json:"id"`
	CaptureTime  string   `json:"capture_time"`
	Lat          float64  `json:"lat"`
	Lon          float64  `json:"lon"`
	Alt          *float64 `json:"alt,omitempty"`
	Heading      *float64 `json:"heading,omitempty"`
	Outcome      string   `json:"outcome"`
	SequenceUUID string   `json:"sequence_uuid"`
	Error        string   `json:"error,omitempty"`
}

func (r Result) OK() bool { return r.Error == "" }

type Report struct {
	SequenceUUID string
	Zone         string

	Series *track.Series

	Results []Result
}

// Count returns the number of results with the given outcome.
func (r Report) Count(outcome string) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Run executes one batch. Source, series and target errors are fatal; a
// target that cannot be placed is reported in its Result.
func Run(ctx context.Context, req Request) (Report, error) {
	started := time.Now()
	logf := req.Logf
	if logf == nil {
		logf = log.Printf
	}
	if req.Source == nil {
		return Report{}, errors.New("pipeline: no source")
	}
	if req.Targets == nil {
		return Report{}, errors.New("pipeline: no targets")
	}

	samples, err := req.Source.Samples(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("read %s: %w", req.Source.Name(), err)
	}
	req.Metrics.AddSamples(string(req.Kind), len(samples))
	if nf, ok := req.Source.(*source.NMEAFile); ok {
		req.Metrics.AddParseWarnings(nf.LastStats.Skipped)
	}

	buildOpts := req.Build
	if buildOpts.Logf == nil {
		buildOpts.Logf = logf
	}
	series, err := track.NewBuilder(buildOpts).Build(samples)
	if err != nil {
		return Report{}, fmt.Errorf("build series from %s: %w", req.Source.Name(), err)
	}
	req.Metrics.ObserveSeries(series.Len(), series.Dropped(), series.Merged())
	logf("pipeline: series source=%s points=%d dropped=%d merged=%d start=%s end=%s",
		req.Source.Name(), series.Len(), series.Dropped(), series.Merged(),
		series.Start().Format(time.RFC3339), series.End().Format(time.RFC3339))

	loc, err := capture.ResolveZone(req.Timezone, series.At(0), logf)
	if err != nil {
		return Report{}, err
	}
	targets, err := capture.Read(req.Targets, loc)
	if err != nil {
		return Report{}, err
	}

	fixes, err := correlate.New(req.Correlate).Correlate(series, capture.Times(targets))
	if err != nil {
		return Report{}, err
	}

	seq := req.SequenceUUID
	if seq == "" {
		seq = uuid.NewString()
	}

	report := Report{
		SequenceUUID: seq,
		Zone:         loc.String(),
		Series:       series,
		Results:      make([]Result, len(targets)),
	}
	for i, fix := range fixes {
		res := Result{
			ID:           targets[i].ID,
			CaptureTime:  capture.FormatCaptureTime(targets[i].Time),
			SequenceUUID: seq,
			Outcome:      outcome(fix),
		}
		if fix.OK() {
			res.Lat = fix.Point.Lat
			res.Lon = fix.Point.Lon
			res.Alt = fix.Point.Alt
			res.Heading = fix.Point.Heading
		} else {
			res.Error = fix.Err.Error()
			logf("pipeline: target id=%s err=%v", res.ID, fix.Err)
		}
		req.Metrics.IncFix(res.Outcome)
		report.Results[i] = res
	}

	req.Metrics.ObserveRun(time.Since(started))
	return report, nil
}

func outcome(f correlate.Fix) string {
	switch {
	case !f.OK():
		return OutcomeRejected
	case f.Clamped:
		return OutcomeClamped
	case f.Interpolated:
		return OutcomeInterpolated
	default:
		return OutcomeExact
	}
}
