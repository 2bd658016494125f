package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollector_RecordsRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.AddSamples("nmea", 12)
	c.AddParseWarnings(2)
	c.ObserveSeries(10, 1, 1)
	c.IncFix("interpolated")
	c.IncFix("interpolated")
	c.IncFix("rejected")
	c.ObserveRun(20 * time.Millisecond)

	if got := testutil.ToFloat64(c.SamplesTotal.WithLabelValues("nmea")); got != 12 {
		t.Fatalf("samples=%v", got)
	}
	if got := testutil.ToFloat64(c.SeriesPoints); got != 10 {
		t.Fatalf("points=%v", got)
	}
	if got := testutil.ToFloat64(c.FixesTotal.WithLabelValues("interpolated")); got != 2 {
		t.Fatalf("interpolated=%v", got)
	}
	if got := testutil.ToFloat64(c.SamplesDiscarded.WithLabelValues("merged")); got != 1 {
		t.Fatalf("merged=%v", got)
	}
	if got := testutil.ToFloat64(c.ParseWarnings); got != 2 {
		t.Fatalf("warnings=%v", got)
	}
}

func TestCollector_ReRegisterReusesExisting(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	a.IncFix("exact")
	if got := testutil.ToFloat64(b.FixesTotal.WithLabelValues("exact")); got != 1 {
		t.Fatalf("expected shared counter, got %v", got)
	}
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	c.AddSamples("gpx", 1)
	c.IncFix("exact")
	c.ObserveRun(time.Second)
	if err := c.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
}

func TestCollector_WriteTextfile(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.IncFix("clamped")
	path := filepath.Join(t.TempDir(), "geotrack.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(b), `geotrack_fixes_total{outcome="clamped"} 1`) {
		t.Fatalf("textfile missing counter:\n%s", b)
	}
}
