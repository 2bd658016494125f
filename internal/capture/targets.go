// Package capture reads the capture timestamps that need a geo-fix.
package capture

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/bradfitz/latlong"

	"geotrack/internal/geo"
)

// Target is one item (photo, frame) waiting for a position.
type Target struct {
	ID   string
	Time time.Time
}

// Layouts tried for naive timestamps, in order.
var naiveLayouts = []string{
	"2006:01:02 15:04:05.999999999", // EXIF DateTimeOriginal with subseconds
	"2006:01:02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// ParseTime accepts RFC3339 (absolute) or one of the naive layouts, which are
// interpreted in loc.
func ParseTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t.UTC(), nil
		}
	}
	if t, ok := parseCaptureTime(s, loc); ok {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// parseCaptureTime parses yyyy_mm_dd_hh_mm_ss_mmm.
func parseCaptureTime(s string, loc *time.Location) (time.Time, bool) {
	parts := strings.Split(s, "_")
	if len(parts) != 7 {
		return time.Time{}, false
	}
	var v [7]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return time.Time{}, false
		}
		v[i] = n
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], v[6]*int(time.Millisecond), loc)
	if t.Month() != time.Month(v[1]) || t.Day() != v[2] || v[3] > 23 || v[4] > 59 || v[5] > 59 || v[6] > 999 {
		return time.Time{}, false
	}
	return t, true
}

// Read parses "<id>,<timestamp>" lines. Blank lines and lines starting with
// '#' are ignored. The id may not contain a comma; the timestamp may.
func Read(r io.Reader, loc *time.Location) ([]Target, error) {
	s := bufio.NewScanner(r)
	var out []Target
	n := 0
	for s.Scan() {
		n++
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		comma := strings.IndexByte(line, ',')
		if comma < 0 {
			return nil, fmt.Errorf("capture line %d: missing comma: %q", n, line)
		}
		id := strings.TrimSpace(line[:comma])
		if id == "" {
			return nil, fmt.Errorf("capture line %d: empty id", n)
		}
		t, err := ParseTime(line[comma+1:], loc)
		if err != nil {
			return nil, fmt.Errorf("capture line %d: %w", n, err)
		}
		out = append(out, Target{ID: id, Time: t})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// SortByTime orders targets by capture time, keeping input order for ties.
func SortByTime(targets []Target) {
	sort.SliceStable(targets, func(i, j int) bool {
		return targets[i].Time.Before(targets[j].Time)
	})
}

// Times projects the timestamps of targets.
func Times(targets []Target) []time.Time {
	out := make([]time.Time, len(targets))
	for i, t := range targets {
		out[i] = t.Time
	}
	return out
}

// ResolveZone maps a configured timezone name to a location.
//
// "" and "UTC" give UTC. "auto" looks up the zone at ref's position and
// falls back to UTC when the position is in no known zone. logf defaults to
// log.Printf.
func ResolveZone(name string, ref geo.Point, logf func(format string, args ...any)) (*time.Location, error) {
	if logf == nil {
		logf = log.Printf
	}
	name = strings.TrimSpace(name)
	switch {
	case name == "" || strings.EqualFold(name, "utc"):
		return time.UTC, nil
	case strings.EqualFold(name, "auto"):
		zone := latlong.LookupZoneName(ref.Lat, ref.Lon)
		if zone == "" {
			logf("capture: no timezone at lat=%.5f lon=%.5f, using UTC", ref.Lat, ref.Lon)
			return time.UTC, nil
		}
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", zone, err)
		}
		return loc, nil
	default:
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", name, err)
		}
		return loc, nil
	}
}

// FormatCaptureTime renders t in UTC as 2006_01_02_15_04_05_000.
func FormatCaptureTime(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%04d_%02d_%02d_%02d_%02d_%02d_%03d",
		t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond()/int(time.Millisecond))
}
