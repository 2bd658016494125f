package source

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"geotrack/internal/geo"
	"geotrack/internal/track"
)

// GPXFile reads track points from a GPX file.
type GPXFile struct {
	Path string
	// Logf receives skipped-point warnings. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

func (g *GPXFile) Name() string { return "gpx:" + g.Path }

func (g *GPXFile) Samples(ctx context.Context) ([]track.RawSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(g.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	samples, err := ParseGPX(f, g.Logf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", g.Path, err)
	}
	return samples, nil
}

// ParseGPX collects every track point of every segment, in document order.
// Points without a timestamp or without both coordinates are skipped with a
// warning; they cannot be correlated. A GPX 1.0 <course> becomes the heading.
func ParseGPX(r io.Reader, logf func(format string, args ...any)) ([]track.RawSample, error) {
	if logf == nil {
		logf = log.Printf
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read gpx: %w", err)
	}
	b = bytes.TrimSpace(b)
	doc, err := gpx.ParseBytes(b)
	if err != nil {
		return nil, fmt.Errorf("parse gpx: %w", err)
	}

	total := 0
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			total += len(seg.Points)
		}
	}
	extras := scanTrackPoints(b)
	if len(extras) != total {
		// Attribute presence is unknown; treat an exact (0,0) as missing.
		extras = nil
	}

	var out []track.RawSample
	idx := -1
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, pt := range seg.Points {
				idx++
				var extra trkptExtra
				if extras != nil {
					extra = extras[idx]
				} else {
					extra = trkptExtra{
						hasCoords: pt.GetLatitude() != 0 || pt.GetLongitude() != 0,
					}
				}
				if pt.Timestamp.IsZero() {
					logf("gpx: skip point index=%d err=missing time", idx)
					continue
				}
				if !extra.hasCoords {
					logf("gpx: skip point index=%d err=missing lat/lon", idx)
					continue
				}
				s := track.RawSample{
					Time:    pt.Timestamp.UTC(),
					Lat:     pt.GetLatitude(),
					Lon:     pt.GetLongitude(),
					Heading: extra.course,
				}
				if ele := pt.GetElevation(); ele.NotNull() {
					s.Alt = geo.Float(ele.Value())
				}
				out = append(out, s)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("gpx contains no timestamped track points: %w", track.ErrEmptySeries)
	}
	return out, nil
}

// trkptExtra is what gpxgo does not keep for a <trkpt>.
type trkptExtra struct {
	hasCoords bool
	course    *float64
}

// scanTrackPoints walks the raw XML and reports, per <trkpt> in document
// order, whether both lat and lon attributes are present and its <course>.
// It returns nil when the document cannot be tokenized.
func scanTrackPoints(b []byte) []trkptExtra {
	dec := xml.NewDecoder(bytes.NewReader(b))
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	var out []trkptExtra
	cur := -1
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out
		}
		if err != nil {
			return nil
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "trkpt":
				var lat, lon bool
				for _, a := range el.Attr {
					switch a.Name.Local {
					case "lat":
						lat = strings.TrimSpace(a.Value) != ""
					case "lon":
						lon = strings.TrimSpace(a.Value) != ""
					}
				}
				out = append(out, trkptExtra{hasCoords: lat && lon})
				cur = len(out) - 1
			case "course":
				if cur < 0 {
					continue
				}
				var v string
				if err := dec.DecodeElement(&v, &el); err != nil {
					return nil
				}
				if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
					out[cur].course = &f
				}
			}
		case xml.EndElement:
			if el.Name.Local == "trkpt" {
				cur = -1
			}
		}
	}
}

// WriteGPX exports a series as a single-segment GPX 1.1 track.
func WriteGPX(w io.Writer, s *track.Series, name string) error {
	seg := gpx.GPXTrackSegment{}
	for _, p := range s.Points() {
		pt := gpx.GPXPoint{
			Point: gpx.Point{
				Latitude:  p.Lat,
				Longitude: p.Lon,
			},
			Timestamp: p.Time,
		}
		if p.HasAlt() {
			pt.Elevation = *gpx.NewNullableFloat64(*p.Alt)
		}
		seg.Points = append(seg.Points, pt)
	}
	doc := &gpx.GPX{
		Creator: "geotrack",
		Tracks: []gpx.GPXTrack{{
			Name:     name,
			Segments: []gpx.GPXTrackSegment{seg},
		}},
	}
	b, err := doc.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
	if err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	_, err = w.Write(b)
	return err
}
