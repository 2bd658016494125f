// Package nmea decodes NMEA 0183 logs into timestamped positions.
//
// Only two sentence types matter here:
// - RMC supplies the calendar date
// - GGA supplies time of day, position and altitude
//
// A GGA fix takes the date of the most recent RMC sentence. When the fix's
// time of day is more than 12h away from that RMC's time, the date has rolled
// over midnight between the two and is moved by one day.
package nmea

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"time"

	"geotrack/internal/geo"
	"geotrack/internal/track"
)

var (
	// ErrMissingDateContext means a GGA fix appeared before any RMC date.
	ErrMissingDateContext = errors.New("nmea: position sentence before any date sentence")

	// ErrNoPoints means the input held no usable fix.
	ErrNoPoints = fmt.Errorf("nmea: no valid fixes: %w", track.ErrEmptySeries)
)

// ParseError describes a line that was skipped.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("nmea: line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Stats summarizes one parse run.
type Stats struct {
	Lines     int
	Sentences int
	Dates     int
	Points    int
	Skipped   int
}

// Result holds the time-sorted fixes of one input.
type Result struct {
	Points []geo.Point
	Stats  Stats
	// Warnings lists every skipped line in input order.
	Warnings []*ParseError
}

// Parser is stateless between calls; each Parse starts without a date.
type Parser struct {
	// Logf receives skip warnings. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

func NewParser() *Parser {
	return &Parser{Logf: log.Printf}
}

// ParseReader scans r line by line (LF or CRLF).
func (p *Parser) ParseReader(r io.Reader) (Result, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	if err := s.Err(); err != nil {
		return Result{}, fmt.Errorf("nmea: read: %w", err)
	}
	return p.Parse(lines)
}

// Parse decodes lines into fixes sorted by time (ties keep input order).
func (p *Parser) Parse(lines []string) (Result, error) {
	logf := p.logf()

	var (
		res     Result
		date    time.Time
		hasDate bool
		dateTOD time.Duration
		hasTOD  bool
	)
	skip := func(n int, text string, err error) {
		pe := &ParseError{Line: n, Text: text, Err: err}
		res.Warnings = append(res.Warnings, pe)
		res.Stats.Skipped++
		logf("nmea: skip line=%d err=%v", n, err)
	}

	for i, raw := range lines {
		n := i + 1
		line := strings.TrimSpace(raw)
		res.Stats.Lines++
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		sent, err := ParseSentence(line)
		if err != nil {
			skip(n, line, err)
			continue
		}
		res.Stats.Sentences++

		switch sent.Type {
		case "RMC":
			m, err := decodeRMC(sent.Fields)
			if err != nil {
				skip(n, line, err)
				continue
			}
			date = m.date
			hasDate = true
			dateTOD, hasTOD = m.timeOfDay, m.hasTime
			res.Stats.Dates++

		case "GGA":
			if !hasDate {
				return Result{}, fmt.Errorf("%w (line %d)", ErrMissingDateContext, n)
			}
			m, err := decodeGGA(sent.Fields)
			if err != nil {
				skip(n, line, err)
				continue
			}
			day := date
			if hasTOD {
				day = rollDate(date, dateTOD, m.timeOfDay)
				if !day.Equal(date) {
					logf("nmea: midnight rollover line=%d date=%s", n, day.Format("2006-01-02"))
				}
			}
			pt, err := geo.NewPoint(day.Add(m.timeOfDay), m.lat, m.lon, m.alt, nil)
			if err != nil {
				skip(n, line, err)
				continue
			}
			res.Points = append(res.Points, pt)
		}
	}

	if len(res.Points) == 0 {
		return Result{}, ErrNoPoints
	}
	sort.SliceStable(res.Points, func(i, j int) bool {
		return res.Points[i].Before(res.Points[j])
	})
	res.Stats.Points = len(res.Points)
	return res, nil
}

// rollDate returns the calendar date of a fix at tod, given that date was
// reported at dateTOD.
func rollDate(date time.Time, dateTOD, tod time.Duration) time.Time {
	const half = 12 * time.Hour
	switch {
	case dateTOD-tod > half:
		return date.AddDate(0, 0, 1)
	case tod-dateTOD > half:
		return date.AddDate(0, 0, -1)
	default:
		return date
	}
}

func (p *Parser) logf() func(format string, args ...any) {
	if p == nil || p.Logf == nil {
		return log.Printf
	}
	return p.Logf
}
