// Package source turns track inputs (NMEA logs, GPX files, videos with
// embedded GPS) into raw samples for track.Builder.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"geotrack/internal/track"
)

// Source yields the raw samples of one input.
type Source interface {
	Name() string
	Samples(ctx context.Context) ([]track.RawSample, error)
}

// Kind selects an adapter.
type Kind string

const (
	KindNMEA  Kind = "nmea"
	KindGPX   Kind = "gpx"
	KindVideo Kind = "video"
)

// ParseKind accepts a kind name, or "" to guess from the file extension.
func ParseKind(s string, path string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindNMEA:
		return KindNMEA, nil
	case KindGPX:
		return KindGPX, nil
	case KindVideo:
		return KindVideo, nil
	case "":
	default:
		return "", fmt.Errorf("unknown source kind %q", s)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".nmea", ".txt", ".log":
		return KindNMEA, nil
	case ".gpx":
		return KindGPX, nil
	case ".mp4", ".mov", ".360", ".insv":
		return KindVideo, nil
	default:
		return "", fmt.Errorf("cannot infer source kind from %q", path)
	}
}
