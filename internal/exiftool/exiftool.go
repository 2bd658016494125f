// Package exiftool extracts embedded GPS tracks from video files with the
// external exiftool binary.
//
// A Tool is constructed explicitly and passed to whoever needs it; there is no
// process-wide handle. All process execution goes through a Runner so tests can
// substitute canned output.
package exiftool

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
)

// ErrNotFound means neither configured binary could be executed.
var ErrNotFound = errors.New("exiftool: command not found")

// gpxFormat is exiftool's print format producing a GPX 1.0 track log.
// The -ee option is required to reach the samples embedded in video streams.
// Body lines whose tags are missing (no altitude, no GPSTrack) are left out.
const gpxFormat = `#[HEAD]<?xml version="1.0" encoding="utf-8"?>
#[HEAD]<gpx version="1.0"
#[HEAD] creator="ExifTool $ExifToolVersion"
#[HEAD] xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
#[HEAD] xmlns="http://www.topografix.com/GPX/1/0"
#[HEAD] xsi:schemaLocation="http://www.topografix.com/GPX/1/0 http://www.topografix.com/GPX/1/0/gpx.xsd">
#[HEAD]<trk>
#[HEAD]<number>1</number>
#[HEAD]<trkseg>
#[IF]  $gpslatitude $gpslongitude
#[BODY]<trkpt lat="$gpslatitude#" lon="$gpslongitude#">
#[BODY]  <ele>$gpsaltitude#</ele>
#[BODY]  <course>$gpstrack#</course>
#[BODY]  <time>${gpsdatetime#;my ($ss)=/\.\d+/g;DateFmt("%Y-%m-%dT%H:%M:%SZ");s/Z/${ss}Z/ if $ss}</time>
#[BODY]</trkpt>
#[TAIL]</trkseg>
#[TAIL]</trk>
#[TAIL]</gpx>
`

type Config struct {
	// Path is the primary binary. Defaults to "exiftool".
	Path string
	// AltPath is tried when Path cannot run. Defaults to "exiftool(-k)".
	AltPath string

	// Runner executes commands. Defaults to ExecRunner{}.
	Runner Runner

	// TempDir holds the per-call format file. Defaults to os.TempDir().
	TempDir string

	Logf func(format string, args ...any)
}

// Tool is a probed exiftool installation.
type Tool struct {
	path    string
	version string
	runner  Runner
	tempDir string
	logf    func(format string, args ...any)
}

// New probes the configured binaries with -ver and keeps the first that runs.
func New(ctx context.Context, cfg Config) (*Tool, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = "exiftool"
	}
	if cfg.AltPath == "" {
		cfg.AltPath = "exiftool(-k)"
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	if cfg.Logf == nil {
		cfg.Logf = log.Printf
	}

	var lastErr error
	for _, p := range []string{cfg.Path, cfg.AltPath} {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out, err := cfg.Runner.Run(ctx, p, "-ver")
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// A binary that exists but fails is a real error, not a fallback case.
			var ce *CommandError
			if errors.As(err, &ce) {
				return nil, fmt.Errorf("exiftool: probe %s: %w", p, err)
			}
			cfg.Logf("exiftool: probe failed path=%s err=%v", p, err)
			lastErr = err
			continue
		}
		version := strings.TrimSpace(string(out))
		cfg.Logf("exiftool: using path=%s version=%s", p, version)
		return &Tool{path: p, version: version, runner: cfg.Runner, tempDir: cfg.TempDir, logf: cfg.Logf}, nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, lastErr)
	}
	return nil, ErrNotFound
}

func (t *Tool) Path() string    { return t.path }
func (t *Tool) Version() string { return t.version }

// ExtractGPX returns the GPS samples embedded in a video as a GPX document.
func (t *Tool) ExtractGPX(ctx context.Context, videoPath string) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("exiftool: tool is nil")
	}
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}

	f, err := os.CreateTemp(t.tempDir, "gpx.fmt_*.tmp")
	if err != nil {
		return nil, fmt.Errorf("exiftool: format file: %w", err)
	}
	fmtPath := f.Name()
	defer os.Remove(fmtPath)
	if _, err := f.WriteString(gpxFormat); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("exiftool: format file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("exiftool: format file: %w", err)
	}

	args := []string{
		"-p", fmtPath,
		"-api", "largefilesupport=1",
		"-ee",
		videoPath,
	}
	t.logf("exiftool: extract gpx path=%s", videoPath)
	out, err := t.runner.Run(ctx, t.path, args...)
	if err != nil {
		return nil, fmt.Errorf("exiftool: extract %s: %w", videoPath, err)
	}
	if len(strings.TrimSpace(string(out))) == 0 {
		return nil, fmt.Errorf("exiftool: %s: no GPS samples", videoPath)
	}
	return out, nil
}
