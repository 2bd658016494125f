package source

import (
	"bytes"
	"context"
	"fmt"

	"geotrack/internal/track"
)

// Extractor pulls the embedded GPS stream of a video as a GPX document.
// exiftool.Tool satisfies it.
type Extractor interface {
	ExtractGPX(ctx context.Context, videoPath string) ([]byte, error)
}

// Video reads the GPS samples embedded in a video through an Extractor.
type Video struct {
	Path      string
	Extractor Extractor
	// Logf receives skipped-point warnings. Defaults to log.Printf.
	Logf func(format string, args ...any)
}

func (v *Video) Name() string { return "video:" + v.Path }

func (v *Video) Samples(ctx context.Context) ([]track.RawSample, error) {
	if v.Extractor == nil {
		return nil, fmt.Errorf("video source %s: no extractor configured", v.Path)
	}
	doc, err := v.Extractor.ExtractGPX(ctx, v.Path)
	if err != nil {
		return nil, err
	}
	samples, err := ParseGPX(bytes.NewReader(doc), v.Logf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", v.Path, err)
	}
	return samples, nil
}
