package source

import (
	"context"
	"fmt"
	"os"

	"geotrack/internal/nmea"
	"geotrack/internal/track"
)

// NMEAFile reads an NMEA 0183 log from disk.
type NMEAFile struct {
	Path   string
	Parser *nmea.Parser

	// LastStats is populated after a successful Samples call.
	LastStats nmea.Stats
}

func (n *NMEAFile) Name() string { return "nmea:" + n.Path }

func (n *NMEAFile) Samples(ctx context.Context) ([]track.RawSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(n.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p := n.Parser
	if p == nil {
		p = nmea.NewParser()
	}
	res, err := p.ParseReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", n.Path, err)
	}
	n.LastStats = res.Stats

	out := make([]track.RawSample, 0, len(res.Points))
	for _, pt := range res.Points {
		out = append(out, track.SampleFromPoint(pt))
	}
	return out, nil
}
