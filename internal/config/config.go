package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Source    SourceConfig    `yaml:"source"`
	ExifTool  ExifToolConfig  `yaml:"exiftool"`
	Targets   TargetsConfig   `yaml:"targets"`
	Correlate CorrelateConfig `yaml:"correlate"`
	Output    OutputConfig    `yaml:"output"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type SourceConfig struct {
	// Kind is nmea, gpx or video; empty infers it from the path extension.
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

type ExifToolConfig struct {
	Path    string `yaml:"path"`
	AltPath string `yaml:"alt_path"`
}

type TargetsConfig struct {
	Path string `yaml:"path"`
	// Timezone applies to naive capture times: UTC, auto or an IANA name.
	Timezone string `yaml:"timezone"`
}

type CorrelateConfig struct {
	OffsetTime         float64 `yaml:"offset_time"`
	UseSeriesStartTime bool    `yaml:"use_series_start_time"`
	// UseGPXStartTime is the historical name of UseSeriesStartTime.
	UseGPXStartTime  bool   `yaml:"use_gpx_start_time"`
	OutOfRangePolicy string `yaml:"out_of_range_policy"`
	DeriveHeading    bool   `yaml:"derive_heading"`
}

type OutputConfig struct {
	Path    string `yaml:"path"`
	GPXPath string `yaml:"gpx_path"`
}

type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// Load reads a YAML config, applies GEOTRACK_* environment overrides and
// defaults, then validates.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := finalize(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment without overriding variables already set.
// A missing default file is not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
	}
	return godotenv.Load(files...)
}

func finalize(cfg *Config) error {
	if strings.TrimSpace(cfg.Source.Path) == "" {
		return fmt.Errorf("source.path is required")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Source.Kind)) {
	case "", "nmea", "gpx", "video":
	default:
		return fmt.Errorf("source.kind must be one of nmea, gpx, video")
	}
	if strings.TrimSpace(cfg.Targets.Path) == "" {
		return fmt.Errorf("targets.path is required")
	}
	if cfg.Targets.Timezone == "" {
		cfg.Targets.Timezone = "UTC"
	}

	if cfg.ExifTool.Path == "" {
		cfg.ExifTool.Path = "exiftool"
	}
	if cfg.ExifTool.AltPath == "" {
		cfg.ExifTool.AltPath = "exiftool(-k)"
	}

	if cfg.Correlate.UseGPXStartTime {
		cfg.Correlate.UseSeriesStartTime = true
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Correlate.OutOfRangePolicy)) {
	case "":
		cfg.Correlate.OutOfRangePolicy = "clamp"
	case "clamp", "reject":
		cfg.Correlate.OutOfRangePolicy = strings.ToLower(strings.TrimSpace(cfg.Correlate.OutOfRangePolicy))
	default:
		return fmt.Errorf("correlate.out_of_range_policy must be 'clamp' or 'reject'")
	}
	return nil
}

// applyEnv overlays GEOTRACK_* variables onto cfg.
func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok {
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: invalid bool %q", key, v)
		}
		*dst = b
		return nil
	}

	str("GEOTRACK_SOURCE_KIND", &cfg.Source.Kind)
	str("GEOTRACK_SOURCE_PATH", &cfg.Source.Path)
	str("GEOTRACK_EXIFTOOL_PATH", &cfg.ExifTool.Path)
	str("GEOTRACK_EXIFTOOL_ALT_PATH", &cfg.ExifTool.AltPath)
	str("GEOTRACK_TARGETS_PATH", &cfg.Targets.Path)
	str("GEOTRACK_TARGETS_TIMEZONE", &cfg.Targets.Timezone)
	str("GEOTRACK_OUT_OF_RANGE_POLICY", &cfg.Correlate.OutOfRangePolicy)
	str("GEOTRACK_OUTPUT_PATH", &cfg.Output.Path)
	str("GEOTRACK_OUTPUT_GPX_PATH", &cfg.Output.GPXPath)
	str("GEOTRACK_METRICS_TEXTFILE", &cfg.Metrics.Textfile)

	if v, ok := lookup("GEOTRACK_OFFSET_TIME"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("GEOTRACK_OFFSET_TIME: invalid number %q", v)
		}
		cfg.Correlate.OffsetTime = f
	}
	if err := boolean("GEOTRACK_USE_SERIES_START_TIME", &cfg.Correlate.UseSeriesStartTime); err != nil {
		return err
	}
	if err := boolean("GEOTRACK_DERIVE_HEADING", &cfg.Correlate.DeriveHeading); err != nil {
		return err
	}
	return nil
}
