package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

const minimal = "source:\n  path: ./track.nmea\ntargets:\n  path: ./captures.csv\n"

func TestLoad_RequiresSourcePath(t *testing.T) {
	path := writeTempConfig(t, "targets:\n  path: x\n")
	_, err := Load(path)
	requireErrEq(t, err, "source.path is required")
}

func TestLoad_RequiresTargetsPath(t *testing.T) {
	path := writeTempConfig(t, "source:\n  path: x.gpx\n")
	_, err := Load(path)
	requireErrEq(t, err, "targets.path is required")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Correlate.OutOfRangePolicy != "clamp" {
		t.Fatalf("policy=%q want clamp", cfg.Correlate.OutOfRangePolicy)
	}
	if cfg.Correlate.OffsetTime != 0 || cfg.Correlate.UseSeriesStartTime {
		t.Fatalf("unexpected correlate defaults %+v", cfg.Correlate)
	}
	if cfg.Targets.Timezone != "UTC" {
		t.Fatalf("timezone=%q want UTC", cfg.Targets.Timezone)
	}
	if cfg.ExifTool.Path != "exiftool" || cfg.ExifTool.AltPath != "exiftool(-k)" {
		t.Fatalf("exiftool=%+v", cfg.ExifTool)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "BadPolicy",
			body: minimal + "correlate:\n  out_of_range_policy: nearest\n",
			want: "correlate.out_of_range_policy must be 'clamp' or 'reject'",
		},
		{
			name: "BadKind",
			body: "targets:\n  path: c.csv\nsource:\n  path: x\n  kind: kml\n",
			want: "source.kind must be one of nmea, gpx, video",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.body))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_CorrelateOptions(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, minimal+"correlate:\n  offset_time: -1.5\n  use_gpx_start_time: true\n  out_of_range_policy: REJECT\n  derive_heading: true\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	c := cfg.Correlate
	if c.OffsetTime != -1.5 || !c.UseSeriesStartTime || c.OutOfRangePolicy != "reject" || !c.DeriveHeading {
		t.Fatalf("correlate=%+v", c)
	}
}

func TestApplyEnv_Overrides(t *testing.T) {
	env := map[string]string{
		"GEOTRACK_SOURCE_PATH":           "/data/hero8.mp4",
		"GEOTRACK_SOURCE_KIND":           "video",
		"GEOTRACK_OFFSET_TIME":           "2.25",
		"GEOTRACK_USE_SERIES_START_TIME": "true",
		"GEOTRACK_TARGETS_TIMEZONE":      "auto",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	cfg := Config{Source: SourceConfig{Path: "a.nmea"}}
	if err := applyEnv(&cfg, lookup); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}
	if cfg.Source.Path != "/data/hero8.mp4" || cfg.Source.Kind != "video" {
		t.Fatalf("source=%+v", cfg.Source)
	}
	if cfg.Correlate.OffsetTime != 2.25 || !cfg.Correlate.UseSeriesStartTime || cfg.Targets.Timezone != "auto" {
		t.Fatalf("cfg=%+v", cfg)
	}

	env = map[string]string{"GEOTRACK_DERIVE_HEADING": "sometimes"}
	requireErrEq(t, applyEnv(&cfg, lookup), `GEOTRACK_DERIVE_HEADING: invalid bool "sometimes"`)
	env = map[string]string{"GEOTRACK_OFFSET_TIME": "abc"}
	requireErrEq(t, applyEnv(&cfg, lookup), `GEOTRACK_OFFSET_TIME: invalid number "abc"`)
}

func TestLoad_ReadsEnvironment(t *testing.T) {
	t.Setenv("GEOTRACK_OUT_OF_RANGE_POLICY", "reject")
	cfg, err := Load(writeTempConfig(t, minimal))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Correlate.OutOfRangePolicy != "reject" {
		t.Fatalf("policy=%q want reject", cfg.Correlate.OutOfRangePolicy)
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("GEOTRACK_TEST_DOTENV=from-file\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	t.Setenv("GEOTRACK_TEST_DOTENV", "")
	os.Unsetenv("GEOTRACK_TEST_DOTENV")
	if err := LoadDotEnv(path); err != nil {
		t.Fatalf("LoadDotEnv: %v", err)
	}
	if got := os.Getenv("GEOTRACK_TEST_DOTENV"); got != "from-file" {
		t.Fatalf("GEOTRACK_TEST_DOTENV=%q", got)
	}
	if err := LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")); err == nil {
		t.Fatalf("expected error for explicit missing file")
	}
}
