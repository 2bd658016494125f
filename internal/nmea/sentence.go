package nmea

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Sentence is a checksum-verified NMEA 0183 sentence.
type Sentence struct {
	// Talker is the two-letter source id (GP, GN, GL, ...).
	Talker string
	// Type is the normalized three-letter sentence type (RMC, GGA, ...).
	Type string
	// Fields is the comma-split payload (excluding $ and checksum).
	Fields []string
}

// ParseSentence decodes a single line.
//
// The checksum is the XOR of every byte between '$' and '*'.
func ParseSentence(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Sentence{}, fmt.Errorf("nmea: missing '$'")
	}
	star := strings.LastIndexByte(line, '*')
	if star == -1 {
		return Sentence{}, fmt.Errorf("nmea: missing checksum")
	}
	payload := line[1:star]
	ck := strings.TrimSpace(line[star+1:])
	if len(ck) < 2 {
		return Sentence{}, fmt.Errorf("nmea: short checksum")
	}
	want, err := hex.DecodeString(ck[:2])
	if err != nil || len(want) != 1 {
		return Sentence{}, fmt.Errorf("nmea: bad checksum %q", ck[:2])
	}
	if got := Checksum(payload); got != want[0] {
		return Sentence{}, fmt.Errorf("nmea: checksum mismatch got=%02X want=%02X", got, want[0])
	}

	parts := strings.Split(payload, ",")
	typeField := parts[0]
	if len(typeField) < 3 {
		return Sentence{}, fmt.Errorf("nmea: short type %q", typeField)
	}
	// Accept GNxxx/GPxxx, etc; normalize to last 3 chars.
	t := typeField[len(typeField)-3:]
	talker := typeField[:len(typeField)-3]
	return Sentence{Talker: strings.ToUpper(talker), Type: strings.ToUpper(t), Fields: parts}, nil
}

// Checksum XORs every byte of payload.
func Checksum(payload string) byte {
	ck := byte(0)
	for i := 0; i < len(payload); i++ {
		ck ^= payload[i]
	}
	return ck
}

// RMC: Recommended Minimum Specific GNSS Data
// Fields (NMEA 0183 v2.3):
//
//	0: talker+type
//	1: time (hhmmss.sss)
//	2: status (A=active, V=void)
//	3: latitude (ddmm.mmmm)
//	4: N/S
//	5: longitude (dddmm.mmmm)
//	6: E/W
//	7: speed over ground (knots)
//	8: course over ground (deg)
//	9: date (ddmmyy)
type rmc struct {
	date time.Time
	// timeOfDay is valid when hasTime is set.
	timeOfDay time.Duration
	hasTime   bool
}

func decodeRMC(f []string) (rmc, error) {
	if len(f) < 10 {
		return rmc{}, fmt.Errorf("rmc: want >=10 fields, got %d", len(f))
	}
	d, err := parseDate(f[9])
	if err != nil {
		return rmc{}, fmt.Errorf("rmc: %w", err)
	}
	out := rmc{date: d}
	if tod, err := parseTimeOfDay(f[1]); err == nil {
		out.timeOfDay = tod
		out.hasTime = true
	}
	return out, nil
}

// GGA: Global Positioning System Fix Data
// Fields:
//
//	0: talker+type
//	1: time
//	2: latitude
//	3: N/S
//	4: longitude
//	5: E/W
//	6: fix quality (0=invalid)
//	7: number of satellites
//	8: HDOP
//	9: altitude (meters)
//
// 10: units (M)
type gga struct {
	timeOfDay time.Duration
	lat, lon  float64
	alt       *float64
}

func decodeGGA(f []string) (gga, error) {
	if len(f) < 11 {
		return gga{}, fmt.Errorf("gga: want >=11 fields, got %d", len(f))
	}
	fixQ := strings.TrimSpace(f[6])
	if fixQ == "" || fixQ == "0" {
		return gga{}, fmt.Errorf("gga: no fix (quality=%q)", fixQ)
	}
	tod, err := parseTimeOfDay(f[1])
	if err != nil {
		return gga{}, fmt.Errorf("gga: %w", err)
	}
	lat, ok := parseLatLon(f[2], f[3])
	if !ok {
		return gga{}, fmt.Errorf("gga: bad latitude %q %q", f[2], f[3])
	}
	lon, ok := parseLatLon(f[4], f[5])
	if !ok {
		return gga{}, fmt.Errorf("gga: bad longitude %q %q", f[4], f[5])
	}
	out := gga{timeOfDay: tod, lat: lat, lon: lon}
	if altM, ok := parseFloat(f[9]); ok {
		out.alt = &altM
	}
	return out, nil
}

// parseDate parses ddmmyy. Years 69-99 map to 19xx, 00-68 to 20xx.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if len(v) != 6 {
		return time.Time{}, fmt.Errorf("bad date %q", v)
	}
	dd, err1 := strconv.Atoi(v[0:2])
	mm, err2 := strconv.Atoi(v[2:4])
	yy, err3 := strconv.Atoi(v[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("bad date %q", v)
	}
	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, fmt.Errorf("bad date %q", v)
	}
	year := 2000 + yy
	if yy >= 69 {
		year = 1900 + yy
	}
	d := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if d.Day() != dd {
		return time.Time{}, fmt.Errorf("bad date %q", v)
	}
	return d, nil
}

// parseTimeOfDay parses hhmmss[.sss] into an offset from midnight.
func parseTimeOfDay(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if len(v) < 6 {
		return 0, fmt.Errorf("bad time %q", v)
	}
	hh, err1 := strconv.Atoi(v[0:2])
	mm, err2 := strconv.Atoi(v[2:4])
	ss, err3 := strconv.ParseFloat(v[4:], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, fmt.Errorf("bad time %q", v)
	}
	if hh > 23 || mm > 59 || ss < 0 || ss >= 61 {
		return 0, fmt.Errorf("bad time %q", v)
	}
	d := time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute
	d += time.Duration(ss * float64(time.Second)).Round(time.Microsecond)
	return d, nil
}

func parseFloat(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseLatLon parses NMEA lat/lon in ddmm.mmmm or dddmm.mmmm plus hemisphere.
//
// For latitude (N/S): ddmm.mmmm
// For longitude (E/W): dddmm.mmmm
func parseLatLon(v string, hemi string) (float64, bool) {
	v = strings.TrimSpace(v)
	hemi = strings.TrimSpace(strings.ToUpper(hemi))
	if v == "" || (hemi != "N" && hemi != "S" && hemi != "E" && hemi != "W") {
		return 0, false
	}

	// Split degrees/minutes at the decimal point by taking the last two digits of the integer part as minutes.
	dot := strings.IndexByte(v, '.')
	intPart := v
	if dot != -1 {
		intPart = v[:dot]
	}
	if len(intPart) < 3 {
		return 0, false
	}

	deg, err := strconv.Atoi(intPart[:len(intPart)-2])
	if err != nil {
		return 0, false
	}
	mins, err := strconv.ParseFloat(v[len(intPart)-2:], 64)
	if err != nil || mins >= 60 {
		return 0, false
	}

	dec := float64(deg) + (mins / 60.0)
	if hemi == "S" || hemi == "W" {
		dec = -dec
	}
	return dec, true
}
