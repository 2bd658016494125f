package geo

import "math"

const earthRadiusM = 6371008.8

// NormalizeHeading wraps degrees into [0,360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360.0)
	if h < 0 {
		h += 360.0
	}
	// math.Mod(-1e-15, 360) + 360 rounds to 360.
	if h >= 360.0 {
		h = 0
	}
	return h
}

// HeadingDelta returns the signed shortest rotation from a to b, in (-180,180].
func HeadingDelta(a, b float64) float64 {
	d := math.Mod(b-a, 360.0)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// InterpolateHeading moves from a towards b along the shorter arc by fraction f.
//
// 350 -> 10 at f=0.5 gives 0, never 180.
func InterpolateHeading(a, b, f float64) float64 {
	return NormalizeHeading(a + HeadingDelta(a, b)*f)
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, f float64) float64 {
	return a + (b-a)*f
}

// Bearing returns the initial great-circle bearing from p to q in [0,360).
func Bearing(p, q Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLon := (q.Lon - p.Lon) * math.Pi / 180

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return NormalizeHeading(math.Atan2(y, x) * 180 / math.Pi)
}

// DistanceM returns the haversine distance between p and q in meters.
func DistanceM(p, q Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := q.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (q.Lon - p.Lon) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusM * math.Asin(math.Min(1, math.Sqrt(a)))
}

// InterpolateLon interpolates longitudes across the antimeridian when that is
// the shorter way round; the result is in [-180,180].
func InterpolateLon(a, b, f float64) float64 {
	d := b - a
	if d > 180 {
		d -= 360
	} else if d < -180 {
		d += 360
	}
	v := a + d*f
	if v > 180 {
		v -= 360
	} else if v < -180 {
		v += 360
	}
	return v
}
