package nav

import "math"

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

func toDeg(rad float64) float64 { return rad * 180 / math.Pi }

// DistanceKm returns the haversine great-circle distance between two points
func DistanceKm(a, b GeoPoint) float64 {
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)
	dLat := lat2 - lat1
	dLng := toRad(b.Lng - a.Lng)

	sinDLat := math.Sin(dLat / 2)
	sinDLng := math.Sin(dLng / 2)
	h := sinDLat*sinDLat + math.Cos(lat1)*math.Cos(lat2)*sinDLng*sinDLng
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, h)

	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// DistanceM is DistanceKm in meters
func DistanceM(a, b GeoPoint) float64 {
	return DistanceKm(a, b) * 1000
}

// BearingDeg returns the initial compass bearing from one point to another
// in [0, 360). Coincident points yield 0.
func BearingDeg(from, to GeoPoint) float64 {
	if from == to {
		return 0
	}
	lat1 := toRad(from.Lat)
	lat2 := toRad(to.Lat)
	dLng := toRad(to.Lng - from.Lng)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)

	b := math.Mod(toDeg(math.Atan2(y, x))+360, 360)
	if b >= 360 {
		b = 0
	}
	return b
}

// normalizeAngle maps an angle difference in degrees into (-180, 180]
func normalizeAngle(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg <= -180 {
		deg += 360
	} else if deg > 180 {
		deg -= 360
	}
	return deg
}

// cumulativeM returns, for every point, the along-route distance from the first point in meters
func cumulativeM(points []RoutePoint) []float64 {
	cum := make([]float64, len(points))
	for i := 1; i < len(points); i++ {
		cum[i] = cum[i-1] + DistanceM(points[i-1].GeoPoint, points[i].GeoPoint)
	}
	return cum
}

// PathLengthKm sums consecutive haversine distances along a polyline
func PathLengthKm(points []GeoPoint) float64 {
	total := 0.0
	for i := 1; i < len(points); i++ {
		total += DistanceKm(points[i-1], points[i])
	}
	return total
}

// Geo returns the positions of the route's points
func (r Route) Geo() []GeoPoint {
	out := make([]GeoPoint, len(r.Points))
	for i, p := range r.Points {
		out[i] = p.GeoPoint
	}
	return out
}

// IsClosed reports whether the route ends where it starts
func (r Route) IsClosed() bool {
	n := len(r.Points)
	return n >= 2 && r.Points[0].GeoPoint == r.Points[n-1].GeoPoint
}
