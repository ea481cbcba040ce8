package nav

import "math"

var testOrigin = GeoPoint{Lat: 47.6, Lng: -122.3}

// offsetM moves p by north and east meters on a local flat approximation
func offsetM(p GeoPoint, northM, eastM float64) GeoPoint {
	dLat := toDeg(northM / 1000 / earthRadiusKm)
	dLng := toDeg(eastM/1000/earthRadiusKm) / math.Cos(toRad(p.Lat))
	return GeoPoint{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

// leg is a number of steps in a compass direction given as (north, east)
// unit components.
type leg struct {
	steps       int
	north, east float64
}

// walk builds a route from start taking steps of stepM meters
func walk(start GeoPoint, stepM float64, legs ...leg) Route {
	points := []RoutePoint{{GeoPoint: start}}
	cur := start
	for _, l := range legs {
		for i := 0; i < l.steps; i++ {
			cur = offsetM(cur, l.north*stepM, l.east*stepM)
			points = append(points, RoutePoint{GeoPoint: cur})
		}
	}
	r := Route{Points: points}
	r.EstimatedDistanceKm = PathLengthKm(r.Geo())
	return r
}

// squareLoop is a clockwise 1km square of 401 points spaced 10m, corners at
// 100, 200 and 300, whose last point is exactly its first.
func squareLoop() Route {
	r := walk(testOrigin, 10,
		leg{steps: 100, north: 1},
		leg{steps: 100, east: 1},
		leg{steps: 100, north: -1},
		leg{steps: 100, east: -1},
	)
	r.Points[len(r.Points)-1] = RoutePoint{GeoPoint: testOrigin}
	return r
}

// northThenEast runs 100 steps north and then turns right for 20 steps east
func northThenEast() Route {
	return walk(testOrigin, 10, leg{steps: 100, north: 1}, leg{steps: 20, east: 1})
}

func ptr(f float64) *float64 { return &f }
