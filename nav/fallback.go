package nav

import (
	"fmt"
	"math"
)

// fallbackFactor scales the requested distance for variant i:
// 1.00, 0.95, 1.05, 0.90, 1.10, ... so earlier variants stay closer to the request.
func fallbackFactor(i int) float64 {
	if i == 0 {
		return 1
	}
	step := float64((i + 1) / 2)
	if i%2 == 1 {
		return 1 - 0.05*step
	}
	return 1 + 0.05*step
}

// Fallback builds count closed loops that start and end exactly at center,
// without any network access. Variants differ in size, heading and wobble.
func Fallback(center GeoPoint, distanceKm float64, count int, cfg FallbackConfig) []RouteOption {
	if cfg.Segments < 3 {
		cfg.Segments = 40
	}
	if cfg.PaceMinPerKm <= 0 {
		cfg.PaceMinPerKm = 12
	}

	routes := make([]RouteOption, 0, count)
	for i := 0; i < count; i++ {
		factor := fallbackFactor(i)
		// never let a large count shrink a variant to nothing
		if factor < 0.5 {
			factor = 0.5 + 0.01*float64(i)
		}
		adjustedKm := distanceKm * factor

		// the requested distance is the circumference
		radiusKm := adjustedKm / (2 * math.Pi)
		latRadiusDeg := toDeg(radiusKm / earthRadiusKm)
		lngRadiusDeg := latRadiusDeg / math.Cos(toRad(center.Lat))

		// 0°, 120°, 240°, then the same three shifted by 30° per round
		direction := float64(i%3)*2*math.Pi/3 + float64(i/3)*math.Pi/6

		// circle center sits one radius away so center lies on the circle
		circleLat := center.Lat - math.Sin(direction)*latRadiusDeg
		circleLng := center.Lng - math.Cos(direction)*lngRadiusDeg

		points := make([]RoutePoint, cfg.Segments+1)
		for j := 0; j <= cfg.Segments; j++ {
			angle := float64(j)/float64(cfg.Segments)*2*math.Pi + direction
			wobble := 0.92 + 0.16*math.Sin(3*angle+float64(i))

			points[j] = RoutePoint{GeoPoint: GeoPoint{
				Lat: circleLat + math.Sin(angle)*latRadiusDeg*wobble,
				Lng: circleLng + math.Cos(angle)*lngRadiusDeg*wobble,
			}}
		}
		points[0] = RoutePoint{GeoPoint: center}
		points[len(points)-1] = RoutePoint{GeoPoint: center}

		name := "Recommended loop"
		if i > 0 {
			name = fmt.Sprintf("Loop %d", i+1)
		}

		routes = append(routes, RouteOption{
			Route: Route{
				Points:              points,
				EstimatedDistanceKm: adjustedKm,
			},
			ID:        fmt.Sprintf("fallback-%d", i+1),
			Name:      name,
			TotalTime: adjustedKm * cfg.PaceMinPerKm * 60,
			Method:    MethodFallback,
		})
	}
	return routes
}
