package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPClient abstracts HTTP operations for testability.
// *http.Client satisfies it.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// GraphHopper queries the round_trip algorithm of a GraphHopper server
type GraphHopper struct {
	baseURL string
	apiKey  string
	profile Profile
	locale  string
	client  HTTPClient
}

// NewGraphHopper creates a client for the configured engine. A nil client
// falls back to http.DefaultClient; timeouts are applied per request context.
func NewGraphHopper(cfg NavConfig, client HTTPClient) *GraphHopper {
	if client == nil {
		client = http.DefaultClient
	}
	profile := cfg.Profile
	if profile == "" {
		profile = DefaultProfile
	}
	return &GraphHopper{
		baseURL: strings.TrimSuffix(cfg.engineURL(), "/"),
		apiKey:  cfg.GraphHopperAPIKey,
		profile: profile,
		locale:  cfg.Locale,
		client:  client,
	}
}

type ghPath struct {
	Distance float64  `json:"distance"` // meters
	Time     float64  `json:"time"`     // milliseconds
	Ascend   float64  `json:"ascend"`
	Descend  float64  `json:"descend"`
	Points   ghPoints `json:"points"`
}

type ghResponse struct {
	Paths []ghPath `json:"paths"`
}

type ghError struct {
	Message string `json:"message"`
}

// ghPoints accepts both geometry shapes GraphHopper emits: an object with
// [lng, lat, ele?] coordinates, or an encoded polyline string.
type ghPoints []RoutePoint

func (p *ghPoints) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var encoded string
		if err := json.Unmarshal(data, &encoded); err != nil {
			return err
		}
		points, err := decodeEncodedPoints(encoded)
		if err != nil {
			return err
		}
		*p = points
		return nil
	}

	var geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(data, &geometry); err != nil {
		return err
	}
	points := make([]RoutePoint, 0, len(geometry.Coordinates))
	for i, c := range geometry.Coordinates {
		if len(c) < 2 {
			return fmt.Errorf("coordinate %d has %d values", i, len(c))
		}
		rp := RoutePoint{GeoPoint: GeoPoint{Lat: c[1], Lng: c[0]}}
		if len(c) > 2 {
			ele := c[2]
			rp.Elevation = &ele
		}
		points = append(points, rp)
	}
	*p = points
	return nil
}

// decodeEncodedPoints decodes an encoded geometry whose dimension is not
// stated in the response. Elevation is always requested, so three values
// per point are tried first; a server without elevation data sends two.
func decodeEncodedPoints(encoded string) ([]RoutePoint, error) {
	points, err := decodePolyline(encoded, true)
	if err == nil && validCoordinates(points) {
		return points, nil
	}
	points, err2D := decodePolyline(encoded, false)
	if err2D != nil {
		if err != nil {
			return nil, err
		}
		return nil, err2D
	}
	return points, nil
}

func validCoordinates(points []RoutePoint) bool {
	for _, p := range points {
		if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
			return false
		}
	}
	return true
}

// decodePolyline decodes GraphHopper's encoded polyline (precision 1e5,
// elevation scaled by 100 when present). Every point must be complete.
func decodePolyline(encoded string, includeElevation bool) ([]RoutePoint, error) {
	const factor = 1e5

	var points []RoutePoint
	lat, lng, ele := 0, 0, 0
	index := 0

	// Consume varint bits until we run out
	next := func() (int, error) {
		shift, result := 0, 0
		for {
			if index >= len(encoded) {
				return 0, fmt.Errorf("truncated polyline at offset %d", index)
			}
			b := int(encoded[index]) - 63
			index++
			result |= (b & 0x1f) << shift
			shift += 5
			if b < 0x20 {
				break
			}
		}
		// check if we need to go negative or not
		if result&1 != 0 {
			return ^(result >> 1), nil
		}
		return result >> 1, nil
	}

	for index < len(encoded) {
		dLat, err := next()
		if err != nil {
			return nil, err
		}
		dLng, err := next()
		if err != nil {
			return nil, err
		}
		lat += dLat
		lng += dLng

		rp := RoutePoint{GeoPoint: GeoPoint{Lat: float64(lat) / factor, Lng: float64(lng) / factor}}
		if includeElevation {
			if index >= len(encoded) {
				return nil, fmt.Errorf("polyline point %d has no elevation", len(points))
			}
			dEle, err := next()
			if err != nil {
				return nil, err
			}
			ele += dEle
			e := float64(ele) / 100
			rp.Elevation = &e
		}
		points = append(points, rp)
	}
	return points, nil
}

func (g *GraphHopper) roundTripURL(center GeoPoint, distanceM, seed int) string {
	params := url.Values{
		"point":               {fmt.Sprintf("%.6f,%.6f", center.Lat, center.Lng)},
		"profile":             {string(g.profile)},
		"algorithm":           {"round_trip"},
		"round_trip.distance": {strconv.Itoa(distanceM)},
		"round_trip.seed":     {strconv.Itoa(seed)},
		"elevation":           {"true"},
		"points_encoded":      {"false"},
	}
	if g.locale != "" {
		params.Set("locale", g.locale)
	}
	if g.apiKey != "" {
		params.Set("key", g.apiKey)
	}
	return fmt.Sprintf("%s/route?%s", g.baseURL, params.Encode())
}

// RoundTrip requests one loop of roughly distanceM meters through center.
// A non-2xx status, an empty paths array, a path shorter than two points or
// one without a positive distance is an error; the caller treats any error
// as "no candidate".
func (g *GraphHopper) RoundTrip(ctx context.Context, center GeoPoint, distanceM, seed int) (*RouteOption, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.roundTripURL(center, distanceM, seed), nil)
	if err != nil {
		return nil, fmt.Errorf("error building graphhopper request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to graphhopper: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Try to parse the error response
		var ghErr ghError
		if err := json.Unmarshal(body, &ghErr); err == nil && ghErr.Message != "" {
			return nil, fmt.Errorf("graphhopper returned status %d: %s", resp.StatusCode, ghErr.Message)
		}
		return nil, fmt.Errorf("graphhopper returned status %d: %s", resp.StatusCode, truncate(string(body), 100))
	}

	var ghResp ghResponse
	if err := json.Unmarshal(body, &ghResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if len(ghResp.Paths) == 0 {
		return nil, fmt.Errorf("graphhopper returned no paths")
	}

	path := ghResp.Paths[0]
	if len(path.Points) < 2 {
		return nil, fmt.Errorf("graphhopper path has %d points", len(path.Points))
	}
	if !(path.Distance > 0) || math.IsInf(path.Distance, 0) {
		return nil, fmt.Errorf("graphhopper path has invalid distance %v", path.Distance)
	}

	return &RouteOption{
		Route: Route{
			Points:               path.Points,
			EstimatedDistanceKm:  path.Distance / 1000,
			EstimatedUphillGainM: path.Ascend,
		},
		TotalTime: path.Time / 1000,
		Ascend:    path.Ascend,
		Descend:   path.Descend,
		Method:    MethodEngine,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
