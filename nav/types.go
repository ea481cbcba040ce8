package nav

import "time"

// NavConfig holds navigation-specific configuration
type NavConfig struct {
	GraphHopperURL    string         `toml:"graphhopper_url"`
	GraphHopperAPIKey string         `toml:"graphhopper_api_key"`
	NominatimURL      string         `toml:"nominatim_url"`
	Profile           Profile        `toml:"profile"`
	Locale            string         `toml:"locale"`
	AttemptTimeout    time.Duration  `toml:"attempt_timeout"`
	Attempts          []Attempt      `toml:"attempts"`
	DistanceTiers     []float64      `toml:"distance_tiers"`
	Dedupe            DedupeConfig   `toml:"dedupe"`
	Fallback          FallbackConfig `toml:"fallback"`
	Turns             TurnConfig     `toml:"turns"`
	Tracker           TrackerConfig  `toml:"tracker"`
}

// Attempt is one entry of the round-trip attempt menu. The requested
// distance is scaled by Factor and the random seed shifted by SeedOffset.
type Attempt struct {
	Factor     float64 `toml:"factor"`
	SeedOffset int     `toml:"seed_offset"`
}

// DedupeConfig holds the thresholds under which two candidates are the same loop
type DedupeConfig struct {
	DistanceM float64 `toml:"distance_m"`
	AscendM   float64 `toml:"ascend_m"`
}

// FallbackConfig shapes the geometric loops used when the engine gives nothing
type FallbackConfig struct {
	Segments     int     `toml:"segments"`
	PaceMinPerKm float64 `toml:"pace_min_per_km"`
}

// TurnConfig holds turn detection parameters
type TurnConfig struct {
	LookAhead    int     `toml:"look_ahead"`
	ThresholdDeg float64 `toml:"threshold_deg"`
	MinSpacingM  float64 `toml:"min_spacing_m"`
	StraightDeg  float64 `toml:"straight_deg"`
	BearDeg      float64 `toml:"bear_deg"`
	TurnDeg      float64 `toml:"turn_deg"`
}

// TrackerConfig holds live progress matching parameters. Fractions are
// of the guide route's point count, windows are in point indices.
type TrackerConfig struct {
	StartFraction       float64 `toml:"start_fraction"`
	StartSearchFraction float64 `toml:"start_search_fraction"`
	TailFraction        float64 `toml:"tail_fraction"`
	BackWindow          int     `toml:"back_window"`
	AheadWindow         int     `toml:"ahead_window"`
	MaxBacktrack        int     `toml:"max_backtrack"`
	ArrivalM            float64 `toml:"arrival_m"`
	RecordMinStepM      float64 `toml:"record_min_step_m"`
}

// GeoPoint is a WGS84 position in degrees
type GeoPoint struct {
	Lat float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" validate:"gte=-180,lte=180"`
}

// RoutePoint is a route vertex with an optional elevation in meters
type RoutePoint struct {
	GeoPoint
	Elevation *float64 `json:"elevation"`
}

// Route is a planned polyline. Closed loops have first == last.
type Route struct {
	Points               []RoutePoint `json:"points" validate:"required,min=2,dive"`
	EstimatedDistanceKm  float64      `json:"estimatedDistanceKm" validate:"gte=0"`
	EstimatedUphillGainM float64      `json:"estimatedUphillGainM"`
}

// RouteOption is a generated candidate loop
type RouteOption struct {
	Route
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	TotalTime float64 `json:"totalTime"` // in seconds
	Ascend    float64 `json:"ascend"`    // in meters
	Descend   float64 `json:"descend"`   // in meters
	Method    Method  `json:"method"`
}

// Instruction is what the runner is told to do next
type Instruction struct {
	Kind InstructionKind `json:"kind"`
	Text string          `json:"text"`
	Icon string          `json:"icon"`
}

// TurnPoint is a precomputed direction change along a guide route
type TurnPoint struct {
	Index              int         `json:"index"`
	TurnAngleDeg       float64     `json:"turnAngleDeg"` // positive is right
	Instruction        Instruction `json:"instruction"`
	DistanceFromStartM float64     `json:"distanceFromStartM"`
}

// Fix is one position sample delivered to a navigation session
type Fix struct {
	Position GeoPoint `json:"position"`
	Heading  *float64 `json:"heading,omitempty"`
}

// Guidance is the tracker output for a single fix
type Guidance struct {
	ProgressIndex int         `json:"progressIndex"`
	Started       bool        `json:"started"`
	Instruction   Instruction `json:"instruction"`
	DistanceM     float64     `json:"distanceM"`  // to the next turn, or to the finish
	TurnIndex     int         `json:"turnIndex"`  // -1 when no turn remains
	RemainingM    float64     `json:"remainingM"` // to the finish
	OffRouteM     float64     `json:"offRouteM"`  // fix to matched route point
	Heading       *float64    `json:"heading,omitempty"`
}

// GenerateRequest represents the parameters for a loop generation request
type GenerateRequest struct {
	Center     GeoPoint `json:"center"`
	DistanceKm float64  `json:"distanceKm" validate:"gt=0,lte=100"`
	Count      int      `json:"count" validate:"gte=1,lte=10"`
}

// GenerateResponse represents the response from the loop endpoint
type GenerateResponse struct {
	Routes []RouteOption `json:"routes"`
}

// StartSessionRequest represents the body of a session start request
type StartSessionRequest struct {
	Route RouteOption `json:"route"`
}

// StartSessionResponse is returned when a navigation session starts
type StartSessionResponse struct {
	ID    string      `json:"id"`
	Turns []TurnPoint `json:"turns"`
}

// GeocodeResult is a place found for a free text query
type GeocodeResult struct {
	Name       string  `json:"name"`    // Place name or street address
	Address    string  `json:"address"` // Simplified address (street, postal code, city)
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Importance float64 `json:"importance"` // Relevance score from 0 to 1
	Country    string  `json:"country"`    // Two-letter ISO country code
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
