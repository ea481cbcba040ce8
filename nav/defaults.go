package nav

import (
	"fmt"
	"os"
	"time"
)

// DefaultAttempts is the round-trip attempt menu. GraphHopper's
// round_trip.distance is a beeline budget rather than a path length, and
// results usually come back shorter than requested, so the menu leans long.
var DefaultAttempts = []Attempt{
	{Factor: 1.0, SeedOffset: 0},
	{Factor: 1.0, SeedOffset: 1000},
	{Factor: 1.0, SeedOffset: 2000},
	{Factor: 1.2, SeedOffset: 100},
	{Factor: 1.3, SeedOffset: 200},
	{Factor: 1.4, SeedOffset: 300},
	{Factor: 1.5, SeedOffset: 400},
	{Factor: 0.9, SeedOffset: 500},
	{Factor: 0.8, SeedOffset: 600},
	{Factor: 0.7, SeedOffset: 700},
	{Factor: 1.8, SeedOffset: 800},
	{Factor: 2.0, SeedOffset: 900},
}

// DefaultDistanceTiers are the shares of the requested distance tried in turn
var DefaultDistanceTiers = []float64{1.0, 0.8, 0.6}

// DefaultNavConfig returns the navigation configuration with every tunable set
func DefaultNavConfig() NavConfig {
	return NavConfig{
		Profile:        DefaultProfile,
		Locale:         "en",
		AttemptTimeout: 15 * time.Second,
		Attempts:       append([]Attempt(nil), DefaultAttempts...),
		DistanceTiers:  append([]float64(nil), DefaultDistanceTiers...),
		Dedupe: DedupeConfig{
			DistanceM: 50,
			AscendM:   5,
		},
		Fallback: FallbackConfig{
			Segments:     40,
			PaceMinPerKm: 12,
		},
		Turns: TurnConfig{
			LookAhead:    3,
			ThresholdDeg: 30,
			MinSpacingM:  30,
			StraightDeg:  15,
			BearDeg:      45,
			TurnDeg:      135,
		},
		Tracker: TrackerConfig{
			StartFraction:       0.05,
			StartSearchFraction: 0.25,
			TailFraction:        0.85,
			BackWindow:          20,
			AheadWindow:         60,
			MaxBacktrack:        5,
			ArrivalM:            30,
			RecordMinStepM:      5,
		},
	}
}

// WithDefaults fills every zero valued field from DefaultNavConfig, so a
// tunable cannot be configured to exactly zero.
func (c NavConfig) WithDefaults() NavConfig {
	d := DefaultNavConfig()
	if c.Profile == "" {
		c.Profile = d.Profile
	}
	if c.Locale == "" {
		c.Locale = d.Locale
	}
	if c.AttemptTimeout == 0 {
		c.AttemptTimeout = d.AttemptTimeout
	}
	if len(c.Attempts) == 0 {
		c.Attempts = d.Attempts
	}
	if len(c.DistanceTiers) == 0 {
		c.DistanceTiers = d.DistanceTiers
	}
	c.Dedupe.DistanceM = orFloat(c.Dedupe.DistanceM, d.Dedupe.DistanceM)
	c.Dedupe.AscendM = orFloat(c.Dedupe.AscendM, d.Dedupe.AscendM)
	c.Fallback.Segments = orInt(c.Fallback.Segments, d.Fallback.Segments)
	c.Fallback.PaceMinPerKm = orFloat(c.Fallback.PaceMinPerKm, d.Fallback.PaceMinPerKm)

	c.Turns.LookAhead = orInt(c.Turns.LookAhead, d.Turns.LookAhead)
	c.Turns.ThresholdDeg = orFloat(c.Turns.ThresholdDeg, d.Turns.ThresholdDeg)
	c.Turns.MinSpacingM = orFloat(c.Turns.MinSpacingM, d.Turns.MinSpacingM)
	c.Turns.StraightDeg = orFloat(c.Turns.StraightDeg, d.Turns.StraightDeg)
	c.Turns.BearDeg = orFloat(c.Turns.BearDeg, d.Turns.BearDeg)
	c.Turns.TurnDeg = orFloat(c.Turns.TurnDeg, d.Turns.TurnDeg)

	c.Tracker.StartFraction = orFloat(c.Tracker.StartFraction, d.Tracker.StartFraction)
	c.Tracker.StartSearchFraction = orFloat(c.Tracker.StartSearchFraction, d.Tracker.StartSearchFraction)
	c.Tracker.TailFraction = orFloat(c.Tracker.TailFraction, d.Tracker.TailFraction)
	c.Tracker.BackWindow = orInt(c.Tracker.BackWindow, d.Tracker.BackWindow)
	c.Tracker.AheadWindow = orInt(c.Tracker.AheadWindow, d.Tracker.AheadWindow)
	c.Tracker.MaxBacktrack = orInt(c.Tracker.MaxBacktrack, d.Tracker.MaxBacktrack)
	c.Tracker.ArrivalM = orFloat(c.Tracker.ArrivalM, d.Tracker.ArrivalM)
	c.Tracker.RecordMinStepM = orFloat(c.Tracker.RecordMinStepM, d.Tracker.RecordMinStepM)
	return c
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

// Validate checks the tunables for values that would break generation or tracking
func (c NavConfig) Validate() error {
	if !c.Profile.IsValid() {
		return fmt.Errorf("invalid profile %q: must be one of: %s, %s, %s", c.Profile, ProfileFoot, ProfileHike, ProfileBike)
	}
	if c.AttemptTimeout < 0 {
		return fmt.Errorf("attempt_timeout must not be negative")
	}
	for i, a := range c.Attempts {
		if a.Factor <= 0 {
			return fmt.Errorf("attempts[%d]: factor must be positive, got %v", i, a.Factor)
		}
	}
	for i, tier := range c.DistanceTiers {
		if tier <= 0 || tier > 1 {
			return fmt.Errorf("distance_tiers[%d]: must be in (0, 1], got %v", i, tier)
		}
	}
	if c.Fallback.Segments < 3 {
		return fmt.Errorf("fallback.segments must be at least 3")
	}
	if c.Turns.LookAhead < 1 {
		return fmt.Errorf("turns.look_ahead must be at least 1")
	}
	if !(c.Turns.StraightDeg >= 0 && c.Turns.StraightDeg < c.Turns.BearDeg &&
		c.Turns.BearDeg < c.Turns.TurnDeg && c.Turns.TurnDeg <= 180) {
		return fmt.Errorf("turn bands must satisfy 0 <= straight_deg < bear_deg < turn_deg <= 180")
	}
	if c.Tracker.MaxBacktrack < 0 || c.Tracker.BackWindow < 0 || c.Tracker.AheadWindow < 1 {
		return fmt.Errorf("tracker windows must be non-negative and ahead_window at least 1")
	}
	// the start search window has to reach past the index that marks the start
	if !(c.Tracker.StartFraction > 0 && c.Tracker.StartFraction < c.Tracker.StartSearchFraction &&
		c.Tracker.StartSearchFraction < 1) {
		return fmt.Errorf("tracker fractions must satisfy 0 < start_fraction < start_search_fraction < 1")
	}
	if !(c.Tracker.TailFraction > 0 && c.Tracker.TailFraction < 1) {
		return fmt.Errorf("tracker.tail_fraction must be in (0, 1)")
	}
	return nil
}

// FromEnv overrides the endpoints and key with GRAPHHOPPER_URL,
// GRAPHHOPPER_API_KEY and NOMINATIM_URL when they are set.
func (c NavConfig) FromEnv() NavConfig {
	if v := os.Getenv("GRAPHHOPPER_URL"); v != "" {
		c.GraphHopperURL = v
	}
	if v := os.Getenv("GRAPHHOPPER_API_KEY"); v != "" {
		c.GraphHopperAPIKey = v
	}
	if v := os.Getenv("NOMINATIM_URL"); v != "" {
		c.NominatimURL = v
	}
	return c
}

// EngineConfigured reports whether a GraphHopper endpoint can be reached
func (c NavConfig) EngineConfigured() bool {
	return c.GraphHopperURL != "" || c.GraphHopperAPIKey != ""
}

func (c NavConfig) engineURL() string {
	if c.GraphHopperURL != "" {
		return c.GraphHopperURL
	}
	return defaultGraphHopperURL
}
