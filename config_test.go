package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nwah/looprun-server/nav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("reads toml and fills defaults", func(t *testing.T) {
		path := writeConfig(t, `
port = ":9090"

[nav]
graphhopper_url = "http://localhost:8989"
profile = "hike"
attempt_timeout = "5s"

[nav.tracker]
arrival_m = 20
`)
		require.NoError(t, LoadConfig(path))

		cfg := GetConfig()
		assert.Equal(t, ":9090", cfg.Port)
		assert.Equal(t, "http://localhost:8989", cfg.Nav.GraphHopperURL)
		assert.Equal(t, nav.ProfileHike, cfg.Nav.Profile)
		assert.Equal(t, 5*time.Second, cfg.Nav.AttemptTimeout)
		assert.Equal(t, 20.0, cfg.Nav.Tracker.ArrivalM)
		// unset tracker fields keep their defaults
		assert.Equal(t, 60, cfg.Nav.Tracker.AheadWindow)
		assert.Len(t, cfg.Nav.Attempts, len(nav.DefaultAttempts))
		assert.Equal(t, GetNavConfig(), cfg.Nav)
	})

	t.Run("missing file gives a fallback only server", func(t *testing.T) {
		require.NoError(t, LoadConfig(filepath.Join(t.TempDir(), "absent.toml")))

		cfg := GetConfig()
		assert.Equal(t, ":8080", cfg.Port)
		assert.False(t, cfg.Nav.EngineConfigured())
		assert.Equal(t, nav.DefaultNavConfig().Turns, cfg.Nav.Turns)
	})

	t.Run("environment overrides the file", func(t *testing.T) {
		path := writeConfig(t, `
port = ":9090"

[nav]
graphhopper_url = "http://localhost:8989"
`)
		t.Setenv("PORT", ":7000")
		t.Setenv("GRAPHHOPPER_API_KEY", "secret")
		t.Setenv("NOMINATIM_URL", "https://nominatim.example.org")
		require.NoError(t, LoadConfig(path))

		cfg := GetConfig()
		assert.Equal(t, ":7000", cfg.Port)
		assert.Equal(t, "http://localhost:8989", cfg.Nav.GraphHopperURL)
		assert.Equal(t, "secret", cfg.Nav.GraphHopperAPIKey)
		assert.Equal(t, "https://nominatim.example.org", cfg.Nav.NominatimURL)
	})

	t.Run("invalid toml", func(t *testing.T) {
		path := writeConfig(t, "port = \n")
		assert.Error(t, LoadConfig(path))
	})

	t.Run("invalid profile", func(t *testing.T) {
		path := writeConfig(t, "[nav]\nprofile = \"car\"\n")
		err := LoadConfig(path)
		assert.ErrorContains(t, err, "invalid profile")
	})

	t.Run("inconsistent tunables", func(t *testing.T) {
		tests := []struct {
			name string
			body string
			want string
		}{
			{"start past the start search", "[nav.tracker]\nstart_fraction = 0.3\n", "start_fraction < start_search_fraction"},
			{"start equal to the start search", "[nav.tracker]\nstart_fraction = 0.25\n", "start_fraction < start_search_fraction"},
			{"start search covers the whole route", "[nav.tracker]\nstart_search_fraction = 1.0\n", "start_search_fraction < 1"},
			{"negative start", "[nav.tracker]\nstart_fraction = -0.1\n", "0 < start_fraction"},
			{"tail past the end", "[nav.tracker]\ntail_fraction = 1.2\n", "tail_fraction"},
			{"bear band below straight", "[nav.turns]\nstraight_deg = 50\n", "straight_deg < bear_deg"},
			{"turn band below bear", "[nav.turns]\nturn_deg = 40\n", "bear_deg < turn_deg"},
			{"turn band past 180", "[nav.turns]\nturn_deg = 200\n", "turn_deg <= 180"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := LoadConfig(writeConfig(t, tt.body))
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid nav config")
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})

	t.Run("tightened tunables", func(t *testing.T) {
		path := writeConfig(t, `
[nav.tracker]
start_fraction = 0.1
start_search_fraction = 0.2
tail_fraction = 0.9

[nav.turns]
straight_deg = 10
bear_deg = 40
turn_deg = 120
`)
		require.NoError(t, LoadConfig(path))
		assert.Equal(t, 0.2, GetNavConfig().Tracker.StartSearchFraction)
		assert.Equal(t, 120.0, GetNavConfig().Turns.TurnDeg)
	})
}
