package nav

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGraphHopper(t *testing.T, handler http.HandlerFunc) *GraphHopper {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultNavConfig()
	cfg.GraphHopperURL = server.URL + "/"
	cfg.GraphHopperAPIKey = "test-key"
	return NewGraphHopper(cfg, server.Client())
}

// encodeValue appends one signed value in polyline encoding
func encodeValue(sb *strings.Builder, v int) {
	u := v << 1
	if v < 0 {
		u = ^u
	}
	for u >= 0x20 {
		sb.WriteByte(byte((0x20 | (u & 0x1f)) + 63))
		u >>= 5
	}
	sb.WriteByte(byte(u + 63))
}

func TestDecodePolyline(t *testing.T) {
	t.Parallel()

	t.Run("two dimensional", func(t *testing.T) {
		t.Parallel()
		points, err := decodePolyline("_p~iF~ps|U_ulLnnqC_mqNvxq`@", false)
		require.NoError(t, err)

		got := make([]GeoPoint, len(points))
		for i, p := range points {
			got[i] = p.GeoPoint
			assert.Nil(t, p.Elevation)
		}
		want := []GeoPoint{
			{Lat: 38.5, Lng: -120.2},
			{Lat: 40.7, Lng: -120.95},
			{Lat: 43.252, Lng: -126.453},
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("decoded points mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("with elevation", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		// absolute values are 47.60000,-122.30000,35.00 then 47.60010,-122.29990,36.50
		for _, v := range []int{4760000, -12230000, 3500, 10, 10, 150} {
			encodeValue(&sb, v)
		}

		points, err := decodePolyline(sb.String(), true)
		require.NoError(t, err)
		require.Len(t, points, 2)
		assert.InDelta(t, 47.6001, points[1].Lat, 1e-9)
		assert.InDelta(t, -122.2999, points[1].Lng, 1e-9)
		require.NotNil(t, points[0].Elevation)
		assert.InDelta(t, 35.0, *points[0].Elevation, 1e-9)
		require.NotNil(t, points[1].Elevation)
		assert.InDelta(t, 36.5, *points[1].Elevation, 1e-9)
	})

	t.Run("truncated", func(t *testing.T) {
		t.Parallel()
		_, err := decodePolyline("_p~iF~", false)
		assert.Error(t, err)
	})

	t.Run("point without elevation", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		for _, v := range []int{4760000, -12230000, 100, 0, 0, 100, -100, -100} {
			encodeValue(&sb, v)
		}
		_, err := decodePolyline(sb.String(), true)
		assert.ErrorContains(t, err, "no elevation")
	})
}

func TestDecodeEncodedPoints(t *testing.T) {
	t.Parallel()

	encode := func(values ...int) string {
		var sb strings.Builder
		for _, v := range values {
			encodeValue(&sb, v)
		}
		return sb.String()
	}

	t.Run("three values per point", func(t *testing.T) {
		t.Parallel()
		points, err := decodeEncodedPoints(encode(4760000, -12230000, 1000, 100, 0, 50, -100, 0, -50))
		require.NoError(t, err)
		require.Len(t, points, 3)
		for _, p := range points {
			assert.NotNil(t, p.Elevation)
		}
	})

	t.Run("two values per point", func(t *testing.T) {
		t.Parallel()
		points, err := decodeEncodedPoints(encode(4760000, -12230000, 100, 0, 0, 100, -100, -100))
		require.NoError(t, err)

		got := make([]GeoPoint, len(points))
		for i, p := range points {
			got[i] = p.GeoPoint
			assert.Nil(t, p.Elevation)
		}
		want := []GeoPoint{
			{Lat: 47.6, Lng: -122.3},
			{Lat: 47.601, Lng: -122.3},
			{Lat: 47.601, Lng: -122.299},
			{Lat: 47.6, Lng: -122.3},
		}
		if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
			t.Errorf("decoded points mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("neither pairs nor triples", func(t *testing.T) {
		t.Parallel()
		_, err := decodeEncodedPoints(encode(4760000, -12230000, 100, 0, 0))
		assert.Error(t, err)
	})
}

func TestGraphHopper_RoundTrip(t *testing.T) {
	t.Parallel()

	t.Run("sends round trip parameters", func(t *testing.T) {
		t.Parallel()
		requests := make(chan *url.URL, 1)
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			requests <- r.URL
			fmt.Fprint(w, `{"paths":[{"distance":5012.4,"time":3600000,"ascend":23.5,"descend":22.1,
				"points":{"type":"LineString","coordinates":[[-122.3,47.6,10.5],[-122.299,47.601,11.0],[-122.3,47.6,10.5]]}}]}`)
		})

		opt, err := gh.RoundTrip(context.Background(), testOrigin, 5000, 4242)
		require.NoError(t, err)

		u := <-requests
		got := u.Query()
		assert.Equal(t, "/route", u.Path)
		assert.Equal(t, "47.600000,-122.300000", got.Get("point"))
		assert.Equal(t, "foot", got.Get("profile"))
		assert.Equal(t, "round_trip", got.Get("algorithm"))
		assert.Equal(t, "5000", got.Get("round_trip.distance"))
		assert.Equal(t, "4242", got.Get("round_trip.seed"))
		assert.Equal(t, "true", got.Get("elevation"))
		assert.Equal(t, "false", got.Get("points_encoded"))
		assert.Equal(t, "en", got.Get("locale"))
		assert.Equal(t, "test-key", got.Get("key"))

		require.Len(t, opt.Points, 3)
		assert.Equal(t, GeoPoint{Lat: 47.601, Lng: -122.299}, opt.Points[1].GeoPoint)
		require.NotNil(t, opt.Points[1].Elevation)
		assert.Equal(t, 11.0, *opt.Points[1].Elevation)
		assert.InDelta(t, 5.0124, opt.EstimatedDistanceKm, 1e-9)
		assert.InDelta(t, 23.5, opt.EstimatedUphillGainM, 1e-9)
		assert.InDelta(t, 3600, opt.TotalTime, 1e-9)
		assert.Equal(t, 23.5, opt.Ascend)
		assert.Equal(t, 22.1, opt.Descend)
		assert.Equal(t, MethodEngine, opt.Method)
	})

	t.Run("accepts encoded points", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		for _, v := range []int{4760000, -12230000, 1000, 100, 0, 50, -100, 0, -50} {
			encodeValue(&sb, v)
		}
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"paths":[{"distance":2000,"time":1200000,"points":%q}]}`, sb.String())
		})

		opt, err := gh.RoundTrip(context.Background(), testOrigin, 2000, 1)
		require.NoError(t, err)
		require.Len(t, opt.Points, 3)
		assert.True(t, opt.IsClosed())
		require.NotNil(t, opt.Points[1].Elevation)
		assert.InDelta(t, 10.5, *opt.Points[1].Elevation, 1e-9)
	})

	t.Run("error status carries the engine message", func(t *testing.T) {
		t.Parallel()
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"message":"Point 0 is out of bounds"}`)
		})

		_, err := gh.RoundTrip(context.Background(), testOrigin, 5000, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 400")
		assert.Contains(t, err.Error(), "Point 0 is out of bounds")
	})

	t.Run("error status without json", func(t *testing.T) {
		t.Parallel()
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			fmt.Fprint(w, strings.Repeat("x", 500))
		})

		_, err := gh.RoundTrip(context.Background(), testOrigin, 5000, 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 502")
		assert.NotContains(t, err.Error(), strings.Repeat("x", 101))
	})

	t.Run("no paths", func(t *testing.T) {
		t.Parallel()
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"paths":[]}`)
		})

		_, err := gh.RoundTrip(context.Background(), testOrigin, 5000, 1)
		assert.ErrorContains(t, err, "no paths")
	})

	t.Run("single point path", func(t *testing.T) {
		t.Parallel()
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"paths":[{"distance":0,"points":{"coordinates":[[-122.3,47.6]]}}]}`)
		})

		_, err := gh.RoundTrip(context.Background(), testOrigin, 5000, 1)
		assert.ErrorContains(t, err, "1 points")
	})

	t.Run("accepts encoded points without elevation", func(t *testing.T) {
		t.Parallel()
		var sb strings.Builder
		for _, v := range []int{4760000, -12230000, 100, 0, 0, 100, -100, -100} {
			encodeValue(&sb, v)
		}
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `{"paths":[{"distance":340,"time":240000,"points":%q}]}`, sb.String())
		})

		opt, err := gh.RoundTrip(context.Background(), testOrigin, 300, 1)
		require.NoError(t, err)
		require.Len(t, opt.Points, 4)
		assert.True(t, opt.IsClosed())
		assert.InDelta(t, 47.601, opt.Points[2].Lat, 1e-9)
		assert.InDelta(t, -122.299, opt.Points[2].Lng, 1e-9)
		assert.Nil(t, opt.Points[2].Elevation)
	})

	t.Run("path without a positive distance", func(t *testing.T) {
		t.Parallel()
		bodies := map[string]string{
			"missing":  `{"paths":[{"time":1000,"points":{"coordinates":[[-122.3,47.6],[-122.299,47.601],[-122.3,47.6]]}}]}`,
			"zero":     `{"paths":[{"distance":0,"time":1000,"points":{"coordinates":[[-122.3,47.6],[-122.299,47.601],[-122.3,47.6]]}}]}`,
			"negative": `{"paths":[{"distance":-12,"time":1000,"points":{"coordinates":[[-122.3,47.6],[-122.299,47.601],[-122.3,47.6]]}}]}`,
		}
		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				t.Parallel()
				gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
					fmt.Fprint(w, body)
				})

				_, err := gh.RoundTrip(context.Background(), testOrigin, 5000, 1)
				assert.ErrorContains(t, err, "invalid distance")
			})
		}
	})

	t.Run("context cancellation", func(t *testing.T) {
		t.Parallel()
		gh := newTestGraphHopper(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"paths":[]}`)
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := gh.RoundTrip(ctx, testOrigin, 5000, 1)
		require.Error(t, err)
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

func TestNewGraphHopper_HostedURL(t *testing.T) {
	t.Parallel()

	cfg := DefaultNavConfig()
	cfg.GraphHopperAPIKey = "abc"
	gh := NewGraphHopper(cfg, nil)

	u, err := url.Parse(gh.roundTripURL(testOrigin, 1000, 7))
	require.NoError(t, err)
	assert.Equal(t, "graphhopper.com", u.Host)
	assert.Equal(t, "/api/1/route", u.Path)
	assert.Equal(t, "abc", u.Query().Get("key"))
}
