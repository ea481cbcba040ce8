package nav

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tkrajina/gpxgo/gpx"
)

// ExportFormat is a file format routes can be written in
type ExportFormat string

const (
	FormatGPX     ExportFormat = "gpx"
	FormatGeoJSON ExportFormat = "geojson"
)

// IsValid checks if the export format is valid
func (f ExportFormat) IsValid() bool {
	return f == FormatGPX || f == FormatGeoJSON
}

// ContentType returns the MIME type for the format
func (f ExportFormat) ContentType() string {
	if f == FormatGPX {
		return "application/gpx+xml"
	}
	return "application/geo+json"
}

// RoutesGPX writes each route as a GPX 1.1 track
func RoutesGPX(routes ...RouteOption) ([]byte, error) {
	g := &gpx.GPX{Version: "1.1", Creator: "looprun-server"}
	if len(routes) == 1 {
		g.Name = routes[0].Name
	}

	for _, r := range routes {
		seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, 0, len(r.Points))}
		for _, p := range r.Points {
			pt := gpx.GPXPoint{Point: gpx.Point{Latitude: p.Lat, Longitude: p.Lng}}
			if p.Elevation != nil {
				pt.Elevation = *gpx.NewNullableFloat64(*p.Elevation)
			}
			seg.Points = append(seg.Points, pt)
		}
		g.Tracks = append(g.Tracks, gpx.GPXTrack{
			Name:        r.Name,
			Description: fmt.Sprintf("%s %.2fkm", r.ID, r.EstimatedDistanceKm),
			Segments:    []gpx.GPXTrackSegment{seg},
		})
	}

	return g.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}

// ReadGPX returns every track point in a GPX document, or its route
// points when it has no tracks.
func ReadGPX(data []byte) ([]RoutePoint, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("error parsing gpx: %w", err)
	}

	var points []RoutePoint
	add := func(p gpx.GPXPoint) {
		rp := RoutePoint{GeoPoint: GeoPoint{Lat: p.Latitude, Lng: p.Longitude}}
		if p.Elevation.NotNull() {
			ele := p.Elevation.Value()
			rp.Elevation = &ele
		}
		points = append(points, rp)
	}

	for _, track := range g.Tracks {
		for _, seg := range track.Segments {
			for _, p := range seg.Points {
				add(p)
			}
		}
	}
	if len(points) == 0 {
		for _, route := range g.Routes {
			for _, p := range route.Points {
				add(p)
			}
		}
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("gpx contains no track or route points")
	}
	return points, nil
}

// RouteGeoJSON writes a route as a LineString feature, followed by one
// Point feature per turn.
func RouteGeoJSON(route RouteOption, turns []TurnPoint) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	fc.Append(routeFeature(route))

	for _, t := range turns {
		if t.Index < 0 || t.Index >= len(route.Points) {
			continue
		}
		p := route.Points[t.Index]
		f := geojson.NewFeature(orb.Point{p.Lng, p.Lat})
		f.Properties["index"] = t.Index
		f.Properties["instruction"] = t.Instruction.Text
		f.Properties["icon"] = t.Instruction.Icon
		f.Properties["turnAngleDeg"] = t.TurnAngleDeg
		f.Properties["distanceFromStartM"] = t.DistanceFromStartM
		fc.Append(f)
	}
	return fc.MarshalJSON()
}

// RoutesGeoJSON writes every route as a LineString feature
func RoutesGeoJSON(routes ...RouteOption) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, r := range routes {
		fc.Append(routeFeature(r))
	}
	return fc.MarshalJSON()
}

func routeFeature(r RouteOption) *geojson.Feature {
	line := make(orb.LineString, 0, len(r.Points))
	for _, p := range r.Points {
		line = append(line, orb.Point{p.Lng, p.Lat})
	}

	f := geojson.NewFeature(line)
	f.ID = r.ID
	f.Properties["name"] = r.Name
	f.Properties["method"] = string(r.Method)
	f.Properties["distanceKm"] = r.EstimatedDistanceKm
	f.Properties["ascend"] = r.Ascend
	f.Properties["descend"] = r.Descend
	f.Properties["totalTime"] = r.TotalTime
	return f
}
