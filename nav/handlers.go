package nav

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
)

var (
	navConfig NavConfig
	generator *Generator
	geocoder  *Geocoder
	sessions  *SessionRegistry
)

// SetConfig sets the navigation configuration and rebuilds the services
// behind the handlers. Active sessions are stopped.
func SetConfig(cfg NavConfig) {
	navConfig = cfg.WithDefaults()

	var geo *Geocoder
	if navConfig.NominatimURL != "" {
		geo = NewGeocoder(navConfig.NominatimURL, nil)
	}
	setServices(NewGeneratorFromConfig(navConfig, nil), geo, NewSessionRegistry(navConfig))

	if navConfig.EngineConfigured() {
		log.Printf("Debug: using graphhopper at %s", navConfig.engineURL())
	} else {
		log.Printf("Warn: graphhopper not configured, loops will be geometric")
	}
}

func setServices(gen *Generator, geo *Geocoder, reg *SessionRegistry) {
	if sessions != nil {
		sessions.Close()
	}
	generator = gen
	geocoder = geo
	sessions = reg
}

// Shutdown stops every active session
func Shutdown() {
	if sessions != nil {
		sessions.Close()
	}
}

// Helper functions for formatting
func formatDuration(seconds float64) string {
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)

	if hours > 0 {
		if minutes > 0 {
			return fmt.Sprintf("%dhr %dmin", hours, minutes)
		}
		return fmt.Sprintf("%dhr", hours)
	}
	return fmt.Sprintf("%dmin", minutes)
}

func formatDistance(meters float64, units DistanceUnit) string {
	if units == UnitMiles {
		miles := meters / metersPerMile
		if miles < 0.1 {
			return fmt.Sprintf("%.0fft", meters*3.28084)
		}
		return fmt.Sprintf("%.1fmi", miles)
	}
	if meters < 1000 {
		return fmt.Sprintf("%.0fm", meters)
	}
	return fmt.Sprintf("%.1fkm", meters/1000)
}

func writePlainTextLoops(w http.ResponseWriter, routes []RouteOption, units DistanceUnit) {
	w.Header().Set("Content-Type", "text/plain")

	fmt.Fprintf(w, "%d\n", len(routes))
	for _, r := range routes {
		fmt.Fprintf(w, "%s\n%s\n%s\n%s\n", r.ID, r.Name,
			formatDistance(r.EstimatedDistanceKm*1000, units), formatDuration(r.TotalTime))
	}
}

func writePlainTextGuidance(w http.ResponseWriter, g Guidance, units DistanceUnit) {
	w.Header().Set("Content-Type", "text/plain")

	fmt.Fprintf(w, "%s\n", g.Instruction.Icon)
	fmt.Fprintf(w, "%s (%s)\n", g.Instruction.Text, formatDistance(g.DistanceM, units))
	fmt.Fprintf(w, "%d\n", g.ProgressIndex)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// statusFor maps nav errors onto HTTP status codes
func statusFor(err error) int {
	var invalidErr *ErrInvalidRequest
	var noResults *ErrNoResults
	switch {
	case errors.As(err, &invalidErr):
		return http.StatusBadRequest
	case errors.As(err, &noResults), errors.Is(err, ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrSessionClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// ParseLatLng parses a "lat,lng" pair
func ParseLatLng(s string) (GeoPoint, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return GeoPoint{}, fmt.Errorf("invalid lat,lng format")
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("invalid latitude: %v", err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("invalid longitude: %v", err)
	}

	return GeoPoint{Lat: lat, Lng: lng}, nil
}

func parseUnits(s string) DistanceUnit {
	u := DistanceUnit(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return DefaultUnit
	}
	return u
}

// plainLines splits a device request body into trimmed lines
func plainLines(r *http.Request) ([]string, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	lines := strings.Split(strings.TrimSpace(string(body)), "\n")
	for i := range lines {
		// Clean up any \r from \r\n line endings
		lines[i] = strings.TrimSpace(strings.TrimRight(lines[i], "\r"))
	}
	return lines, nil
}

// HandleLoop handles the /nav/loop endpoint
func HandleLoop(w http.ResponseWriter, r *http.Request) {
	log.Printf("Debug: Loop %s request to %s", r.Method, r.URL.String())

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		at := q.Get("at")
		near := q.Get("near")
		if at == "" && near == "" {
			writeError(w, http.StatusBadRequest, "either 'at' or 'near' parameter is required")
			return
		}

		distanceKm, err := strconv.ParseFloat(q.Get("km"), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "parameter 'km' must be a number")
			return
		}
		count := 3
		if c := q.Get("count"); c != "" {
			if count, err = strconv.Atoi(c); err != nil {
				writeError(w, http.StatusBadRequest, "parameter 'count' must be an integer")
				return
			}
		}

		var center GeoPoint
		if at != "" {
			if center, err = ParseLatLng(at); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'at' parameter: %v", err))
				return
			}
		} else {
			if geocoder == nil {
				writeError(w, http.StatusBadRequest, "place search is not configured, use 'at'")
				return
			}
			if center, err = geocoder.Locate(r.Context(), near); err != nil {
				writeError(w, statusFor(err), err.Error())
				return
			}
		}

		req := GenerateRequest{Center: center, DistanceKm: distanceKm, Count: count}
		if err := validateStruct(req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		routes, err := generator.Generate(r.Context(), req.Center, req.DistanceKm, req.Count)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		log.Printf("Debug: Loop returned %d routes", len(routes))
		writeJSON(w, GenerateResponse{Routes: routes})

	case http.MethodPost:
		lines, err := plainLines(r)
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "0\nfailed to read request body\n")
			return
		}
		if len(lines) < 2 {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "0\nrequest must contain at least 2 lines\n")
			return
		}

		center, err := ParseLatLng(lines[0])
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "0\ninvalid coordinates\n")
			return
		}
		distanceKm, err := strconv.ParseFloat(lines[1], 64)
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "0\ninvalid distance\n")
			return
		}
		count := 3
		if len(lines) > 2 {
			if c, err := strconv.Atoi(lines[2]); err == nil {
				count = c
			}
		}
		var units DistanceUnit = DefaultUnit
		if len(lines) > 3 {
			units = parseUnits(lines[3])
		}

		routes, err := generator.Generate(r.Context(), center, distanceKm, count)
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "0\n%s\n", err.Error())
			return
		}
		writePlainTextLoops(w, routes, units)

	default:
		writeError(w, http.StatusMethodNotAllowed, "only GET and POST methods are allowed")
	}
}

// HandleSession handles the /nav/session endpoint
func HandleSession(w http.ResponseWriter, r *http.Request) {
	log.Printf("Debug: Session %s request to %s", r.Method, r.URL.String())

	switch r.Method {
	case http.MethodPost:
		var req StartSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
			return
		}
		defer r.Body.Close()

		s, err := sessions.Start(req.Route)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, StartSessionResponse{ID: s.ID, Turns: s.Turns()})

	case http.MethodGet:
		s, err := sessions.Get(r.URL.Query().Get("id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		run, err := s.Recorded(r.Context())
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, run)

	case http.MethodDelete:
		if err := sessions.Stop(r.URL.Query().Get("id")); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		writeError(w, http.StatusMethodNotAllowed, "only GET, POST and DELETE methods are allowed")
	}
}

// HandleFix handles the /nav/session/fix endpoint
func HandleFix(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		pos, err := ParseLatLng(q.Get("at"))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid 'at' parameter: %v", err))
			return
		}
		fix := Fix{Position: pos}
		if h := q.Get("heading"); h != "" {
			heading, err := strconv.ParseFloat(h, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "parameter 'heading' must be a number")
				return
			}
			fix.Heading = &heading
		}

		s, err := sessions.Get(q.Get("id"))
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		g, err := s.Update(r.Context(), fix)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		writeJSON(w, g)

	case http.MethodPost:
		lines, err := plainLines(r)
		if err != nil || len(lines) < 2 {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "\nrequest must contain an id and a position\n0\n")
			return
		}
		pos, err := ParseLatLng(lines[1])
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "\ninvalid position\n0\n")
			return
		}
		var units DistanceUnit = DefaultUnit
		if len(lines) > 2 {
			units = parseUnits(lines[2])
		}

		s, err := sessions.Get(lines[0])
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "\n%s\n0\n", err.Error())
			return
		}
		g, err := s.Update(r.Context(), Fix{Position: pos})
		if err != nil {
			w.Header().Set("Content-Type", "text/plain")
			fmt.Fprintf(w, "\n%s\n0\n", err.Error())
			return
		}
		writePlainTextGuidance(w, g, units)

	default:
		writeError(w, http.StatusMethodNotAllowed, "only GET and POST methods are allowed")
	}
}

// HandleExport handles the /nav/export endpoint
func HandleExport(w http.ResponseWriter, r *http.Request) {
	log.Printf("Debug: Export %s request to %s", r.Method, r.URL.String())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "only POST method is allowed")
		return
	}

	format := ExportFormat(strings.ToLower(r.URL.Query().Get("format")))
	if format == "" {
		format = FormatGPX
	}
	if !format.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid format. Must be one of: %s, %s", FormatGPX, FormatGeoJSON))
		return
	}

	var route RouteOption
	if err := json.NewDecoder(r.Body).Decode(&route); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	defer r.Body.Close()
	if err := ValidateRoute(route.Route); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var data []byte
	var err error
	if format == FormatGPX {
		data, err = RoutesGPX(route)
	} else {
		data, err = RouteGeoJSON(route, ExtractTurns(route.Route, navConfig.WithDefaults().Turns))
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Write(data)
}
