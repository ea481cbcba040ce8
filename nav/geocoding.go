package nav

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type nominatimAddress struct {
	HouseNumber string `json:"house_number"`
	Road        string `json:"road"`
	Suburb      string `json:"suburb"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	PostCode    string `json:"postcode"`
	Country     string `json:"country_code"` // Two-letter ISO country code
}

type nominatimResponse struct {
	DisplayName string           `json:"display_name"`
	Name        string           `json:"name"`
	Lat         string           `json:"lat"`
	Lon         string           `json:"lon"`
	Address     nominatimAddress `json:"address"`
	Importance  float64          `json:"importance"`
}

// Geocoder resolves place names through a Nominatim server
type Geocoder struct {
	baseURL string
	client  HTTPClient
}

// NewGeocoder creates a geocoder for baseURL
func NewGeocoder(baseURL string, client HTTPClient) *Geocoder {
	if client == nil {
		client = http.DefaultClient
	}
	return &Geocoder{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func formatAddress(addr nominatimAddress) string {
	city := addr.City
	if city == "" {
		city = addr.Town
	}
	if city == "" {
		city = addr.Village
	}
	if city == "" {
		city = addr.Suburb
	}

	var street []string
	if addr.HouseNumber != "" {
		street = append(street, addr.HouseNumber)
	}
	if addr.Road != "" {
		street = append(street, addr.Road)
	}

	var parts []string
	if len(street) > 0 {
		parts = append(parts, strings.Join(street, " "))
	}
	if city != "" && addr.PostCode != "" {
		parts = append(parts, fmt.Sprintf("%s %s", addr.PostCode, city))
	} else if city != "" {
		parts = append(parts, city)
	}
	return strings.Join(parts, ", ")
}

// Geocode returns up to five places matching query, most relevant first
func (g *Geocoder) Geocode(ctx context.Context, query string) ([]GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, invalid("query", "must not be empty")
	}

	params := url.Values{
		"q":              {query},
		"format":         {"json"},
		"limit":          {"5"},
		"addressdetails": {"1"},
	}
	apiURL := fmt.Sprintf("%s/search?%s", g.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error building nominatim request: %w", err)
	}
	// Nominatim's usage policy asks for an identifying agent
	req.Header.Set("User-Agent", "looprun-server")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim API returned status: %d", resp.StatusCode)
	}

	var places []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	if len(places) == 0 {
		return nil, &ErrNoResults{Query: query}
	}

	results := make([]GeocodeResult, len(places))
	for i, p := range places {
		lat, err := strconv.ParseFloat(p.Lat, 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing latitude: %w", err)
		}
		lng, err := strconv.ParseFloat(p.Lon, 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing longitude: %w", err)
		}

		name := p.Name
		if name == "" {
			name = strings.Split(p.DisplayName, ",")[0]
		}
		results[i] = GeocodeResult{
			Name:       name,
			Address:    formatAddress(p.Address),
			Lat:        lat,
			Lng:        lng,
			Importance: p.Importance,
			Country:    strings.ToLower(p.Address.Country),
		}
	}
	return results, nil
}

// Locate returns the position of the best match for query
func (g *Geocoder) Locate(ctx context.Context, query string) (GeoPoint, error) {
	results, err := g.Geocode(ctx, query)
	if err != nil {
		return GeoPoint{}, err
	}
	return GeoPoint{Lat: results[0].Lat, Lng: results[0].Lng}, nil
}
