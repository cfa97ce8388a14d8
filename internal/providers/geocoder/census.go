package geocoder

import (
	"context"
	"fmt"
	"net/url"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/lookup"
)

const PROVIDER_NAME = "census"

// DefaultBenchmark is the Census address range benchmark used when none is configured
const DefaultBenchmark = "Public_AR_Current"

// CensusResponse represents the onelineaddress/address locations response
type CensusResponse struct {
	Result struct {
		AddressMatches []AddressMatch `json:"addressMatches"`
	} `json:"result"`
}

// AddressMatch is one candidate match
type AddressMatch struct {
	MatchedAddress string `json:"matchedAddress"`
	Coordinates    struct {
		X float64 `json:"x"` // longitude
		Y float64 `json:"y"` // latitude
	} `json:"coordinates"`
}

// CensusGeocoder geocodes US addresses with the Census Bureau geocoder
type CensusGeocoder struct {
	httpClient adapter.HTTPClient
	apiURL     string
	benchmark  string
}

// NewCensusGeocoder creates a new Census geocoder
func NewCensusGeocoder(httpClient adapter.HTTPClient, apiURL string, benchmark string) *CensusGeocoder {
	if benchmark == "" {
		benchmark = DefaultBenchmark
	}
	return &CensusGeocoder{
		httpClient: httpClient,
		apiURL:     apiURL,
		benchmark:  benchmark,
	}
}

// Geocode returns the coordinates of the first match, or nil when the address is unknown
func (g *CensusGeocoder) Geocode(ctx context.Context, address lookup.AddressQuery) (*domain.Location, error) {
	q := url.Values{}
	q.Set("street", address.Address1)
	q.Set("city", address.City)
	q.Set("state", address.State)
	q.Set("zip", address.Zip)
	q.Set("benchmark", g.benchmark)
	q.Set("format", "json")
	endpoint := fmt.Sprintf("%s/geocoder/locations/address?%s", g.apiURL, q.Encode())

	var resp CensusResponse
	if err := g.httpClient.Get(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to call Census geocoder: %w", err)
	}

	if len(resp.Result.AddressMatches) == 0 {
		return nil, nil
	}

	match := resp.Result.AddressMatches[0]
	return &domain.Location{
		Latitude:  match.Coordinates.Y,
		Longitude: match.Coordinates.X,
	}, nil
}
