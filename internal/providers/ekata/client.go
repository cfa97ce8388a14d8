package ekata

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
)

const PROVIDER_NAME = "ekata"

var ErrNoAPIKey = errors.New("no API key provided")

// PhoneResponse represents the Ekata reverse phone response
type PhoneResponse struct {
	PhoneNumber string   `json:"phone_number"`
	BelongsTo   []Person `json:"belongs_to"`
}

// Person is an owner of a phone number
type Person struct {
	Name      string `json:"name"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// Client runs reverse phone lookups against Ekata
type Client struct {
	httpClient adapter.HTTPClient
	apiURL     string
	apiKey     string
}

// NewClient creates a new Ekata client
func NewClient(httpClient adapter.HTTPClient, apiURL string, apiKey string) *Client {
	return &Client{
		httpClient: httpClient,
		apiURL:     apiURL,
		apiKey:     apiKey,
	}
}

// LookupIdentity returns the first owner name Ekata has for the number
func (c *Client) LookupIdentity(ctx context.Context, phone string) (*domain.Verification, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("phone", phone)
	endpoint := fmt.Sprintf("%s/3.1/phone?%s", c.apiURL, q.Encode())

	var resp PhoneResponse
	if err := c.httpClient.Get(ctx, endpoint, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to call Ekata API: %w", err)
	}

	for _, p := range resp.BelongsTo {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = strings.TrimSpace(p.Firstname + " " + p.Lastname)
		}
		if name != "" {
			return &domain.Verification{Source: PROVIDER_NAME, Name: name}, nil
		}
	}

	return nil, nil
}
