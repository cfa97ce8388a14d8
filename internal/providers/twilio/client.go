package twilio

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/domain"
	"github.com/votetripling/ambassador-api/internal/lookup"
)

const PROVIDER_NAME = "twilio"

var ErrNoCredentials = errors.New("no Twilio credentials provided")

// Config holds the Twilio account and lookup settings
type Config struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	// APIURL is the messaging API base, e.g. https://api.twilio.com
	APIURL string
	// LookupURL is the lookup API base, e.g. https://lookups.twilio.com
	LookupURL string
	// BlockedCarriers are carrier names (case insensitive) whose numbers are refused
	BlockedCarriers []string
}

// MessageResponse is the subset of the Messages resource we read back
type MessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// PhoneNumberResponse represents the Lookup v1 phone number resource
type PhoneNumberResponse struct {
	PhoneNumber string       `json:"phone_number"`
	Carrier     *CarrierInfo `json:"carrier"`
	CallerName  *CallerName  `json:"caller_name"`
}

// CarrierInfo is the carrier add-on of a lookup
type CarrierInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// CallerName is the caller-name add-on of a lookup
type CallerName struct {
	CallerName string `json:"caller_name"`
	CallerType string `json:"caller_type"`
}

// Client sends SMS and runs carrier and caller-name lookups against Twilio
type Client struct {
	httpClient adapter.HTTPClient
	json       adapter.JSON
	cfg        Config
	blocked    map[string]struct{}
}

// NewClient creates a new Twilio client
func NewClient(httpClient adapter.HTTPClient, cfg Config, json adapter.JSON) *Client {
	blocked := make(map[string]struct{}, len(cfg.BlockedCarriers))
	for _, name := range cfg.BlockedCarriers {
		blocked[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}

	return &Client{
		httpClient: httpClient,
		json:       json,
		cfg:        cfg,
		blocked:    blocked,
	}
}

func (c *Client) authHeader() (http.Header, error) {
	if c.cfg.AccountSID == "" || c.cfg.AuthToken == "" {
		return nil, ErrNoCredentials
	}
	return adapter.BasicAuthHeader(c.cfg.AccountSID, c.cfg.AuthToken), nil
}

// SendSMS sends a text message from the configured number
func (c *Client) SendSMS(ctx context.Context, to string, body string) error {
	header, err := c.authHeader()
	if err != nil {
		return err
	}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", c.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", c.cfg.APIURL, url.PathEscape(c.cfg.AccountSID))
	respBody, err := c.httpClient.Post(ctx, endpoint, header, []byte(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to call Twilio messages API: %w", err)
	}

	var resp MessageResponse
	if err := c.json.Unmarshal(respBody, &resp); err != nil {
		return fmt.Errorf("failed to unmarshal Twilio response: %w", err)
	}
	if resp.SID == "" {
		return fmt.Errorf("twilio accepted no message for %s", to)
	}

	return nil
}

func (c *Client) lookupPhone(ctx context.Context, phone string, lookupType string) (*PhoneNumberResponse, error) {
	header, err := c.authHeader()
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/PhoneNumbers/%s?Type=%s", c.cfg.LookupURL, url.PathEscape(phone), lookupType)

	var resp PhoneNumberResponse
	if err := c.httpClient.Get(ctx, endpoint, header, &resp); err != nil {
		return nil, fmt.Errorf("failed to call Twilio lookup API: %w", err)
	}

	return &resp, nil
}

// LookupCarrier resolves the carrier of a phone number and flags configured carriers as blocked
func (c *Client) LookupCarrier(ctx context.Context, phone string) (*lookup.Carrier, error) {
	resp, err := c.lookupPhone(ctx, phone, "carrier")
	if err != nil {
		return nil, err
	}

	var name string
	if resp.Carrier != nil {
		name = resp.Carrier.Name
	}

	return &lookup.Carrier{
		Name:    name,
		Blocked: c.IsBlockedCarrier(name),
	}, nil
}

// IsBlockedCarrier reports whether a carrier name is on the block list
func (c *Client) IsBlockedCarrier(name string) bool {
	if name == "" {
		return false
	}
	_, ok := c.blocked[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// LookupIdentity returns the caller name registered to a phone number
func (c *Client) LookupIdentity(ctx context.Context, phone string) (*domain.Verification, error) {
	resp, err := c.lookupPhone(ctx, phone, "caller-name")
	if err != nil {
		return nil, err
	}

	if resp.CallerName == nil || strings.TrimSpace(resp.CallerName.CallerName) == "" {
		return nil, nil
	}

	return &domain.Verification{
		Source: PROVIDER_NAME,
		Name:   strings.TrimSpace(resp.CallerName.CallerName),
	}, nil
}
