package sendgrid

import (
	"context"
	"errors"
	"fmt"

	"github.com/votetripling/ambassador-api/internal/adapter"
)

const PROVIDER_NAME = "sendgrid"

var ErrNoAPIKey = errors.New("no API key provided")

// MailRequest is the v3 mail send payload
type MailRequest struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
}

// Personalization is one envelope of a mail send
type Personalization struct {
	To []Address `json:"to"`
}

// Address is an email address
type Address struct {
	Email string `json:"email"`
}

// Content is one MIME part of a mail send
type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Client delivers email through SendGrid
type Client struct {
	httpClient adapter.HTTPClient
	json       adapter.JSON
	apiURL     string
	apiKey     string
	fromEmail  string
}

// NewClient creates a new SendGrid client
func NewClient(httpClient adapter.HTTPClient, apiURL string, apiKey string, fromEmail string, json adapter.JSON) *Client {
	return &Client{
		httpClient: httpClient,
		json:       json,
		apiURL:     apiURL,
		apiKey:     apiKey,
		fromEmail:  fromEmail,
	}
}

// SendEmail sends one HTML email addressed to every recipient
func (c *Client) SendEmail(ctx context.Context, recipients []string, subject string, htmlBody string) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}

	to := make([]Address, 0, len(recipients))
	for _, r := range recipients {
		to = append(to, Address{Email: r})
	}

	body, err := c.json.Marshal(MailRequest{
		Personalizations: []Personalization{{To: to}},
		From:             Address{Email: c.fromEmail},
		Subject:          subject,
		Content:          []Content{{Type: "text/html", Value: htmlBody}},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal SendGrid request: %w", err)
	}

	header := adapter.BearerHeader(c.apiKey)
	header.Set("Content-Type", "application/json")

	if _, err := c.httpClient.Post(ctx, c.apiURL+"/v3/mail/send", header, body); err != nil {
		return fmt.Errorf("failed to call SendGrid API: %w", err)
	}

	return nil
}
