// Package sendgrid provides a client for the SendGrid v3 mail send API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Client defines the SendGrid operations.
type Client interface {
	// Send delivers msg. It succeeds only on 202 Accepted.
	Send(ctx context.Context, msg Message) error
}

// Message is one HTML email with optional attachments.
type Message struct {
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Attachment is a file attached to a message. Content is raw bytes; the
// client base64-encodes it.
type Attachment struct {
	Filename string
	Type     string
	Content  []byte
}

// Error is a non-202 response.
type Error struct {
	StatusCode int
	Messages   []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("sendgrid: status %d", e.StatusCode)
	}
	return fmt.Sprintf("sendgrid: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// Option configures the SendGrid client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a SendGrid client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: "https://api.sendgrid.com",
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type address struct {
	Email string `json:"email"`
}

type personalization struct {
	To []address `json:"to"`
}

type content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type attachment struct {
	Content     string `json:"content"`
	Type        string `json:"type,omitempty"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition"`
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []content         `json:"content"`
	Attachments      []attachment      `json:"attachments,omitempty"`
}

type errorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func (c *httpClient) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return eris.New("sendgrid: no recipients")
	}

	payload := sendRequest{
		From:    address{Email: msg.From},
		Subject: msg.Subject,
		Content: []content{{Type: "text/html", Value: msg.HTML}},
	}
	p := personalization{}
	for _, to := range msg.To {
		p.To = append(p.To, address{Email: to})
	}
	payload.Personalizations = []personalization{p}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, attachment{
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			Type:        a.Type,
			Filename:    a.Filename,
			Disposition: "attachment",
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "sendgrid: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "sendgrid: create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "sendgrid: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusAccepted {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	apiErr := &Error{StatusCode: resp.StatusCode}
	var eb errorBody
	if json.Unmarshal(respBody, &eb) == nil {
		for _, e := range eb.Errors {
			m := e.Message
			if e.Field != "" {
				m = e.Field + ": " + m
			}
			apiErr.Messages = append(apiErr.Messages, m)
		}
	}
	return apiErr
}
