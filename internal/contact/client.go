package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrRateLimited is wrapped by a SubmitError when the endpoint answers 429.
var ErrRateLimited = errors.New("contact: rate limited")

// SubmitError reports a failed submission after validation passed.
type SubmitError struct {
	Status  int
	Message string
	// Reply is the message the endpoint itself sent back, if any.
	Reply string
	Err   error
}

func (e *SubmitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("contact: submit: %s: %v", e.Message, e.Err)
	}
	return "contact: submit: " + e.Message
}

func (e *SubmitError) Unwrap() error { return e.Err }

// Client posts payloads to a remote contact endpoint.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient returns a client with a bounded request timeout.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// Submit validates p and posts it once. Nothing is sent when validation
// fails. There is no retry.
func (c *Client) Submit(ctx context.Context, p Payload) (Response, error) {
	if err := Validate(p); err != nil {
		return Response{}, err
	}

	body, err := json.Marshal(p)
	if err != nil {
		return Response{}, fmt.Errorf("contact: encode: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("contact: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	hc := c.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return Response{}, &SubmitError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Response{}, &SubmitError{Status: resp.StatusCode, Message: "read response", Err: err}
	}

	var limited error
	if resp.StatusCode == http.StatusTooManyRequests {
		limited = ErrRateLimited
	}

	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		if resp.StatusCode >= 300 {
			return Response{}, &SubmitError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Err: limited}
		}
		return Response{}, &SubmitError{Status: resp.StatusCode, Message: "decode response", Err: err}
	}
	if resp.StatusCode >= 300 || !out.Success {
		msg := out.Message
		if msg == "" {
			msg = "Failed to send message"
		}
		return out, &SubmitError{Status: resp.StatusCode, Message: msg, Reply: out.Message, Err: limited}
	}
	return out, nil
}

// Send lets a Client stand in as a Sender, forwarding to another endpoint.
func (c *Client) Send(ctx context.Context, p Payload) error {
	_, err := c.Submit(ctx, p)
	return err
}
