package tapclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// maxBody bounds how much of a response the client reads.
const maxBody = 1 << 20

// TapRequest is the body of POST /api/tap-event. Both payloads are JSON
// encoded strings, or null.
type TapRequest struct {
	TagID        string  `json:"tagId"`
	LocationData *string `json:"locationData"`
	ClientInfo   *string `json:"clientInfo"`
}

// Client talks to the public endpoints of the API. No call is retried.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the API rooted at baseURL, for example
// "https://tags.example.com/api". A nil hc uses a client with a 30s
// timeout.
func NewClient(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

// RecordTap posts a tap. Anything but 201 Created is an error.
func (c *Client) RecordTap(ctx context.Context, req TapRequest) error {
	resp, body, err := c.do(ctx, "record tap", http.MethodPost, "/tap-event", req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusCreated {
		return serverError(resp.StatusCode, body)
	}
	return nil
}

// TagInfo returns the public_url stored for tagID.
func (c *Client) TagInfo(ctx context.Context, tagID string) (string, error) {
	resp, body, err := c.do(ctx, "resolve tag", http.MethodGet, "/public/tag-info/"+url.PathEscape(tagID), nil)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", serverError(resp.StatusCode, body)
	}
	var info struct {
		PublicURL string `json:"public_url"`
	}
	if err := json.Unmarshal(body, &info); err != nil || info.PublicURL == "" {
		return "", ErrNoRedirect
	}
	return info.PublicURL, nil
}

// SendLog posts one diagnostic entry to /client-log.
func (c *Client) SendLog(ctx context.Context, entry model.ClientLogEntry) error {
	resp, body, err := c.do(ctx, "client log", http.MethodPost, "/client-log", entry)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return serverError(resp.StatusCode, body)
	}
	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) (*http.Response, []byte, error) {
	var rd io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: marshal: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, nil, &NetworkError{Op: op, Err: err}
	}
	return resp, body, nil
}

func serverError(status int, body []byte) error {
	var msg struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(body, &msg)
	return &ServerError{Status: status, Message: msg.Message}
}
