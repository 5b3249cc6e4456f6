// Package client is a thin HTTP client for the muse JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hpungsan/muse/internal/errors"
	"github.com/hpungsan/muse/internal/quote"
)

// DefaultTimeout bounds a request when no http.Client is supplied.
const DefaultTimeout = 45 * time.Second

// Client talks to a muse server.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client for baseURL. A nil httpClient uses one with DefaultTimeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// Health is the server's report on the generation backend.
type Health struct {
	Status     string `json:"status"`
	ModelReady bool   `json:"model_ready"`
	ModelName  string `json:"model_name"`
}

// NewQuote is the body for Create.
type NewQuote struct {
	Text          string `json:"text"`
	Category      string `json:"category,omitempty"`
	Author        string `json:"author,omitempty"`
	IsAIGenerated bool   `json:"is_ai_generated"`
}

// QuoteEdit is the body for Update. Nil fields are left unchanged.
type QuoteEdit struct {
	Text     *string `json:"text,omitempty"`
	Category *string `json:"category,omitempty"`
	Author   *string `json:"author,omitempty"`
}

// Quote asks the server for a new quote in category and returns the quote
// text exactly as the server sent it.
func (c *Client) Quote(ctx context.Context, category string) (string, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	var resp struct {
		Quote string `json:"quote"`
	}
	if err := c.do(ctx, http.MethodGet, "/quote", q, nil, &resp); err != nil {
		return "", err
	}
	return resp.Quote, nil
}

// listPageSize is the page size List requests; it matches the server's cap.
const listPageSize = 100

// List returns every saved quote, newest first, requesting pages until the
// server's X-Total-Count is reached. An empty category lists all.
func (c *Client) List(ctx context.Context, category string) ([]quote.Summary, error) {
	items := []quote.Summary{}
	for {
		q := url.Values{}
		if category != "" {
			q.Set("category", category)
		}
		q.Set("limit", strconv.Itoa(listPageSize))
		q.Set("offset", strconv.Itoa(len(items)))

		var page []quote.Summary
		header, err := c.send(ctx, http.MethodGet, "/quotes", q, nil, &page)
		if err != nil {
			return nil, err
		}
		items = append(items, page...)

		if len(page) == 0 {
			return items, nil
		}
		if total, err := strconv.Atoi(header.Get("X-Total-Count")); err == nil {
			if len(items) >= total {
				return items, nil
			}
		} else if len(page) < listPageSize {
			return items, nil
		}
	}
}

// Create saves a new quote.
func (c *Client) Create(ctx context.Context, in NewQuote) (*quote.Summary, error) {
	var out quote.Summary
	if err := c.do(ctx, http.MethodPost, "/quotes", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update edits a saved quote.
func (c *Client) Update(ctx context.Context, id string, edit QuoteEdit) (*quote.Summary, error) {
	var out quote.Summary
	if err := c.do(ctx, http.MethodPut, "/quotes/"+url.PathEscape(id), nil, edit, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a saved quote.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/quotes/"+url.PathEscape(id), nil, nil, nil)
}

// Health reports whether the server's generation backend is ready.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// errorEnvelope is the server's error body.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Status  int    `json:"status"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	_, err := c.send(ctx, method, path, query, body, out)
	return err
}

// send performs the request, decodes a 2xx body into out and returns the
// response headers.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body, out any) (http.Header, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("build request: %v", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled(method + " " + path)
		}
		return nil, errors.NewGeneratorUnavailable(fmt.Sprintf("server unreachable: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.Header, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("decode %s %s response: %w", method, path, err))
	}
	return resp.Header, nil
}

// decodeError turns a non-2xx response into a QuoteError, falling back to
// the status text when the body is not an error envelope.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error.Code != "" {
		status := env.Error.Status
		if status == 0 {
			status = resp.StatusCode
		}
		return &errors.QuoteError{
			Code:    errors.ErrorCode(env.Error.Code),
			Status:  status,
			Message: env.Error.Message,
		}
	}
	msg := strings.TrimSpace(string(raw))
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &errors.QuoteError{
		Code:    errors.ErrInternal,
		Status:  resp.StatusCode,
		Message: msg,
	}
}
