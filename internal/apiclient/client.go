// Package apiclient talks to the clinic REST API.
//
// Every call goes through Client.Do: it injects the bearer token, turns a 401
// on any endpoint into errs.ErrUnauthorized after running the unauthorized
// hook, and turns any other non-2xx answer into an *Error.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentist-portal/internal/errs"
	"github.com/harentsoaR/dentist-portal/internal/metrics"
)

const DefaultTimeout = 15 * time.Second

// Error is a non-2xx, non-401 answer from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// UserMessage is the text shown in a banner.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("Error del servidor (%d)", e.Status)
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	// DevMode answers every endpoint with canned data instead of using the network.
	DevMode  bool
	DevDelay time.Duration
	// OnUnauthorized runs with the request context and the rejected token
	// (empty for anonymous calls) whenever the backend answers 401.
	OnUnauthorized func(ctx context.Context, token string)
	Logger         zerolog.Logger
}

type Client struct {
	http           *resty.Client
	log            zerolog.Logger
	onUnauthorized func(ctx context.Context, token string)
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(opts.BaseURL).
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	if opts.DevMode {
		client.SetTransport(newDevTransport(opts.BaseURL, opts.DevDelay))
	}

	return &Client{
		http:           client,
		log:            opts.Logger,
		onUnauthorized: opts.OnUnauthorized,
	}
}

// Request describes one backend call. Result, when set, receives the decoded body.
type Request struct {
	Method   string
	Endpoint string
	Token    string
	Query    map[string]string
	Body     any
	Result   any
}

func (c *Client) Do(ctx context.Context, r Request) error {
	_, err := c.do(ctx, r)
	return err
}

// do returns the raw body of a 2xx answer.
func (c *Client) do(ctx context.Context, r Request) ([]byte, error) {
	req := c.http.R().SetContext(ctx)
	if r.Token != "" {
		req.SetAuthToken(r.Token)
	}
	if len(r.Query) > 0 {
		req.SetQueryParams(r.Query)
	}
	if r.Body != nil {
		req.SetBody(r.Body)
	}

	start := time.Now()
	resp, err := req.Execute(r.Method, r.Endpoint)
	if err != nil {
		metrics.BackendRequestDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		c.log.Error().Err(err).Str("method", r.Method).Str("endpoint", r.Endpoint).Msg("backend request failed")
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.Endpoint, err)
	}

	status := resp.StatusCode()
	metrics.BackendRequestDuration.WithLabelValues(strconv.Itoa(status)).Observe(time.Since(start).Seconds())

	switch {
	case status == http.StatusUnauthorized:
		c.log.Warn().Str("method", r.Method).Str("endpoint", r.Endpoint).Msg("backend rejected credentials")
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, r.Token)
		}
		return nil, fmt.Errorf("%s %s: %w", r.Method, r.Endpoint, errs.ErrUnauthorized)
	case status < 200 || status > 299:
		apiErr := &Error{Status: status, Message: errorMessage(resp.Body())}
		c.log.Warn().Int("status", status).Str("method", r.Method).Str("endpoint", r.Endpoint).Msg("backend returned error")
		return nil, apiErr
	}

	body := resp.Body()
	if r.Result != nil && len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, r.Result); err != nil {
			return nil, fmt.Errorf("%s %s: decode response: %w", r.Method, r.Endpoint, err)
		}
	}
	return body, nil
}

// errorMessage extracts the message of a backend error body ({"error": ...} or {"message": ...}).
func errorMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

// decodeList accepts both a bare array and an object wrapping it under "data".
func decodeList[T any](body []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}
	if trimmed[0] == '[' {
		var items []T
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Data == nil {
		return []T{}, nil
	}
	return wrapped.Data, nil
}

func getList[T any](ctx context.Context, c *Client, endpoint, token string, query map[string]string) ([]T, error) {
	body, err := c.do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Token: token, Query: query})
	if err != nil {
		return nil, err
	}
	items, err := decodeList[T](body)
	if err != nil {
		return nil, fmt.Errorf("GET %s: decode list: %w", endpoint, err)
	}
	return items, nil
}
