// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package catmaid is the HTTP session against a CATMAID-style annotation
// server. It implements neuron.Fetcher with retrying JSON requests and an
// optional embedded store so repeated skeleton fetches skip the network.
package catmaid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/neurotrace/catmaid/store"
)

var tracer = otel.Tracer("neurotrace.catmaid")

var validate = validator.New()

// Config holds the session configuration.
type Config struct {
	// BaseURL is the server root, e.g. "https://catmaid.example.org".
	BaseURL string `validate:"required,url"`

	// ProjectID scopes every request.
	ProjectID int `validate:"required,gt=0"`

	// Token authenticates via the X-Authorization header. Optional when
	// the server allows anonymous reads.
	Token string

	// Username and Password add HTTP basic auth, usable alongside Token.
	Username string
	Password string

	// Timeout bounds a single HTTP attempt.
	Timeout time.Duration `validate:"gte=0"`

	// MaxRetries is the number of retries after the first attempt.
	// Only 5xx and transport errors retry.
	MaxRetries int `validate:"gte=0"`

	// RetryBase is the first backoff delay; it doubles per attempt with
	// jitter, capped at RetryMaxDelay.
	RetryBase     time.Duration `validate:"gte=0"`
	RetryMaxDelay time.Duration `validate:"gte=0"`

	// HTTPClient overrides the transport, mainly for tests.
	HTTPClient *http.Client

	// Store, when set, caches fetched skeletons locally.
	Store *store.Store
}

// DefaultConfig returns production defaults for a server and project.
func DefaultConfig(baseURL string, projectID int) Config {
	return Config{
		BaseURL:       baseURL,
		ProjectID:     projectID,
		Timeout:       30 * time.Second,
		MaxRetries:    3,
		RetryBase:     250 * time.Millisecond,
		RetryMaxDelay: 5 * time.Second,
	}
}

// Client is one authenticated session. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// New validates the configuration and builds a session. No request is made
// until the first fetch.
func New(cfg Config) (*Client, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("catmaid config: %w", err)
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: hc}, nil
}

// endpoint renders a project-scoped path.
func (c *Client) endpoint(format string, args ...any) string {
	base := strings.TrimRight(c.cfg.BaseURL, "/")
	return base + fmt.Sprintf("/%d", c.cfg.ProjectID) + fmt.Sprintf(format, args...)
}

// doJSON posts (or gets) JSON with retry, decoding the response into out.
//
// Description:
//
//	Retries only on 5xx and transport errors, with exponential backoff and
//	jitter. 401/403 map to ErrUnauthorized immediately; other non-2xx
//	statuses return a statusError without retrying. Each request carries a
//	generated X-Request-ID so server logs can be correlated.
func (c *Client) doJSON(ctx context.Context, method, endpointName, url string, body, out any) error {
	ctx, span := tracer.Start(ctx, "catmaid."+endpointName,
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("endpoint", endpointName),
		),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpointName).Observe(time.Since(start).Seconds())
	}()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return fmt.Errorf("encode request: %w", err)
		}
	}

	requestID := uuid.NewString()
	span.SetAttributes(attribute.String("request_id", requestID))

	var lastErr error
	attempts := c.cfg.MaxRetries + 1
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			retriesTotal.Inc()
			delay := c.backoff(attempt)
			slog.Debug("retrying request",
				slog.String("endpoint", endpointName),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
				slog.String("request_id", requestID),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				span.SetStatus(codes.Error, ctx.Err().Error())
				return ctx.Err()
			}
		}

		retryable, err := c.attempt(ctx, method, url, requestID, payload, out)
		if err == nil {
			requestsTotal.WithLabelValues(endpointName, "ok").Inc()
			span.SetAttributes(attribute.Int("attempts", attempt+1))
			span.SetStatus(codes.Ok, "")
			return nil
		}
		lastErr = err
		if !retryable {
			requestsTotal.WithLabelValues(endpointName, "error").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	requestsTotal.WithLabelValues(endpointName, "unavailable").Inc()
	err := fmt.Errorf("%w: %s after %d attempts: %v", ErrUnavailable, endpointName, attempts, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// attempt runs one HTTP round trip. The bool reports retryability.
func (c *Client) attempt(ctx context.Context, method, url, requestID string, payload []byte, out any) (bool, error) {
	var rd io.Reader
	if payload != nil {
		rd = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("X-Authorization", "Token "+c.cfg.Token)
	}
	if c.cfg.Username != "" {
		req.SetBasicAuth(c.cfg.Username, c.cfg.Password)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return true, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
		return false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: http %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return true, fmt.Errorf("http %d", resp.StatusCode)
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(snippet))}
	}
}

// backoff returns the delay before the given retry attempt (1-based):
// base doubled per attempt plus up to 50% jitter, capped.
func (c *Client) backoff(attempt int) time.Duration {
	base := c.cfg.RetryBase
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	d := base << (attempt - 1)
	maxDelay := c.cfg.RetryMaxDelay
	if maxDelay > 0 && d > maxDelay {
		d = maxDelay
	}
	jitter := time.Duration(rand.Int63n(int64(d)/2 + 1))
	d += jitter
	if maxDelay > 0 && d > maxDelay {
		d = maxDelay
	}
	return d
}

// notFoundStatus reports whether err is a non-retryable 404.
func notFoundStatus(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.code == http.StatusNotFound
}
