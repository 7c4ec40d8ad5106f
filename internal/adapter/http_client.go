// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Alexei Karpov

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/akarpov/go-alertsync/models"
)

// HTTPClientConfig configures the HTTP remote source client.
type HTTPClientConfig struct {
	BaseURL string
	Timeout time.Duration
}

type httpRemoteSource struct {
	client *resty.Client
}

// NewHTTPRemoteSource constructs a RemoteSource talking to the upstream
// alert distribution service over HTTP.
func NewHTTPRemoteSource(cfg HTTPClientConfig) RemoteSource {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout)

	return &httpRemoteSource{client: cli}
}

func (h *httpRemoteSource) FetchDifferential(ctx context.Context, since time.Time) (models.DifferentialPayload, error) {
	req := h.client.R().SetContext(ctx)
	if !since.IsZero() {
		req.SetQueryParam("since", since.UTC().Format(time.RFC3339Nano))
	}

	resp, err := req.Get("/api/alerts/differential")
	if err != nil {
		return models.DifferentialPayload{}, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DifferentialPayload{}, err
	}

	var payload models.DifferentialPayload
	if err = json.Unmarshal(resp.Body(), &payload); err != nil {
		return models.DifferentialPayload{}, fmt.Errorf("%w: %w", ErrBadPayload, err)
	}

	return payload, nil
}

func (h *httpRemoteSource) Ping(ctx context.Context) error {
	resp, err := h.client.R().SetContext(ctx).Get("/api/health")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return mapHTTPError(resp)
}

func mapHTTPError(resp *resty.Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(code)
	}

	if code >= http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrRemoteUnavailable, code, body)
	}
	return fmt.Errorf("http %d: %s", code, body)
}
