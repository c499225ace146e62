package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/folio-studio/folio/pkg/models"
)

type Options struct {
	BaseURL string
	// Token is an optional bearer token from the identity provider
	Token string

	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client calls the folio HTTP API
type Client struct {
	baseURL    string
	token      string
	timeout    time.Duration
	httpClient *http.Client
}

func New(opts Options) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("baseURL required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Client{
		baseURL:    baseURL,
		token:      strings.TrimSpace(opts.Token),
		timeout:    timeout,
		httpClient: hc,
	}, nil
}

// ToggleLike flips the caller's like on a work and returns the new state.
// fingerprint is ignored by the server when a token is set.
func (c *Client) ToggleLike(ctx context.Context, workID int64, fingerprint string) (bool, error) {
	req := models.ToggleLikeRequest{WorkID: workID, Fingerprint: fingerprint}

	var resp models.LikeStatus
	if err := c.doJSON(ctx, http.MethodPost, "/api/v1/likes/toggle", req, &resp); err != nil {
		return false, err
	}
	return resp.Liked, nil
}

// CheckLike reports whether the caller currently likes a work
func (c *Client) CheckLike(ctx context.Context, workID int64, fingerprint string) (bool, error) {
	q := url.Values{}
	q.Set("workId", strconv.FormatInt(workID, 10))
	if fingerprint != "" {
		q.Set("fingerprint", fingerprint)
	}

	var resp models.LikeStatus
	if err := c.doJSON(ctx, http.MethodGet, "/api/v1/likes/check?"+q.Encode(), nil, &resp); err != nil {
		return false, err
	}
	return resp.Liked, nil
}

// GetWork fetches a single work
func (c *Client) GetWork(ctx context.Context, workID int64) (*models.Work, error) {
	var work models.Work
	if err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/api/v1/works/%d", workID), nil, &work); err != nil {
		return nil, err
	}
	return &work, nil
}

// doJSON performs one request. Toggles are not idempotent, so nothing is
// retried here.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseAPIError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
