// Package searchindex is the HTTP client for the hosted listing search index.
package searchindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-market-triggers/internal/config"
	"github.com/go-market-triggers/internal/domain"
	"github.com/go-market-triggers/internal/infrastructure/httpclient"
)

const provider = "search index"

// Client upserts and deletes objects in one index, keyed by object id.
type Client struct {
	http    *http.Client
	baseURL string
	index   string
	secrets config.SecretSource
}

func New(httpClient *http.Client, baseURL, index string, secrets config.SecretSource) *Client {
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		index:   index,
		secrets: secrets,
	}
}

// Put replaces the object stored under objectID with body.
func (c *Client) Put(ctx context.Context, objectID string, body map[string]any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode index object %s: %w", objectID, err)
	}
	return c.do(ctx, http.MethodPut, objectID, payload)
}

// Delete removes the object stored under objectID.
func (c *Client) Delete(ctx context.Context, objectID string) error {
	return c.do(ctx, http.MethodDelete, objectID, nil)
}

func (c *Client) do(ctx context.Context, method, objectID string, payload []byte) error {
	s, err := c.secrets.Secrets(ctx)
	if err != nil {
		return fmt.Errorf("search index credentials: %w", err)
	}
	if s.SearchAppID == "" || s.SearchAPIKey == "" {
		return fmt.Errorf("search index credentials are not configured: %w", domain.ErrFailedPrecondition)
	}
	if c.baseURL == "" {
		return fmt.Errorf("search index base URL is not configured: %w", domain.ErrFailedPrecondition)
	}

	endpoint := fmt.Sprintf("%s/indexes/%s/%s", c.baseURL, url.PathEscape(c.index), url.PathEscape(objectID))
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("X-Algolia-Application-Id", s.SearchAppID)
	req.Header.Set("X-Algolia-API-Key", s.SearchAPIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()
	if err := httpclient.CheckStatus(provider, resp); err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
