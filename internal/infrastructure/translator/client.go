// Package translator is the HTTP client for the text translation provider.
package translator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-market-triggers/internal/application/translation"
	"github.com/go-market-triggers/internal/infrastructure/httpclient"
	"github.com/go-market-triggers/internal/metrics"
)

const (
	provider   = "translator"
	apiVersion = "3.0"
)

type textItem struct {
	Text string `json:"Text"`
}

type detectResult struct {
	Language string  `json:"language"`
	Score    float64 `json:"score"`
}

type translateResult struct {
	Translations []struct {
		Text string `json:"text"`
		To   string `json:"to"`
	} `json:"translations"`
}

// Client calls the detect and translate endpoints.
type Client struct {
	http     *http.Client
	endpoint string
}

func New(httpClient *http.Client, endpoint string) *Client {
	return &Client{http: httpClient, endpoint: strings.TrimRight(endpoint, "/")}
}

var _ translation.Provider = (*Client)(nil)

func (c *Client) Detect(ctx context.Context, creds translation.Credentials, text string) (string, error) {
	var out []detectResult
	if err := c.call(ctx, creds, "detect", url.Values{}, text, &out); err != nil {
		return "", err
	}
	if len(out) == 0 {
		return "", nil
	}
	return out[0].Language, nil
}

func (c *Client) Translate(ctx context.Context, creds translation.Credentials, text, from, to string) (string, error) {
	q := url.Values{}
	q.Set("from", from)
	q.Set("to", to)
	var out []translateResult
	if err := c.call(ctx, creds, "translate", q, text, &out); err != nil {
		return "", err
	}
	if len(out) == 0 || len(out[0].Translations) == 0 {
		return "", nil
	}
	return out[0].Translations[0].Text, nil
}

func (c *Client) call(ctx context.Context, creds translation.Credentials, path string, q url.Values, text string, out any) error {
	payload, err := json.Marshal([]textItem{{Text: text}})
	if err != nil {
		return err
	}
	q.Set("api-version", apiVersion)
	endpoint := c.endpoint + "/" + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Ocp-Apim-Subscription-Key", creds.Key)
	req.Header.Set("Ocp-Apim-Subscription-Region", creds.Region)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.TranslatorCalls.WithLabelValues(path, "error").Inc()
		return fmt.Errorf("%s request: %w", provider, err)
	}
	defer resp.Body.Close()
	metrics.TranslatorCalls.WithLabelValues(path, httpclient.StatusClass(resp.StatusCode)).Inc()
	if err := httpclient.CheckStatus(provider, resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", provider, path, err)
	}
	return nil
}
