// Package httpclient builds the outbound HTTP client shared by the provider
// integrations.
package httpclient

import (
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-market-triggers/internal/domain"
)

// maxErrorBody caps how much of a failed response is kept in the error.
const maxErrorBody = 4 << 10

// New returns a client with a whole-request timeout.
func New(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// CheckStatus returns nil for 2xx responses and a *domain.ProviderError
// carrying the status and (truncated) body otherwise.
func CheckStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		body = []byte(fmt.Sprintf("<unreadable body: %v>", err))
	}
	return &domain.ProviderError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
}

// StatusClass buckets a status code for metric labels, e.g. "2xx".
func StatusClass(code int) string {
	if code < 100 || code > 599 {
		return "error"
	}
	return fmt.Sprintf("%dxx", code/100)
}
