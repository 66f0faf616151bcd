package http

import (
	"net/http"
	"time"
)

// DefaultUserAgent is sent when a request carries no User-Agent
const DefaultUserAgent = "Property-Research-Backend/1.0"

// NewHTTPClient creates a new HTTP client with the specified timeout.
// Outgoing requests get DefaultUserAgent unless they set their own.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &userAgentTransport{
			base: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", DefaultUserAgent)
	return t.base.RoundTrip(r)
}
