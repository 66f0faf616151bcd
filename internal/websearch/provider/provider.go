package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/lk2023060901/property-research-backend/internal/pkg/logger"
	wshttp "github.com/lk2023060901/property-research-backend/internal/websearch/http"
	"github.com/lk2023060901/property-research-backend/internal/websearch/query"
	"github.com/lk2023060901/property-research-backend/internal/websearch/types"

	"go.uber.org/zap"
)

// Provider defines the interface for search providers
type Provider interface {
	// Search executes a compiled request
	Search(ctx context.Context, req query.Request) (*types.SearchResponse, error)

	// GetID returns the provider ID
	GetID() types.ProviderID

	// GetName returns the provider name
	GetName() string

	// Validate validates the provider configuration
	Validate() error

	// IsAvailable checks if the provider is available
	IsAvailable(ctx context.Context) bool
}

// BaseProvider provides common functionality for all providers
type BaseProvider struct {
	config     *types.ProviderConfig
	httpClient *http.Client
	apiKeys    []string // Support multiple API keys for rotation
	keyIndex   atomic.Uint64
	backoff    time.Duration // first retry delay, doubled per attempt
}

// NewBaseProvider creates a new base provider
func NewBaseProvider(config *types.ProviderConfig) *BaseProvider {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	// Parse multiple API keys (comma-separated)
	var apiKeys []string
	for _, k := range strings.Split(config.APIKey, ",") {
		if k = strings.TrimSpace(k); k != "" {
			apiKeys = append(apiKeys, k)
		}
	}

	return &BaseProvider{
		config:     config,
		httpClient: wshttp.NewHTTPClient(timeout),
		apiKeys:    apiKeys,
		backoff:    time.Second,
	}
}

// GetID returns the provider ID
func (b *BaseProvider) GetID() types.ProviderID {
	return b.config.ID
}

// GetName returns the provider name
func (b *BaseProvider) GetName() string {
	return b.config.Name
}

// GetAPIKey returns the current API key (with rotation support)
func (b *BaseProvider) GetAPIKey() string {
	if len(b.apiKeys) == 0 {
		return ""
	}

	i := b.keyIndex.Add(1) - 1
	return b.apiKeys[i%uint64(len(b.apiKeys))]
}

// endpoint joins the configured host and path
func (b *BaseProvider) endpoint(path string) string {
	return strings.TrimRight(b.config.APIHost, "/") + path
}

// DoRequest executes an HTTP request, retrying transport errors and
// 429/5xx responses with exponential backoff. The last response is
// returned as-is once retries are exhausted.
func (b *BaseProvider) DoRequest(ctx context.Context, req *http.Request) (*http.Response, error) {
	maxRetries := b.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if i > 0 {
			delay := b.backoff * time.Duration(1<<uint(i-1))
			logger.FromContext(ctx).Warn("retrying search request",
				zap.String("provider", string(b.config.ID)),
				zap.Int("attempt", i+1),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := b.httpClient.Do(req.WithContext(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if !retryableStatus(resp.StatusCode) || i == maxRetries-1 {
			return resp, nil
		}

		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		lastErr = fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	return nil, fmt.Errorf("request failed after %d retries: %w", maxRetries, lastErr)
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// statusError maps a non-200 response to a ProviderError
func (b *BaseProvider) statusError(code int, body []byte) error {
	perr := &types.ProviderError{
		Provider: b.config.ID,
		Code:     fmt.Sprintf("HTTP_%d", code),
		Message:  truncate(string(body), 512),
	}

	switch code {
	case http.StatusUnauthorized, http.StatusForbidden:
		perr.Err = types.ErrProviderUnauthorized
	case http.StatusTooManyRequests:
		perr.Err = types.ErrProviderRateLimited
	default:
		if code >= http.StatusInternalServerError {
			perr.Err = types.ErrProviderNotAvailable
		}
	}
	return perr
}

// get issues a GET for a compiled request and returns the 200 body
func (b *BaseProvider) get(ctx context.Context, apiURL string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := b.DoRequest(ctx, httpReq)
	if err != nil {
		return nil, &types.ProviderError{
			Provider: b.GetID(),
			Code:     "REQUEST_FAILED",
			Message:  "Failed to execute request",
			Err:      err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, b.statusError(resp.StatusCode, body)
	}
	return body, nil
}

// checkRequest rejects requests compiled for a different provider
func (b *BaseProvider) checkRequest(req query.Request) error {
	if req.Provider() != b.config.ID {
		return fmt.Errorf("%w: %s request sent to %s", types.ErrRequestMismatch, req.Provider(), b.config.ID)
	}
	return nil
}

// Validate validates the provider configuration
func (b *BaseProvider) Validate() error {
	return b.config.Validate()
}

// IsAvailable reports whether the provider is usable with its configuration
func (b *BaseProvider) IsAvailable(ctx context.Context) bool {
	return len(b.apiKeys) > 0 && b.config.Validate() == nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
