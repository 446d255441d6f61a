package talent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// GitHub allows 60 core calls per hour without a token and 30 searches per
// minute with one; the search budget is the tighter of the two when
// authenticated.
const (
	githubAnonInterval  = time.Minute
	githubTokenInterval = 2 * time.Second
	githubBurst         = 5

	// StackExchange throttles above 30 requests per second per IP.
	stackExchangeInterval = 100 * time.Millisecond
	stackExchangeBurst    = 5
)

// GitHubRateLimit returns the request limiter for the GitHub REST API.
func GitHubRateLimit(token string) *rate.Limiter {
	if token == "" {
		return rate.NewLimiter(rate.Every(githubAnonInterval), githubBurst)
	}
	return rate.NewLimiter(rate.Every(githubTokenInterval), githubBurst)
}

// StackExchangeRateLimit returns the request limiter for the StackExchange API.
func StackExchangeRateLimit() *rate.Limiter {
	return rate.NewLimiter(rate.Every(stackExchangeInterval), stackExchangeBurst)
}

// apiClient issues GET requests against a public JSON API. Every attempt,
// retries included, waits on the limiter. A nil limiter means unlimited.
type apiClient struct {
	client  *http.Client
	limiter *rate.Limiter
	policy  engine.RetryPolicy
	header  http.Header
}

func newAPIClient(client *http.Client, limiter *rate.Limiter, header http.Header) apiClient {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	if header == nil {
		header = http.Header{}
	}
	header.Set("User-Agent", engine.UserAgentBot)
	return apiClient{client: client, limiter: limiter, policy: engine.DefaultRetryPolicy, header: header}
}

func (a apiClient) getJSON(ctx context.Context, rawURL string, dst any) error {
	operation := func() (struct{}, error) {
		if a.limiter != nil {
			if err := a.limiter.Wait(ctx); err != nil {
				return struct{}{}, backoff.Permanent(err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}
		req.Header = a.header.Clone()

		resp, err := a.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return struct{}{}, backoff.Permanent(ctx.Err())
			}
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return struct{}{}, engine.StatusError(resp.StatusCode)
		}
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return struct{}{}, nil
	}
	_, err := engine.Retry(ctx, a.policy, operation)
	return err
}
