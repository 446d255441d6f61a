package talent

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

var fastPolicy = engine.RetryPolicy{
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
	MaxTries:        3,
	MaxElapsed:      time.Second,
}

func testAPIClient(srv *httptest.Server, limiter *rate.Limiter) apiClient {
	a := newAPIClient(srv.Client(), limiter, nil)
	a.policy = fastPolicy
	return a
}

func TestAPIClient_RetriesTransientStatus(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, engine.UserAgentBot, r.Header.Get("User-Agent"))
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"login":"gopher"}`))
	}))
	defer srv.Close()

	var out struct{ Login string }
	require.NoError(t, testAPIClient(srv, nil).getJSON(context.Background(), srv.URL, &out))
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, "gopher", out.Login)
}

func TestAPIClient_NotFoundIsPermanent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	var out map[string]any
	err := testAPIClient(srv, nil).getJSON(context.Background(), srv.URL, &out)
	var se *engine.HTTPStatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Equal(t, int32(1), hits.Load())
}

func TestAPIClient_WaitsOnLimiter(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	a := testAPIClient(srv, rate.NewLimiter(rate.Every(40*time.Millisecond), 1))
	start := time.Now()
	for range 3 {
		var out map[string]any
		require.NoError(t, a.getJSON(context.Background(), srv.URL, &out))
	}
	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond, "second and third calls wait for tokens")
	assert.Equal(t, int32(3), hits.Load())
}

func TestAPIClient_LimiterHonorsContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	require.True(t, limiter.Allow(), "drain the only token")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	var out map[string]any
	start := time.Now()
	err := testAPIClient(srv, limiter).getJSON(ctx, srv.URL, &out)
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Zero(t, hits.Load(), "no request goes out without a token")
}

func TestRateLimits(t *testing.T) {
	assert.Equal(t, rate.Every(githubAnonInterval), GitHubRateLimit("").Limit())
	assert.Equal(t, rate.Every(githubTokenInterval), GitHubRateLimit("tok").Limit())
	assert.Equal(t, githubBurst, GitHubRateLimit("tok").Burst())
	assert.Equal(t, rate.Every(stackExchangeInterval), StackExchangeRateLimit().Limit())
}
