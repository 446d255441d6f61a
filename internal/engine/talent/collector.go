package talent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

// CollectRequest asks a collector for profiles matching one probe.
type CollectRequest struct {
	Name                   string                `json:"name"`
	Skills                 []string              `json:"skills"`
	GitHubUsernames        []string              `json:"github_usernames"`
	LinkedInURLs           []string              `json:"linkedin_urls"`
	StackOverflowUsernames []string              `json:"stackoverflow_usernames"`
	Location               string                `json:"location,omitempty"`
	Queries                map[Platform][]string `json:"queries,omitempty"`
}

// Collector discovers public profiles on one or more platforms.
type Collector interface {
	Name() string
	Collect(ctx context.Context, req CollectRequest) ([]PlatformProfile, error)
}

// collectResponse is the wire response of an external collector.
type collectResponse struct {
	Profiles []WireProfile `json:"profiles"`
}

// decodeProfiles converts wire profiles, skipping unknown platforms.
func decodeProfiles(wire []WireProfile, log *slog.Logger) []PlatformProfile {
	out := make([]PlatformProfile, 0, len(wire))
	for _, w := range wire {
		p, err := w.Typed()
		if err != nil {
			log.Debug("collector profile skipped", slog.String("handle", w.Handle), slog.Any("error", err))
			continue
		}
		out = append(out, p)
	}
	return out
}

// HTTPCollector posts probes to an external profile-collector endpoint.
type HTTPCollector struct {
	url    string
	client *http.Client
	rec    Recorder
	log    *slog.Logger
}

// NewHTTPCollector builds a collector for endpoint. client may be nil.
func NewHTTPCollector(endpoint string, client *http.Client, rec Recorder, log *slog.Logger) *HTTPCollector {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if log == nil {
		log = slog.Default()
	}
	return &HTTPCollector{url: endpoint, client: client, rec: recorderOrNop(rec), log: log}
}

func (c *HTTPCollector) Name() string { return "collector" }

// Collect implements Collector. Transient statuses are retried with
// exponential backoff; other failures are permanent.
func (c *HTTPCollector) Collect(ctx context.Context, req CollectRequest) ([]PlatformProfile, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("collector: encode request: %w", err)
	}

	operation := func() (collectResponse, error) {
		c.rec.Incr(engine.MetricCollectorHTTPCalls)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return collectResponse{}, backoff.Permanent(err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("User-Agent", engine.UserAgentBot)

		resp, err := c.client.Do(httpReq)
		if err != nil {
			if ctx.Err() != nil {
				return collectResponse{}, backoff.Permanent(ctx.Err())
			}
			return collectResponse{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return collectResponse{}, engine.StatusError(resp.StatusCode)
		}

		var out collectResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return collectResponse{}, backoff.Permanent(fmt.Errorf("decode: %w", err))
		}
		return out, nil
	}

	out, err := engine.Retry(ctx, engine.DefaultRetryPolicy, operation)
	if err != nil {
		return nil, fmt.Errorf("collector %s: %w", req.Name, err)
	}
	profiles := decodeProfiles(out.Profiles, c.log)
	if len(profiles) == 0 {
		return nil, ErrNoProfiles
	}
	return profiles, nil
}

// IsNoProfiles reports whether err only means a collector found nothing.
func IsNoProfiles(err error) bool { return errors.Is(err, ErrNoProfiles) }
