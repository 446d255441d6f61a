package talent

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_talent/internal/engine"
)

const (
	stackExchangeAPIBase = "https://api.stackexchange.com/2.3"
	soUsersPerCall       = 3
)

// StackOverflowCollector discovers top answerers through the StackExchange API.
type StackOverflowCollector struct {
	base string
	key  string
	api  apiClient
	rec  Recorder
	log  *slog.Logger
}

// NewStackOverflowCollector builds a StackOverflow collector. key is optional
// and raises the daily quota. limiter paces every request (see
// StackExchangeRateLimit); nil disables pacing.
func NewStackOverflowCollector(base, key string, client *http.Client, limiter *rate.Limiter, rec Recorder, log *slog.Logger) *StackOverflowCollector {
	if base == "" {
		base = stackExchangeAPIBase
	}
	if log == nil {
		log = slog.Default()
	}
	return &StackOverflowCollector{
		base: strings.TrimRight(base, "/"),
		key:  key,
		api:  newAPIClient(client, limiter, nil),
		rec:  recorderOrNop(rec),
		log:  log,
	}
}

func (s *StackOverflowCollector) Name() string { return string(PlatformStackOverflow) }

type seUser struct {
	UserID       int    `json:"user_id"`
	DisplayName  string `json:"display_name"`
	Reputation   int    `json:"reputation"`
	Location     string `json:"location"`
	Link         string `json:"link"`
	CreationDate int64  `json:"creation_date"`
	AnswerCount  int    `json:"answer_count"`
}

type seUsersResponse struct {
	Items []seUser `json:"items"`
}

type seTopAnswerers struct {
	Items []struct {
		User seUser `json:"user"`
	} `json:"items"`
}

// Collect implements Collector. Named users are looked up by display name;
// otherwise the all-time top answerers of the probe's first skill tag are used.
func (s *StackOverflowCollector) Collect(ctx context.Context, req CollectRequest) ([]PlatformProfile, error) {
	var users []seUser
	switch {
	case len(req.StackOverflowUsernames) > 0:
		for _, name := range firstN(req.StackOverflowUsernames, soUsersPerCall) {
			var data seUsersResponse
			params := url.Values{"inname": {name}, "pagesize": {"1"}, "sort": {"reputation"}}
			if err := s.getJSON(ctx, "/users", params, &data); err != nil {
				s.log.Debug("stackoverflow user lookup failed", slog.String("name", name), slog.Any("error", err))
				continue
			}
			users = append(users, data.Items...)
		}
	case len(req.Skills) > 0:
		found, err := s.topAnswerers(ctx, slug(req.Skills[0]))
		if err != nil {
			return nil, err
		}
		users = found
	}
	if len(users) == 0 {
		return nil, ErrNoProfiles
	}

	out := make([]PlatformProfile, 0, len(users))
	for _, u := range users {
		var joined time.Time
		if u.CreationDate > 0 {
			joined = time.Unix(u.CreationDate, 0).UTC()
		}
		out = append(out, StackOverflowPayload{
			ProfileCommon: ProfileCommon{
				Name:            html.UnescapeString(u.DisplayName),
				Handle:          strconv.Itoa(u.UserID),
				Location:        html.UnescapeString(u.Location),
				Skills:          append([]string(nil), req.Skills...),
				ConfidenceScore: 0.6,
				JoinDate:        joined,
			},
			Reputation: u.Reputation,
			Answers:    u.AnswerCount,
		})
	}
	return out, nil
}

func (s *StackOverflowCollector) topAnswerers(ctx context.Context, tag string) ([]seUser, error) {
	var top seTopAnswerers
	path := "/tags/" + url.PathEscape(tag) + "/top-answerers/all_time"
	if err := s.getJSON(ctx, path, url.Values{"pagesize": {strconv.Itoa(soUsersPerCall)}}, &top); err != nil {
		return nil, fmt.Errorf("stackoverflow top answerers: %w", err)
	}
	if len(top.Items) == 0 {
		return nil, nil
	}
	ids := make([]string, 0, len(top.Items))
	for _, it := range top.Items {
		ids = append(ids, strconv.Itoa(it.User.UserID))
	}

	// Shallow users lack location and creation date.
	var full seUsersResponse
	if err := s.getJSON(ctx, "/users/"+strings.Join(ids, ";"), url.Values{}, &full); err != nil {
		s.log.Debug("stackoverflow user details failed", slog.Any("error", err))
		users := make([]seUser, 0, len(top.Items))
		for _, it := range top.Items {
			users = append(users, it.User)
		}
		return users, nil
	}
	return full.Items, nil
}

func (s *StackOverflowCollector) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	params.Set("site", "stackoverflow")
	if s.key != "" {
		params.Set("key", s.key)
	}
	s.rec.Incr(engine.MetricStackExchangeCalls)
	if err := s.api.getJSON(ctx, s.base+path+"?"+params.Encode(), dst); err != nil {
		return fmt.Errorf("stackexchange %s: %w", path, err)
	}
	return nil
}
