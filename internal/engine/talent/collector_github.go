package talent

import (
	"context"
	"fmt"
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
	githubAPIBase      = "https://api.github.com"
	githubUsersPerCall = 3
)

// GitHubCollector discovers developers through the GitHub REST API.
type GitHubCollector struct {
	base string
	api  apiClient
	rec  Recorder
	log  *slog.Logger
}

// NewGitHubCollector builds a GitHub collector. base may be empty for the
// public API. limiter paces every request (see GitHubRateLimit); nil disables pacing.
func NewGitHubCollector(base, token string, client *http.Client, limiter *rate.Limiter, rec Recorder, log *slog.Logger) *GitHubCollector {
	if base == "" {
		base = githubAPIBase
	}
	if log == nil {
		log = slog.Default()
	}
	header := http.Header{}
	header.Set("Accept", "application/vnd.github.v3+json")
	header.Set("X-GitHub-Api-Version", "2022-11-28")
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	return &GitHubCollector{
		base: strings.TrimRight(base, "/"),
		api:  newAPIClient(client, limiter, header),
		rec:  recorderOrNop(rec),
		log:  log,
	}
}

func (g *GitHubCollector) Name() string { return string(PlatformGitHub) }

type ghUser struct {
	Login       string `json:"login"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Location    string `json:"location"`
	Company     string `json:"company"`
	Bio         string `json:"bio"`
	Blog        string `json:"blog"`
	Hireable    bool   `json:"hireable"`
	PublicRepos int    `json:"public_repos"`
	Followers   int    `json:"followers"`
	CreatedAt   string `json:"created_at"`
}

type ghRepo struct {
	Language string `json:"language"`
	Stars    int    `json:"stargazers_count"`
	Fork     bool   `json:"fork"`
}

type ghUserSearch struct {
	Items []struct {
		Login string `json:"login"`
	} `json:"items"`
}

// Collect implements Collector. Explicit usernames are fetched directly;
// otherwise the user search API is queried with the probe's skills.
func (g *GitHubCollector) Collect(ctx context.Context, req CollectRequest) ([]PlatformProfile, error) {
	logins := req.GitHubUsernames
	if len(logins) == 0 {
		found, err := g.searchUsers(ctx, githubUserQuery(req))
		if err != nil {
			return nil, err
		}
		logins = found
	}
	if len(logins) == 0 {
		return nil, ErrNoProfiles
	}

	var out []PlatformProfile
	for _, login := range firstN(logins, githubUsersPerCall) {
		if ctx.Err() != nil {
			break
		}
		p, err := g.profile(ctx, login, req.Skills)
		if err != nil {
			g.log.Debug("github profile fetch failed", slog.String("login", login), slog.Any("error", err))
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return nil, ErrNoProfiles
	}
	return out, nil
}

// githubUserQuery builds user-search syntax: language, followers and location qualifiers.
func githubUserQuery(req CollectRequest) string {
	parts := []string{"type:user"}
	for _, s := range firstN(req.Skills, 2) {
		parts = append(parts, "language:"+slug(s))
	}
	parts = append(parts, "followers:>10")
	if req.Location != "" {
		parts = append(parts, "location:"+strconv.Quote(req.Location))
	}
	return strings.Join(parts, " ")
}

func (g *GitHubCollector) searchUsers(ctx context.Context, q string) ([]string, error) {
	params := url.Values{"q": {q}, "per_page": {strconv.Itoa(githubUsersPerCall)}, "sort": {"followers"}}
	var data ghUserSearch
	if err := g.getJSON(ctx, "/search/users?"+params.Encode(), &data); err != nil {
		return nil, fmt.Errorf("github user search: %w", err)
	}
	logins := make([]string, 0, len(data.Items))
	for _, it := range data.Items {
		logins = append(logins, it.Login)
	}
	return logins, nil
}

func (g *GitHubCollector) profile(ctx context.Context, login string, skills []string) (PlatformProfile, error) {
	var u ghUser
	if err := g.getJSON(ctx, "/users/"+url.PathEscape(login), &u); err != nil {
		return nil, err
	}
	var repos []ghRepo
	if err := g.getJSON(ctx, "/users/"+url.PathEscape(login)+"/repos?per_page=100&sort=pushed", &repos); err != nil {
		g.log.Debug("github repos fetch failed", slog.String("login", login), slog.Any("error", err))
	}

	stars := 0
	var langs []string
	for _, r := range repos {
		if r.Fork {
			continue
		}
		stars += r.Stars
		if r.Language != "" {
			langs = append(langs, r.Language)
		}
	}

	var signals []string
	if u.Hireable {
		signals = append(signals, "marked hireable on GitHub")
	}
	if bioSignalsAvailability(u.Bio) {
		signals = append(signals, "bio mentions availability")
	}

	joined, _ := time.Parse(time.RFC3339, u.CreatedAt)
	return GitHubPayload{
		ProfileCommon: ProfileCommon{
			Name:                u.Name,
			Handle:              u.Login,
			Email:               u.Email,
			Location:            u.Location,
			Company:             strings.TrimPrefix(u.Company, "@"),
			Bio:                 u.Bio,
			Skills:              unionSkills(skills, langs),
			ConfidenceScore:     0.7,
			Verified:            u.Email != "",
			AvailabilitySignals: signals,
			JoinDate:            joined,
		},
		Repos:     u.PublicRepos,
		Stars:     stars,
		Followers: u.Followers,
	}, nil
}

func (g *GitHubCollector) getJSON(ctx context.Context, path string, dst any) error {
	g.rec.Incr(engine.MetricGitHubRequests)
	if err := g.api.getJSON(ctx, g.base+path, dst); err != nil {
		return fmt.Errorf("github %s: %w", path, err)
	}
	return nil
}

// availabilityPhrases mark a profile text as open to work.
var availabilityPhrases = []string{
	"open to work", "open to new opportunities", "looking for work", "available for hire",
	"seeking new", "open for opportunities", "#opentowork", "available for freelance",
}

func bioSignalsAvailability(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range availabilityPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
